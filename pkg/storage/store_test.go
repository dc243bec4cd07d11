package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matst80/flow-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "flowfinder.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func flowItem(title string) *types.ContentItem {
	return &types.ContentItem{
		Title:       title,
		Paragraph:   "Automates the boring part",
		Tags:        []string{"automation"},
		Author:      types.Author{Name: "Ada"},
		PublishDate: "2024-05-01",
		Body:        "# Heading\n\nSome *text*",
		Published:   true,
		Flow: &types.FlowDetails{
			Category:        "ops",
			Complexity:      "beginner",
			TimeToImplement: "2 weeks",
			ROI:             "150% ROI",
			Technologies:    []string{"n8n"},
		},
	}
}

func TestSaveAndGetContent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := flowItem("Ticket Triage")
	warnings, err := s.SaveContent(ctx, item)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, item.Id)
	assert.Equal(t, "ticket-triage", item.Slug)
	assert.Contains(t, item.BodyHTML, "<em>text</em>")

	got, err := s.GetContent(ctx, types.ContentTypeFlows, "ticket-triage")
	require.NoError(t, err)
	assert.Equal(t, item.Id, got.Id)
	assert.Equal(t, "ops", got.Flow.Category)
	assert.Equal(t, []string{"n8n"}, got.Flow.Technologies)
	assert.Equal(t, []string{"automation"}, got.Tags)
	assert.True(t, got.Published)
	assert.Equal(t, item.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = s.GetContent(ctx, types.ContentTypeBlog, item.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveContentDerivesBodyHtml(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := flowItem("Raw Html")
	item.Body = ""
	item.BodyHTML = `<script>alert(1)</script>`
	_, err := s.SaveContent(ctx, item)
	require.NoError(t, err)
	assert.Empty(t, item.BodyHTML)

	got, err := s.GetContent(ctx, types.ContentTypeFlows, item.Id)
	require.NoError(t, err)
	assert.Empty(t, got.BodyHTML)

	got.BodyHTML = `<script>alert(2)</script>`
	got.Body = "plain *words*"
	_, err = s.SaveContent(ctx, &got)
	require.NoError(t, err)
	assert.NotContains(t, got.BodyHTML, "script")
	assert.Contains(t, got.BodyHTML, "<em>words</em>")
}

func TestListContentKeepsInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := s.SaveContent(ctx, flowItem(title))
		require.NoError(t, err)
	}
	first, err := s.GetContent(ctx, types.ContentTypeFlows, "zeta")
	require.NoError(t, err)
	first.Title = "Zeta v2"
	_, err = s.SaveContent(ctx, &first)
	require.NoError(t, err)

	items, err := s.ListContent(ctx, types.ContentTypeFlows)
	require.NoError(t, err)
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	assert.Equal(t, []string{"Zeta v2", "Alpha", "Mid"}, titles)
}

func TestSaveContentValidation(t *testing.T) {
	s := openTestStore(t)
	item := flowItem("")
	_, err := s.SaveContent(context.Background(), item)
	assert.ErrorIs(t, err, types.ErrValidation)

	item = flowItem("Warned")
	item.Flow.Complexity = "expert"
	warnings, err := s.SaveContent(context.Background(), item)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestSlugConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.SaveContent(ctx, flowItem("Same"))
	require.NoError(t, err)
	_, err = s.SaveContent(ctx, flowItem("Same"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteContent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	item := flowItem("Gone")
	_, err := s.SaveContent(ctx, item)
	require.NoError(t, err)

	require.NoError(t, s.DeleteContent(ctx, types.ContentTypeFlows, item.Id))
	assert.ErrorIs(t, s.DeleteContent(ctx, types.ContentTypeFlows, item.Id), ErrNotFound)
}

func TestProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SaveProfile(ctx, &types.Profile{UserId: "u1", Role: "root"}), types.ErrValidation)

	require.NoError(t, s.SaveProfile(ctx, &types.Profile{UserId: "u1", Email: "a@b.se", Role: types.RoleEditor}))
	require.NoError(t, s.SaveProfile(ctx, &types.Profile{UserId: "u1", Email: "a@b.se", Role: types.RoleAdmin}))
	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, p.Role)
}

func TestSubscriptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSubscription(ctx, "ops", "t1"))
	require.NoError(t, s.AddSubscription(ctx, "ops", "t1"))
	require.NoError(t, s.AddSubscription(ctx, "ops", "t2"))
	require.NoError(t, s.AddSubscription(ctx, "ai", "t2"))

	tokens, err := s.SubscriptionsFor(ctx, "ops")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, tokens)

	require.NoError(t, s.RemoveSubscription(ctx, "ops", "t1"))
	require.NoError(t, s.RemoveToken(ctx, "t2"))
	tokens, err = s.SubscriptionsFor(ctx, "ops")
	require.NoError(t, err)
	assert.Empty(t, tokens)
	tokens, err = s.SubscriptionsFor(ctx, "ai")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestContactRequests(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.SaveContactRequest(ctx, &types.ContactRequest{Name: "Ada"}), types.ErrValidation)

	req := &types.ContactRequest{Name: "Ada", Email: "ada@example.com", Message: "We want a chatbot"}
	require.NoError(t, s.SaveContactRequest(ctx, req))
	assert.NotEmpty(t, req.Id)

	list, err := s.ContactRequests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "We want a chatbot", list[0].Message)
}

func TestSnapshotFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.SaveContent(ctx, flowItem("Snap"))
	require.NoError(t, err)

	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	fileName := filepath.Join(t.TempDir(), "backup", "content.json.gz")
	require.NoError(t, WriteSnapshot(fileName, snapshot))

	read, err := ReadSnapshot(fileName)
	require.NoError(t, err)
	assert.Empty(t, read.Blog)
	require.Len(t, read.Items(), 1)
	assert.Equal(t, "Snap", read.Flows[0].Title)

	other := openTestStore(t)
	res, err := other.Import(ctx, read.Items())
	require.NoError(t, err)
	assert.Len(t, res.Saved, 1)
	assert.Equal(t, snapshot.Flows[0].Id, res.Saved[0].Id)
}
