package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

const contentColumns = `id, slug, title, paragraph, tags, author_name, author_avatar, publish_date,
	image, body, body_html, published, flow, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (types.ContentItem, error) {
	var (
		item      types.ContentItem
		tags      string
		flow      sql.NullString
		published int
		created   int64
		updated   int64
	)
	err := row.Scan(&item.Id, &item.Slug, &item.Title, &item.Paragraph, &tags, &item.Author.Name,
		&item.Author.Avatar, &item.PublishDate, &item.Image, &item.Body, &item.BodyHTML, &published,
		&flow, &created, &updated)
	if err != nil {
		return item, err
	}
	if err := jsoncompat.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return item, fmt.Errorf("decode tags of %s: %w", item.Id, err)
	}
	if flow.Valid && flow.String != "" {
		item.Flow = &types.FlowDetails{}
		if err := jsoncompat.Unmarshal([]byte(flow.String), item.Flow); err != nil {
			return item, fmt.Errorf("decode flow of %s: %w", item.Id, err)
		}
	}
	item.Published = published != 0
	item.CreatedAt = time.UnixMilli(created).UTC()
	item.UpdatedAt = time.UnixMilli(updated).UTC()
	return item, nil
}

// ListContent returns every item of contentType, drafts included, in the
// order they were first stored.
func (s *Store) ListContent(ctx context.Context, contentType types.ContentType) ([]types.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE kind = ? ORDER BY rowid`, string(contentType))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", contentType, err)
	}
	defer rows.Close()

	ret := make([]types.ContentItem, 0)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// GetContent looks an item up by id or slug.
func (s *Store) GetContent(ctx context.Context, contentType types.ContentType, idOrSlug string) (types.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE kind = ? AND (id = ? OR slug = ?)`,
		string(contentType), idOrSlug, idOrSlug)
	item, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return item, fmt.Errorf("%s %s: %w", contentType, idOrSlug, ErrNotFound)
	}
	return item, err
}

// SaveContent validates, renders and upserts item. The id, slug and
// timestamps are filled in on the passed item. Validation warnings are
// logged and returned.
func (s *Store) SaveContent(ctx context.Context, item *types.ContentItem) ([]string, error) {
	item.Normalize()
	warnings, err := item.Validate()
	if err != nil {
		return warnings, err
	}
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	if item.Slug == "" {
		item.Slug = types.Slugify(item.Title)
	}
	// BodyHTML is always derived from Body.
	item.BodyHTML = ""
	if item.Body != "" {
		html, err := RenderMarkdown([]byte(item.Body))
		if err != nil {
			return warnings, fmt.Errorf("render %s: %w", item.Id, err)
		}
		item.BodyHTML = html
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if len(warnings) > 0 {
		s.logger.Warn("content saved with warnings",
			zap.String("id", item.Id),
			zap.String("kind", string(item.Kind())),
			zap.Strings("warnings", warnings))
	}

	tags, err := jsoncompat.Marshal(item.Tags)
	if err != nil {
		return warnings, err
	}
	var flow sql.NullString
	if item.Flow != nil {
		data, err := jsoncompat.Marshal(item.Flow)
		if err != nil {
			return warnings, err
		}
		flow = sql.NullString{String: string(data), Valid: true}
	}
	published := 0
	if item.Published {
		published = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_items (id, kind, slug, title, paragraph, tags, author_name, author_avatar,
			publish_date, image, body, body_html, published, flow, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			slug = excluded.slug,
			title = excluded.title,
			paragraph = excluded.paragraph,
			tags = excluded.tags,
			author_name = excluded.author_name,
			author_avatar = excluded.author_avatar,
			publish_date = excluded.publish_date,
			image = excluded.image,
			body = excluded.body,
			body_html = excluded.body_html,
			published = excluded.published,
			flow = excluded.flow,
			updated_at = excluded.updated_at`,
		item.Id, string(item.Kind()), item.Slug, item.Title, item.Paragraph, string(tags), item.Author.Name,
		item.Author.Avatar, item.PublishDate, item.Image, item.Body, item.BodyHTML, published, flow,
		item.CreatedAt.UnixMilli(), item.UpdatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return warnings, fmt.Errorf("slug %q: %w", item.Slug, ErrConflict)
		}
		return warnings, fmt.Errorf("save %s: %w", item.Id, err)
	}
	return warnings, nil
}

func (s *Store) DeleteContent(ctx context.Context, contentType types.ContentType, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_items WHERE kind = ? AND id = ?`, string(contentType), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", contentType, id, ErrNotFound)
	}
	return nil
}
