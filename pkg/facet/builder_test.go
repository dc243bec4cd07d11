package facet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/stretchr/testify/assert"
)

func blogPost(title, author, date string, tags ...string) types.ContentItem {
	return types.ContentItem{
		Id:          title,
		Title:       title,
		Tags:        tags,
		Author:      types.Author{Name: author},
		PublishDate: date,
	}
}

func flow(title, category, complexity, timeToImplement string, technologies ...string) types.ContentItem {
	return types.ContentItem{
		Id:          title,
		Title:       title,
		Tags:        []string{"automation"},
		Author:      types.Author{Name: "Ada"},
		PublishDate: "2024-05-01",
		Flow: &types.FlowDetails{
			Category:        category,
			Complexity:      complexity,
			TimeToImplement: timeToImplement,
			Technologies:    technologies,
		},
	}
}

func TestTagFacetCountsOccurrences(t *testing.T) {
	items := []types.ContentItem{
		blogPost("A", "Ada", "2024", "x", "y"),
		blogPost("B", "Ada", "2024", "x"),
	}
	facets := BuildFacetIndex(items, types.ContentTypeBlog)

	expected := []types.FacetOption{
		{Value: "x", Label: "x", Count: 2},
		{Value: "y", Label: "y", Count: 1},
	}
	if diff := cmp.Diff(expected, facets.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateTagOnOneItemCountsTwice(t *testing.T) {
	items := []types.ContentItem{blogPost("A", "Ada", "2024", "x", "x")}
	facets := BuildFacetIndex(items, types.ContentTypeBlog)
	assert.Equal(t, []types.FacetOption{{Value: "x", Label: "x", Count: 2}}, facets.Tags)
}

func TestCategoryCountsSumToItemCount(t *testing.T) {
	items := []types.ContentItem{
		blogPost("A", "Ada", "2024", "ai", "llm"),
		blogPost("B", "Bob", "2023", "data"),
		blogPost("C", "Ada", "2024", "ai"),
		blogPost("D", "Cy", "2022"),
	}
	facets := BuildFacetIndex(items, types.ContentTypeBlog)

	sum := 0
	for _, c := range facets.Categories {
		sum += c.Count
	}
	assert.Equal(t, len(items), sum)
	assert.Equal(t, types.FacetOption{Value: types.Uncategorized, Label: types.Uncategorized, Count: 1}, facets.Categories[2])
}

func TestFacetsKeepFirstOccurrenceOrder(t *testing.T) {
	items := []types.ContentItem{
		blogPost("A", "Zed", "2024", "zeta"),
		blogPost("B", "Ada", "2021", "alpha"),
		blogPost("C", "Zed", "2023", "zeta"),
	}
	facets := BuildFacetIndex(items, types.ContentTypeBlog)

	values := func(opts []types.FacetOption) []string {
		ret := make([]string, len(opts))
		for i, o := range opts {
			ret[i] = o.Value
		}
		return ret
	}
	assert.Equal(t, []string{"zeta", "alpha"}, values(facets.Categories))
	assert.Equal(t, []string{"Zed", "Ada"}, values(facets.Authors))
	assert.Equal(t, []string{"2024", "2021", "2023"}, values(facets.PublishYears))
	assert.Equal(t, 2, facets.Authors[0].Count)
}

func TestFlowFacets(t *testing.T) {
	items := []types.ContentItem{
		flow("RAG Chatbot", "ai-chatbot", "beginner", "2-4 weeks", "OpenAI", "Postgres"),
		flow("Data Pipeline", "data-processing", "advanced", "6 weeks", "Postgres"),
		flow("Lead Scoring", "ai-chatbot", "beginner", "2-4 weeks"),
	}
	facets := BuildFacetIndex(items, types.ContentTypeFlows)

	assert.Equal(t, []types.FacetOption{
		{Value: "ai-chatbot", Label: "ai-chatbot", Count: 2},
		{Value: "data-processing", Label: "data-processing", Count: 1},
	}, facets.Categories)
	assert.Equal(t, []types.FacetOption{
		{Value: "beginner", Label: "beginner", Count: 2},
		{Value: "advanced", Label: "advanced", Count: 1},
	}, facets.Complexity)
	assert.Equal(t, []types.FacetOption{
		{Value: "2-4 weeks", Label: "2-4 weeks", Count: 2},
		{Value: "6 weeks", Label: "6 weeks", Count: 1},
	}, facets.TimeToImplement)
	assert.Equal(t, []types.FacetOption{
		{Value: "OpenAI", Label: "OpenAI", Count: 1},
		{Value: "Postgres", Label: "Postgres", Count: 2},
	}, facets.Technologies)
}

func TestFlowWithoutTechnologiesContributesNothing(t *testing.T) {
	item := flow("Bare", "ops", "beginner", "1 week")
	item.Flow.Technologies = nil
	facets := BuildFacetIndex([]types.ContentItem{item}, types.ContentTypeFlows)
	assert.Empty(t, facets.Technologies)
	assert.NotNil(t, facets.Technologies)
}

func TestBlogFacetsOmitFlowLists(t *testing.T) {
	facets := BuildFacetIndex([]types.ContentItem{blogPost("A", "Ada", "2024", "x")}, types.ContentTypeBlog)
	assert.Nil(t, facets.Complexity)
	assert.Nil(t, facets.TimeToImplement)
	assert.Nil(t, facets.Technologies)
}

func TestEmptyCollection(t *testing.T) {
	facets := BuildFacetIndex(nil, types.ContentTypeFlows)
	assert.Empty(t, facets.Categories)
	assert.Empty(t, facets.Tags)
	assert.Empty(t, facets.Authors)
	assert.Empty(t, facets.PublishYears)
	assert.Empty(t, facets.Complexity)
	assert.Empty(t, facets.TimeToImplement)
	assert.Empty(t, facets.Technologies)
}

func TestKeyCounter(t *testing.T) {
	k := newKeyCounter()
	k.addAll([]string{"a", "", "b", "a"})
	assert.Equal(t, 2, k.Len())
	assert.Equal(t, 3, k.TotalCount())
}
