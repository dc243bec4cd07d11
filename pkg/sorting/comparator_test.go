package sorting

import (
	"slices"
	"testing"

	"github.com/matst80/flow-finder/pkg/types"
	"github.com/stretchr/testify/assert"
)

func item(id string, mod func(*types.ContentItem)) types.ContentItem {
	ret := types.ContentItem{
		Id:     id,
		Title:  id,
		Author: types.Author{Name: "Ada"},
		Flow:   &types.FlowDetails{},
	}
	if mod != nil {
		mod(&ret)
	}
	return ret
}

func ids(items []types.ContentItem) []string {
	ret := make([]string, len(items))
	for i, it := range items {
		ret[i] = it.Id
	}
	return ret
}

func TestExtractLeadingInteger(t *testing.T) {
	cases := map[string]int{
		"2-4 weeks":  2,
		"6 weeks":    6,
		"about 12h":  12,
		"ongoing":    0,
		"":           0,
		"1-2 months": 1,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ExtractLeadingInteger(input), input)
	}
}

func TestExtractPercentage(t *testing.T) {
	cases := map[string]int{
		"300% ROI":             300,
		"No ROI data":          0,
		"2x faster, 45% saved": 45,
		"50 %":                 0,
		"":                     0,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ExtractPercentage(input), input)
	}
}

func TestRoiSortPlacesMissingDataFirst(t *testing.T) {
	items := []types.ContentItem{
		item("high", func(i *types.ContentItem) { i.Flow.ROI = "300% ROI" }),
		item("none", func(i *types.ContentItem) { i.Flow.ROI = "No ROI data" }),
	}
	sorted := SortItems(items, types.SortByROI, types.SortAsc, types.ContentTypeFlows)
	assert.Equal(t, []string{"none", "high"}, ids(sorted))
}

func TestComplexitySortUsesVocabulary(t *testing.T) {
	items := []types.ContentItem{
		item("adv", func(i *types.ContentItem) { i.Flow.Complexity = "advanced" }),
		item("beg", func(i *types.ContentItem) { i.Flow.Complexity = "beginner" }),
		item("mid", func(i *types.ContentItem) { i.Flow.Complexity = "Medium" }),
		item("odd", func(i *types.ContentItem) { i.Flow.Complexity = "expert" }),
	}
	sorted := SortItems(items, types.SortByComplexity, types.SortAsc, types.ContentTypeFlows)
	assert.Equal(t, []string{"odd", "beg", "mid", "adv"}, ids(sorted))
}

func TestTimeToImplementSort(t *testing.T) {
	items := []types.ContentItem{
		item("six", func(i *types.ContentItem) { i.Flow.TimeToImplement = "6 weeks" }),
		item("two", func(i *types.ContentItem) { i.Flow.TimeToImplement = "2-4 weeks" }),
		item("none", func(i *types.ContentItem) { i.Flow.TimeToImplement = "varies" }),
	}
	sorted := SortItems(items, types.SortByTimeToImplement, types.SortDesc, types.ContentTypeFlows)
	assert.Equal(t, []string{"six", "two", "none"}, ids(sorted))
}

func TestDateSort(t *testing.T) {
	items := []types.ContentItem{
		item("feb", func(i *types.ContentItem) { i.PublishDate = "February 2024" }),
		item("dec", func(i *types.ContentItem) { i.PublishDate = "December 2023" }),
		item("mar", func(i *types.ContentItem) { i.PublishDate = "2024-03-10" }),
	}
	sorted := SortItems(items, types.SortByDate, types.SortAsc, types.ContentTypeBlog)
	assert.Equal(t, []string{"dec", "feb", "mar"}, ids(sorted))
}

func TestCompareDatesFallsBackToLabels(t *testing.T) {
	assert.Equal(t, -1, CompareDates("2024-01-01", "2024-02-01"))
	assert.Equal(t, 1, CompareDates("soon", "later"))
	assert.Equal(t, -1, CompareDates("", "2024-02-01"))
	assert.Equal(t, 0, CompareDates("", ""))
	assert.Equal(t, 1, CompareDates("December 2023", "Aaa"))
	assert.Equal(t, -1, CompareDates("Aaa", "2024"))
}

func TestDateSortWithMixedLabels(t *testing.T) {
	labels := []string{"December 2023", "2024", "Aaa", "someday", "2022-06-01"}
	build := func(order []int) []types.ContentItem {
		ret := make([]types.ContentItem, 0, len(order))
		for _, idx := range order {
			label := labels[idx]
			ret = append(ret, item(label, func(i *types.ContentItem) { i.PublishDate = label }))
		}
		return ret
	}
	want := []string{"Aaa", "someday", "2022-06-01", "December 2023", "2024"}

	for _, order := range [][]int{{0, 1, 2, 3, 4}, {1, 2, 0, 4, 3}, {4, 3, 2, 1, 0}} {
		asc := SortItems(build(order), types.SortByDate, types.SortAsc, types.ContentTypeBlog)
		assert.Equal(t, want, ids(asc), "input order %v", order)

		desc := ids(SortItems(build(order), types.SortByDate, types.SortDesc, types.ContentTypeBlog))
		slices.Reverse(desc)
		assert.Equal(t, want, desc, "input order %v", order)
	}
}

func TestTitleAndAuthorSort(t *testing.T) {
	items := []types.ContentItem{
		item("b", func(i *types.ContentItem) { i.Title = "beta"; i.Author.Name = "Zed" }),
		item("a", func(i *types.ContentItem) { i.Title = "Alpha"; i.Author.Name = "Yan" }),
		item("c", func(i *types.ContentItem) { i.Title = "Gamma"; i.Author.Name = "Xia" }),
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(SortItems(items, types.SortByTitle, types.SortAsc, types.ContentTypeBlog)))
	assert.Equal(t, []string{"c", "a", "b"}, ids(SortItems(items, types.SortByAuthor, types.SortAsc, types.ContentTypeBlog)))
}

func TestSortIsStable(t *testing.T) {
	items := []types.ContentItem{
		item("1", func(i *types.ContentItem) { i.Flow.ROI = "10%" }),
		item("2", func(i *types.ContentItem) { i.Flow.ROI = "20%" }),
		item("3", func(i *types.ContentItem) { i.Flow.ROI = "10%" }),
		item("4", func(i *types.ContentItem) { i.Flow.ROI = "20%" }),
	}
	assert.Equal(t, []string{"1", "3", "2", "4"}, ids(SortItems(items, types.SortByROI, types.SortAsc, types.ContentTypeFlows)))
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(SortItems(items, types.SortByROI, types.SortDesc, types.ContentTypeFlows)))
}

func TestReversalWithoutTies(t *testing.T) {
	items := []types.ContentItem{
		item("c", func(i *types.ContentItem) { i.PublishDate = "2024-03-01" }),
		item("a", func(i *types.ContentItem) { i.PublishDate = "2022-03-01" }),
		item("b", func(i *types.ContentItem) { i.PublishDate = "2023-03-01" }),
	}
	asc := ids(SortItems(items, types.SortByDate, types.SortAsc, types.ContentTypeBlog))
	desc := ids(SortItems(items, types.SortByDate, types.SortDesc, types.ContentTypeBlog))
	slices.Reverse(asc)
	assert.Equal(t, asc, desc)
}

func TestFlowKeysAreNoOpForBlog(t *testing.T) {
	items := []types.ContentItem{
		item("1", func(i *types.ContentItem) { i.Flow.ROI = "90%" }),
		item("2", func(i *types.ContentItem) { i.Flow.ROI = "10%" }),
	}
	for _, key := range []types.SortKey{types.SortByROI, types.SortByComplexity, types.SortByTimeToImplement, "unknown"} {
		assert.Equal(t, []string{"1", "2"}, ids(SortItems(items, key, types.SortAsc, types.ContentTypeBlog)), string(key))
	}
	assert.Equal(t, []string{"1", "2"}, ids(SortItems(items, "unknown", types.SortDesc, types.ContentTypeFlows)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := []types.ContentItem{
		item("b", nil),
		item("a", nil),
	}
	sorted := SortItems(items, types.SortByTitle, types.SortAsc, types.ContentTypeFlows)
	assert.Equal(t, []string{"a", "b"}, ids(sorted))
	assert.Equal(t, []string{"b", "a"}, ids(items))
	assert.Empty(t, SortItems(nil, types.SortByDate, types.SortDesc, types.ContentTypeBlog))
}
