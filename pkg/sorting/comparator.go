package sorting

import (
	"cmp"
	"slices"

	"github.com/matst80/flow-finder/pkg/types"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type CompareFunc func(a, b *types.ContentItem) int

// Comparator builds the ordering for sortBy. Keys that only exist on flows
// compare equal for any other content type and unknown keys compare equal
// for every pair. A desc order negates the result.
func Comparator(sortBy types.SortKey, order types.SortOrder, contentType types.ContentType) CompareFunc {
	base := baseComparator(sortBy, contentType)
	if order == types.SortDesc {
		return func(a, b *types.ContentItem) int {
			return -base(a, b)
		}
	}
	return base
}

func equal(a, b *types.ContentItem) int {
	return 0
}

func baseComparator(sortBy types.SortKey, contentType types.ContentType) CompareFunc {
	switch sortBy {
	case types.SortByDate:
		return func(a, b *types.ContentItem) int {
			return CompareDates(a.PublishDate, b.PublishDate)
		}
	case types.SortByTitle:
		c := collate.New(language.English)
		return func(a, b *types.ContentItem) int {
			return c.CompareString(a.Title, b.Title)
		}
	case types.SortByAuthor:
		c := collate.New(language.English)
		return func(a, b *types.ContentItem) int {
			return c.CompareString(a.Author.Name, b.Author.Name)
		}
	}
	if contentType != types.ContentTypeFlows {
		return equal
	}
	switch sortBy {
	case types.SortByComplexity:
		return byNumber(func(f *types.FlowDetails) int {
			return types.ComplexityRank(f.Complexity)
		})
	case types.SortByTimeToImplement:
		return byNumber(func(f *types.FlowDetails) int {
			return ExtractLeadingInteger(f.TimeToImplement)
		})
	case types.SortByROI:
		return byNumber(func(f *types.FlowDetails) int {
			return ExtractPercentage(f.ROI)
		})
	}
	return equal
}

func byNumber(key func(f *types.FlowDetails) int) CompareFunc {
	return func(a, b *types.ContentItem) int {
		return cmp.Compare(key(a.FlowOrZero()), key(b.FlowOrZero()))
	}
}

// SortItems returns a stably sorted copy of items.
func SortItems(items []types.ContentItem, sortBy types.SortKey, order types.SortOrder, contentType types.ContentType) []types.ContentItem {
	ret := slices.Clone(items)
	if ret == nil {
		return []types.ContentItem{}
	}
	compare := Comparator(sortBy, order, contentType)
	slices.SortStableFunc(ret, func(a, b types.ContentItem) int {
		return compare(&a, &b)
	})
	return ret
}
