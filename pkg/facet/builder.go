package facet

import "github.com/matst80/flow-finder/pkg/types"

// BuildFacetIndex derives the selectable facet values of an unfiltered
// collection. Options keep the order in which values first occur in items.
// Categories, authors, years, complexity and time to implement count items;
// tags and technologies count occurrences. Every item lands in exactly one
// category bucket, an item without one under types.Uncategorized.
func BuildFacetIndex(items []types.ContentItem, contentType types.ContentType) types.FacetConfig {
	categories := newKeyCounter()
	tags := newKeyCounter()
	authors := newKeyCounter()
	years := newKeyCounter()

	isFlows := contentType == types.ContentTypeFlows
	var complexity, timeToImplement, technologies *keyCounter
	if isFlows {
		complexity = newKeyCounter()
		timeToImplement = newKeyCounter()
		technologies = newKeyCounter()
	}

	for i := range items {
		item := &items[i]
		categories.add(types.CategoryOf(item, contentType))
		tags.addAll(item.Tags)
		authors.addValue(item.Author.Name)
		years.addValue(item.PublishDate)
		if isFlows {
			flow := item.FlowOrZero()
			complexity.addValue(flow.Complexity)
			timeToImplement.addValue(flow.TimeToImplement)
			technologies.addAll(flow.Technologies)
		}
	}

	ret := types.FacetConfig{
		Categories:   categories.options(valueLabel),
		Tags:         tags.options(valueLabel),
		Authors:      authors.options(valueLabel),
		PublishYears: years.options(valueLabel),
	}
	if isFlows {
		ret.Complexity = complexity.options(valueLabel)
		ret.TimeToImplement = timeToImplement.options(valueLabel)
		ret.Technologies = technologies.options(valueLabel)
	}
	return ret
}
