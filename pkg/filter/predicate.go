package filter

import (
	"strings"

	"github.com/matst80/flow-finder/pkg/types"
	"golang.org/x/text/cases"
)

type stringSet map[string]struct{}

func makeSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	ret := make(stringSet, len(values))
	for _, v := range values {
		ret[v] = struct{}{}
	}
	return ret
}

// intersects is true when the set is empty or shares a value with values.
func (s stringSet) intersects(values []string) bool {
	if len(s) == 0 {
		return true
	}
	for _, v := range values {
		if _, ok := s[v]; ok {
			return true
		}
	}
	return false
}

// Predicate is a FilterState compiled for repeated evaluation.
type Predicate struct {
	state        types.FilterState
	contentType  types.ContentType
	term         string
	fold         cases.Caser
	tags         stringSet
	technologies stringSet
}

// Compile prepares state for matching items of contentType. A Predicate
// holds a case folder and must not be shared between goroutines.
func Compile(state types.FilterState, contentType types.ContentType) *Predicate {
	p := &Predicate{
		state:        state,
		contentType:  contentType,
		fold:         cases.Fold(),
		tags:         makeSet(state.Tags),
		technologies: makeSet(state.Technologies),
	}
	if state.SearchTerm != "" {
		p.term = p.fold.String(state.SearchTerm)
	}
	return p
}

func (p *Predicate) contains(value string) bool {
	return strings.Contains(p.fold.String(value), p.term)
}

func (p *Predicate) matchesTerm(item *types.ContentItem) bool {
	if p.term == "" {
		return true
	}
	if p.contains(item.Title) || p.contains(item.Paragraph) || p.contains(item.Author.Name) {
		return true
	}
	for _, tag := range item.Tags {
		if p.contains(tag) {
			return true
		}
	}
	if p.contentType == types.ContentTypeFlows {
		for _, tech := range item.FlowOrZero().Technologies {
			if p.contains(tech) {
				return true
			}
		}
	}
	return false
}

// Match applies every filter dimension: all must hold, and a multi-select
// dimension holds when any of its values is present on the item.
func (p *Predicate) Match(item *types.ContentItem) bool {
	if !p.matchesTerm(item) {
		return false
	}
	if !p.state.Category.Matches(types.CategoryOf(item, p.contentType)) {
		return false
	}
	if !p.tags.intersects(item.Tags) {
		return false
	}
	if !p.state.Author.Matches(item.Author.Name) {
		return false
	}
	if !p.state.Year.Matches(item.PublishDate) {
		return false
	}
	if p.contentType != types.ContentTypeFlows {
		return true
	}
	flow := item.FlowOrZero()
	return p.state.Complexity.Matches(flow.Complexity) &&
		p.state.TimeToImplement.Matches(flow.TimeToImplement) &&
		p.technologies.intersects(flow.Technologies)
}

func Matches(item *types.ContentItem, state types.FilterState, contentType types.ContentType) bool {
	return Compile(state, contentType).Match(item)
}

// FilterItems returns the items that match state, in their original order.
// The input slice is left untouched.
func FilterItems(items []types.ContentItem, state types.FilterState, contentType types.ContentType) []types.ContentItem {
	p := Compile(state, contentType)
	ret := make([]types.ContentItem, 0, len(items))
	for i := range items {
		if p.Match(&items[i]) {
			ret = append(ret, items[i])
		}
	}
	return ret
}
