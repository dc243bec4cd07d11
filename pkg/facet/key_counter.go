package facet

import "github.com/matst80/flow-finder/pkg/types"

// keyCounter tallies values while remembering the order in which each
// value was first seen.
type keyCounter struct {
	order  []string
	counts map[string]int
}

func newKeyCounter() *keyCounter {
	return &keyCounter{
		order:  make([]string, 0),
		counts: make(map[string]int),
	}
}

func (k *keyCounter) add(value string) {
	if _, ok := k.counts[value]; !ok {
		k.order = append(k.order, value)
	}
	k.counts[value]++
}

// addValue skips empty values; nothing can be selected for them.
func (k *keyCounter) addValue(value string) {
	if value != "" {
		k.add(value)
	}
}

func (k *keyCounter) addAll(values []string) {
	for _, v := range values {
		k.addValue(v)
	}
}

func (k *keyCounter) Len() int {
	return len(k.order)
}

func (k *keyCounter) TotalCount() int {
	total := 0
	for _, c := range k.counts {
		total += c
	}
	return total
}

func (k *keyCounter) options(label func(string) string) []types.FacetOption {
	ret := make([]types.FacetOption, len(k.order))
	for i, value := range k.order {
		ret[i] = types.FacetOption{
			Value: value,
			Label: label(value),
			Count: k.counts[value],
		}
	}
	return ret
}

func valueLabel(value string) string {
	return value
}
