package types

type FacetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FacetConfig lists what can be selected in a collection. The flow-only
// lists stay nil for blog collections.
type FacetConfig struct {
	Categories      []FacetOption `json:"categories"`
	Tags            []FacetOption `json:"tags"`
	Authors         []FacetOption `json:"authors"`
	PublishYears    []FacetOption `json:"publishYears"`
	Complexity      []FacetOption `json:"complexity,omitempty"`
	TimeToImplement []FacetOption `json:"timeToImplement,omitempty"`
	Technologies    []FacetOption `json:"technologies,omitempty"`
}
