package types

import (
	"encoding/json"
)

// Selection is an optional exact-match filter value. The zero value is
// unset and matches every item, so no facet value is reserved as a
// wildcard.
type Selection struct {
	Value string
	Set   bool
}

func Only(value string) Selection {
	return Selection{Value: value, Set: true}
}

func (s Selection) Matches(value string) bool {
	return !s.Set || s.Value == value
}

func (s Selection) String() string {
	if !s.Set {
		return ""
	}
	return s.Value
}

// UnmarshalText treats an empty value as unset.
func (s *Selection) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = Selection{}
		return nil
	}
	*s = Only(string(text))
	return nil
}

func (s Selection) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Selection{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(value))
}

type SortKey string

const (
	SortByDate            SortKey = "date"
	SortByTitle           SortKey = "title"
	SortByAuthor          SortKey = "author"
	SortByComplexity      SortKey = "complexity"
	SortByTimeToImplement SortKey = "timeToImplement"
	SortByROI             SortKey = "roi"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type FilterState struct {
	SearchTerm      string    `json:"searchTerm" schema:"q"`
	Category        Selection `json:"category" schema:"category"`
	Tags            []string  `json:"tags" schema:"tag"`
	Author          Selection `json:"author" schema:"author"`
	Year            Selection `json:"year" schema:"year"`
	Complexity      Selection `json:"complexity" schema:"complexity"`
	TimeToImplement Selection `json:"timeToImplement" schema:"time"`
	Technologies    []string  `json:"technologies" schema:"tech"`
	SortBy          SortKey   `json:"sortBy" schema:"sort"`
	SortOrder       SortOrder `json:"sortOrder" schema:"order"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		Tags:         []string{},
		Technologies: []string{},
		SortBy:       SortByDate,
		SortOrder:    SortDesc,
	}
}

// IsDefault reports whether the state selects every item.
func (f *FilterState) IsDefault() bool {
	return f.SearchTerm == "" &&
		!f.Category.Set && !f.Author.Set && !f.Year.Set &&
		!f.Complexity.Set && !f.TimeToImplement.Set &&
		len(f.Tags) == 0 && len(f.Technologies) == 0
}

func (f *FilterState) Sanitize() {
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.Technologies == nil {
		f.Technologies = []string{}
	}
	if f.SortBy == "" {
		f.SortBy = SortByDate
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
}
