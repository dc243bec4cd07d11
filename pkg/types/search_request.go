package types

import (
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
)

type SearchRequest struct {
	FilterState
	Page     int `json:"page" schema:"page"`
	PageSize int `json:"pageSize" schema:"size"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *SearchRequest) Sanitize(defaultPageSize, maxPageSize int) {
	if s.PageSize <= 0 {
		s.PageSize = defaultPageSize
	}
	s.Page = clamp(s.Page, 0, 1000)
	s.PageSize = clamp(s.PageSize, 1, maxPageSize)
	s.FilterState.Sanitize()
}

func NewSearchRequest() *SearchRequest {
	return &SearchRequest{
		FilterState: DefaultFilterState(),
		Page:        0,
	}
}

// GetSearchRequest reads the filter state from the query string on GET
// and from a JSON body otherwise.
func GetSearchRequest(r *http.Request, defaultPageSize, maxPageSize int) (*SearchRequest, error) {
	sr := NewSearchRequest()
	var err error
	if r.Method == http.MethodGet {
		err = SearchRequestFromQuery(r.URL.Query(), sr)
	} else {
		err = jsoncompat.NewDecoder(r.Body).Decode(sr)
	}
	sr.Sanitize(defaultPageSize, maxPageSize)
	return sr, err
}

func SearchRequestFromQuery(query url.Values, result *SearchRequest) error {
	return decoder.Decode(result, query)
}
