package catalog

import (
	"slices"
	"sync"

	"github.com/matst80/flow-finder/pkg/facet"
	"github.com/matst80/flow-finder/pkg/filter"
	"github.com/matst80/flow-finder/pkg/sorting"
	"github.com/matst80/flow-finder/pkg/types"
)

type Result struct {
	Items     []types.ContentItem `json:"items"`
	Facets    types.FacetConfig   `json:"facets"`
	TotalHits int                 `json:"totalHits"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"pageSize"`
}

type facetKey struct {
	contentType   types.ContentType
	includeDrafts bool
}

// Catalog keeps an ordered snapshot of every content item per content type.
// Readers get copies so the snapshot can be swapped while a request is
// filtering.
type Catalog struct {
	mu     sync.RWMutex
	items  map[types.ContentType][]types.ContentItem
	facets map[facetKey]types.FacetConfig
	gen    map[types.ContentType]uint64
}

func NewCatalog() *Catalog {
	return &Catalog{
		items:  make(map[types.ContentType][]types.ContentItem),
		facets: make(map[facetKey]types.FacetConfig),
		gen:    make(map[types.ContentType]uint64),
	}
}

func (c *Catalog) invalidate(contentType types.ContentType) {
	c.gen[contentType]++
	delete(c.facets, facetKey{contentType, true})
	delete(c.facets, facetKey{contentType, false})
}

// Replace swaps every item of contentType, keeping the given order.
func (c *Catalog) Replace(contentType types.ContentType, items []types.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[contentType] = slices.Clone(items)
	c.invalidate(contentType)
}

// Upsert replaces the item with the same id in place or appends it.
func (c *Catalog) Upsert(item types.ContentItem) {
	contentType := item.Kind()
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.items[contentType]
	idx := slices.IndexFunc(current, func(i types.ContentItem) bool {
		return i.Id == item.Id
	})
	next := slices.Clone(current)
	if idx >= 0 {
		next[idx] = item
	} else {
		next = append(next, item)
	}
	c.items[contentType] = next
	c.invalidate(contentType)

	// the item may have switched between blog and flows
	for other, list := range c.items {
		if other == contentType {
			continue
		}
		if i := slices.IndexFunc(list, func(i types.ContentItem) bool { return i.Id == item.Id }); i >= 0 {
			c.items[other] = slices.Delete(slices.Clone(list), i, i+1)
			c.invalidate(other)
		}
	}
}

func (c *Catalog) Delete(contentType types.ContentType, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.items[contentType]
	idx := slices.IndexFunc(current, func(i types.ContentItem) bool {
		return i.Id == id
	})
	if idx < 0 {
		return false
	}
	c.items[contentType] = slices.Delete(slices.Clone(current), idx, idx+1)
	c.invalidate(contentType)
	return true
}

func (c *Catalog) Get(contentType types.ContentType, idOrSlug string) (types.ContentItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items[contentType] {
		if item.MatchesIdOrSlug(idOrSlug) {
			return item, true
		}
	}
	return types.ContentItem{}, false
}

func (c *Catalog) Count(contentType types.ContentType) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items[contentType])
}

func (c *Catalog) snapshot(contentType types.ContentType) []types.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[contentType]
}

func visible(items []types.ContentItem, includeDrafts bool) []types.ContentItem {
	ret := make([]types.ContentItem, 0, len(items))
	for _, item := range items {
		if includeDrafts || item.Published {
			ret = append(ret, item)
		}
	}
	return ret
}

func (c *Catalog) Items(contentType types.ContentType, includeDrafts bool) []types.ContentItem {
	return visible(c.snapshot(contentType), includeDrafts)
}

// Facets derives the facet menus from the whole visible collection, not
// from a filtered subset.
func (c *Catalog) Facets(contentType types.ContentType, includeDrafts bool) types.FacetConfig {
	key := facetKey{contentType, includeDrafts}
	c.mu.RLock()
	cached, ok := c.facets[key]
	items := c.items[contentType]
	gen := c.gen[contentType]
	c.mu.RUnlock()
	if ok {
		return cached
	}
	facets := facet.BuildFacetIndex(visible(items, includeDrafts), contentType)
	c.mu.Lock()
	if c.gen[contentType] == gen {
		c.facets[key] = facets
	}
	c.mu.Unlock()
	return facets
}

// Query runs facet derivation, filtering, sorting and paging for one
// listing request.
func (c *Catalog) Query(contentType types.ContentType, req *types.SearchRequest, includeDrafts bool) Result {
	items := c.Items(contentType, includeDrafts)
	matching := filter.FilterItems(items, req.FilterState, contentType)
	sorted := sorting.SortItems(matching, req.SortBy, req.SortOrder, contentType)

	start := min(req.Page*req.PageSize, len(sorted))
	end := min(start+req.PageSize, len(sorted))

	return Result{
		Items:     sorted[start:end],
		Facets:    c.Facets(contentType, includeDrafts),
		TotalHits: len(sorted),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
}
