package server

import (
	"context"
	"net/http"
	"time"

	"github.com/matst80/flow-finder/pkg/cache"
	"github.com/matst80/flow-finder/pkg/catalog"
	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

func (ws *WebServer) ClientHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", ws.Health)
	mux.HandleFunc("GET /api/{kind}", ws.Listing)
	mux.HandleFunc("POST /api/{kind}", ws.Listing)
	mux.HandleFunc("GET /api/{kind}/facets", ws.Facets)
	mux.HandleFunc("GET /api/{kind}/{id}", ws.GetItem)
	mux.HandleFunc("POST /api/flows/watch/{category}", ws.Watch)
	mux.HandleFunc("DELETE /api/flows/watch/{category}", ws.Unwatch)
	mux.HandleFunc("POST /api/contact", ws.Contact)
}

// Listing answers a filtered, sorted and paged listing. GET requests are
// cached by their canonical query.
func (ws *WebServer) Listing(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sr, err := types.GetSearchRequest(r, ws.config.DefaultPageSize, ws.config.MaxPageSize)
	if err != nil {
		ws.writeError(w, r, &types.ValidationError{Problems: []string{err.Error()}})
		return
	}
	go noListings.WithLabelValues(string(contentType)).Inc()

	query := func() (catalog.Result, error) {
		return ws.Catalog.Query(contentType, sr, false), nil
	}
	var result catalog.Result
	hit := false
	if r.Method == http.MethodGet {
		result, hit, err = cache.Fetch(r.Context(), ws.Cache, cache.ListingKey(contentType, "list", r.URL.Query()), query)
	} else {
		result, err = query()
	}
	if err != nil {
		ws.writeError(w, r, err)
		return
	}
	if hit {
		go noCacheHits.Inc()
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	ws.defaultHeaders(w, r, ws.config.CacheSeconds)
	ws.writeJson(w, http.StatusOK, result)
}

func (ws *WebServer) Facets(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	facets, _, err := cache.Fetch(r.Context(), ws.Cache, cache.ListingKey(contentType, "facets", nil), func() (types.FacetConfig, error) {
		return ws.Catalog.Facets(contentType, false), nil
	})
	if err != nil {
		ws.writeError(w, r, err)
		return
	}
	ws.defaultHeaders(w, r, ws.config.CacheSeconds)
	ws.writeJson(w, http.StatusOK, facets)
}

// GetItem finds a published item by id or slug.
func (ws *WebServer) GetItem(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	item, ok := ws.Catalog.Get(contentType, r.PathValue("id"))
	if !ok || !item.Published {
		ws.writeStatus(w, r, http.StatusNotFound, "not found")
		return
	}
	ws.defaultHeaders(w, r, ws.config.CacheSeconds)
	ws.writeJson(w, http.StatusOK, item)
}

type watchRequest struct {
	Token string `json:"token"`
}

func (ws *WebServer) decodeWatch(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req watchRequest
	if err := jsoncompat.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, r, &types.ValidationError{Problems: []string{"body must be {\"token\": \"...\"}"}})
		return "", false
	}
	return req.Token, true
}

func (ws *WebServer) Watch(w http.ResponseWriter, r *http.Request) {
	if ws.Watches == nil {
		ws.writeStatus(w, r, http.StatusServiceUnavailable, "notifications disabled")
		return
	}
	token, ok := ws.decodeWatch(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")
	if err := ws.Watches.Subscribe(r.Context(), category, token); err != nil {
		ws.writeError(w, r, err)
		return
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusCreated, map[string]string{"category": category})
}

func (ws *WebServer) Unwatch(w http.ResponseWriter, r *http.Request) {
	if ws.Watches == nil {
		ws.writeStatus(w, r, http.StatusServiceUnavailable, "notifications disabled")
		return
	}
	token, ok := ws.decodeWatch(w, r)
	if !ok {
		return
	}
	if err := ws.Watches.Unsubscribe(r.Context(), r.PathValue("category"), token); err != nil {
		ws.writeError(w, r, err)
		return
	}
	ws.genericHeaders(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Contact stores a contact request and announces it on the broker.
func (ws *WebServer) Contact(w http.ResponseWriter, r *http.Request) {
	if !ws.contact.Allow(ws.contact.clientAddress(r)) {
		go noContactRequests.WithLabelValues("limited").Inc()
		w.Header().Set("Retry-After", "60")
		ws.writeStatus(w, r, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req types.ContactRequest
	if err := jsoncompat.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, r, &types.ValidationError{Problems: []string{"invalid json body"}})
		return
	}
	if err := ws.Db.SaveContactRequest(r.Context(), &req); err != nil {
		go noContactRequests.WithLabelValues("rejected").Inc()
		ws.writeError(w, r, err)
		return
	}
	go noContactRequests.WithLabelValues("accepted").Inc()
	if err := ws.Publisher.ContactReceived(r.Context(), req); err != nil {
		ws.logger.Warn("publish contact request failed", zap.String("id", req.Id), zap.Error(err))
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusCreated, map[string]string{"id": req.Id})
}

func (ws *WebServer) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := ws.Db.Ping(); err != nil {
		status["status"], status["database"], code = "degraded", err.Error(), http.StatusServiceUnavailable
	}
	if ws.Cache != nil {
		status["cache"] = "ok"
		if err := ws.Cache.Ping(ctx); err != nil {
			status["status"], status["cache"], code = "degraded", err.Error(), http.StatusServiceUnavailable
		}
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, code, status)
}
