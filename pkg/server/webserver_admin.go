package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/messaging"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

func (ws *WebServer) AdminHandlers(mux *http.ServeMux) {
	writers := []types.Role{types.RoleAdmin, types.RoleEditor, types.RoleApi}
	owners := []types.Role{types.RoleAdmin, types.RoleApi}

	mux.HandleFunc("GET /admin/me", ws.requireRole(ws.Me))
	mux.HandleFunc("GET /admin/content/{kind}", ws.requireRole(ws.AdminListing, writers...))
	mux.HandleFunc("GET /admin/content/{kind}/{id}", ws.requireRole(ws.AdminGetItem, writers...))
	mux.HandleFunc("PUT /admin/content/{kind}/{id}", ws.requireRole(ws.SaveItem, writers...))
	mux.HandleFunc("DELETE /admin/content/{kind}/{id}", ws.requireRole(ws.DeleteItem, owners...))
	mux.HandleFunc("POST /admin/reload", ws.requireRole(ws.ReloadAll, owners...))
	mux.HandleFunc("GET /admin/contact", ws.requireRole(ws.ListContactRequests, types.RoleAdmin))
}

func (ws *WebServer) Me(w http.ResponseWriter, r *http.Request) {
	profile, _ := ProfileFromContext(r.Context())
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, profile)
}

// AdminListing works like the public listing but includes drafts and is
// never cached.
func (ws *WebServer) AdminListing(w http.ResponseWriter, r *http.Request) {
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
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, ws.Catalog.Query(contentType, sr, true))
}

func (ws *WebServer) AdminGetItem(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	item, err := ws.Db.GetContent(r.Context(), contentType, r.PathValue("id"))
	if err != nil {
		ws.writeError(w, r, err)
		return
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, item)
}

type saveResponse struct {
	Item     types.ContentItem `json:"item"`
	Warnings []string          `json:"warnings,omitempty"`
}

// SaveItem upserts the item in the body. The id "new" creates an item.
// Watchers are notified the first time a flow is saved as published.
func (ws *WebServer) SaveItem(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var item types.ContentItem
	if err := jsoncompat.NewDecoder(r.Body).Decode(&item); err != nil {
		ws.writeError(w, r, &types.ValidationError{Problems: []string{"invalid json body"}})
		return
	}
	if item.Kind() != contentType {
		ws.writeError(w, r, &types.ValidationError{Problems: []string{"flows need flow details and posts must not have them"}})
		return
	}
	item.Id = r.PathValue("id")
	if item.Id == "new" {
		item.Id = ""
	}

	wasPublished := false
	previousKind := contentType
	if item.Id != "" {
		for _, kind := range contentTypes {
			if existing, err := ws.Db.GetContent(r.Context(), kind, item.Id); err == nil {
				wasPublished = existing.Published && kind == types.ContentTypeFlows
				previousKind = kind
				item.CreatedAt = existing.CreatedAt
				break
			} else if !errors.Is(err, storage.ErrNotFound) {
				ws.writeError(w, r, err)
				return
			}
		}
	}

	warnings, err := ws.Db.SaveContent(r.Context(), &item)
	if err != nil {
		ws.writeError(w, r, err)
		return
	}
	go noContentWrites.WithLabelValues(string(contentType), "upsert").Inc()
	ws.Catalog.Upsert(item)
	ws.invalidate(r.Context(), contentType)
	if previousKind != contentType {
		ws.invalidate(r.Context(), previousKind)
	}
	ws.publishChange(r.Context(), contentType, item.Id, messaging.ActionUpsert)

	if item.Published && contentType == types.ContentTypeFlows && !wasPublished {
		ws.notifications.Add(item)
	}
	profile, _ := ProfileFromContext(r.Context())
	ws.logger.Info("content saved",
		zap.String("id", item.Id),
		zap.String("kind", string(contentType)),
		zap.String("by", profile.UserId))

	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, saveResponse{Item: item, Warnings: warnings})
}

func (ws *WebServer) DeleteItem(w http.ResponseWriter, r *http.Request) {
	contentType, ok := pathKind(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	if err := ws.Db.DeleteContent(r.Context(), contentType, id); err != nil {
		ws.writeError(w, r, err)
		return
	}
	go noContentWrites.WithLabelValues(string(contentType), "delete").Inc()
	ws.Catalog.Delete(contentType, id)
	ws.invalidate(r.Context(), contentType)
	ws.publishChange(r.Context(), contentType, id, messaging.ActionDelete)
	ws.genericHeaders(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// ReloadAll reloads the catalog from storage and tells the other instances
// to do the same.
func (ws *WebServer) ReloadAll(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int, len(contentTypes))
	for _, contentType := range contentTypes {
		if err := ws.Reload(r.Context(), contentType); err != nil {
			ws.writeError(w, r, err)
			return
		}
		counts[string(contentType)] = ws.Catalog.Count(contentType)
		ws.publishChange(r.Context(), contentType, "", messaging.ActionReload)
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, counts)
}

func (ws *WebServer) ListContactRequests(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, 500)
		}
	}
	requests, err := ws.Db.ContactRequests(r.Context(), limit)
	if err != nil {
		ws.writeError(w, r, err)
		return
	}
	ws.defaultHeaders(w, r, 0)
	ws.writeJson(w, http.StatusOK, requests)
}
