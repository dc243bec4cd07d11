package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/matst80/flow-finder/pkg/common"
	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

func (ws *WebServer) defaultHeaders(w http.ResponseWriter, r *http.Request, cacheSeconds int) {
	if cacheSeconds > 0 {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(cacheSeconds)+", stale-while-revalidate="+strconv.Itoa(cacheSeconds*2))
	} else {
		w.Header().Set("Cache-Control", "private, no-store")
	}
	ws.genericHeaders(w, r)
}

func (ws *WebServer) genericHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if origin, ok := common.AllowedOrigin(ws.config.AllowedOrigins, r.Header.Get("Origin")); ok {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Age", "0")
}

func (ws *WebServer) writeJson(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := jsoncompat.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Warn("error encoding response", zap.Error(err))
	}
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// writeError maps storage and validation errors to status codes.
func (ws *WebServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ws.genericHeaders(w, r)
	w.Header().Set("Cache-Control", "private, no-store")
	var validation *types.ValidationError
	switch {
	case errors.As(err, &validation):
		ws.writeJson(w, http.StatusBadRequest, errorResponse{Error: types.ErrValidation.Error(), Problems: validation.Problems})
	case errors.Is(err, storage.ErrNotFound):
		ws.writeJson(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, storage.ErrConflict):
		ws.writeJson(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		ws.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		ws.writeJson(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (ws *WebServer) writeStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	ws.genericHeaders(w, r)
	w.Header().Set("Cache-Control", "private, no-store")
	ws.writeJson(w, status, errorResponse{Error: message})
}

// pathKind reads the {kind} path value.
func pathKind(r *http.Request) (types.ContentType, bool) {
	return types.ParseContentType(r.PathValue("kind"))
}
