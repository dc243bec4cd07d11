package common

import (
	"net/http"
	"slices"
)

// AllowedOrigin returns origin when it may call the api. An empty allow list
// or a "*" entry allows every origin.
func AllowedOrigin(allowed []string, origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if len(allowed) == 0 || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
		return origin, true
	}
	return "", false
}

func RespondToOptions(w http.ResponseWriter, r *http.Request, allowed []string) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if origin, ok := AllowedOrigin(allowed, r.Header.Get("Origin")); ok {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Api-Key")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusNoContent)
}
