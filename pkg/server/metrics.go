package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noListings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowfinder_listings_total",
		Help: "The total number of processed listing requests",
	}, []string{"kind"})
	noCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowfinder_listing_cache_hits_total",
		Help: "The total number of listings served from the cache",
	})
	noContactRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowfinder_contact_requests_total",
		Help: "Contact requests by outcome",
	}, []string{"result"})
	noContentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowfinder_content_writes_total",
		Help: "Admin writes by kind and action",
	}, []string{"kind", "action"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowfinder_http_request_duration_seconds",
		Help:    "Request latency by method and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
