package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"farmlink/internal/observability/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// ResponseCache is a read-through TTL cache for GET endpoints, keyed by the
// full request URI. Only successful responses are stored; mutating handlers
// call Invalidate to drop stale entries.
type ResponseCache struct {
	c *gocache.Cache
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

func NewResponseCache(defaultTTL time.Duration) *ResponseCache {
	return &ResponseCache{c: gocache.New(defaultTTL, 2*time.Minute)}
}

// Middleware caches GET responses for ttl. Non-GET requests pass through.
func (rc *ResponseCache) Middleware(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := r.URL.RequestURI()
			if v, ok := rc.c.Get(key); ok {
				metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
				cached := v.(cachedResponse)
				w.Header().Set("Content-Type", cached.contentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.status)
				_, _ = w.Write(cached.body)
				return
			}
			metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()

			rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				rc.c.Set(key, cachedResponse{
					status:      rec.status,
					contentType: rec.Header().Get("Content-Type"),
					body:        rec.buf.Bytes(),
				}, ttl)
			}
		})
	}
}

// Invalidate drops every cached entry whose key starts with prefix.
func (rc *ResponseCache) Invalidate(prefix string) {
	for key := range rc.c.Items() {
		if strings.HasPrefix(key, prefix) {
			rc.c.Delete(key)
		}
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.buf.Write(p)
	return r.ResponseWriter.Write(p)
}
