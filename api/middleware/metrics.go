package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
)

// Metrics records request counts and latency keyed by the chi route pattern,
// so /books/{bookId} is one series regardless of the id requested.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			m.Observe(routePattern(r), r.Method, rec.Status(), time.Since(start))
		})
	}
}
