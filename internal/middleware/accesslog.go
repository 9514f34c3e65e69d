// internal/middleware/accesslog.go
//
// Structured access log and status-class counter.
//
// One JSON line per request with method, path, status, bytes, duration,
// request id, locale, browser, and country.  The locale field reflects the
// edge middleware's decision, read back from the response header because
// the locale middleware runs further down the chain.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/metrics"
	"github.com/yanizio/pollspace/internal/requestinfo"
)

// AccessLog logs every request through log.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			path := r.URL.Path

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequests.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if loc := ww.Header().Get("x-locale"); loc != "" {
				fields = append(fields, zap.String("locale", loc))
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					zap.String("browser", info.UA.Browser),
					zap.String("country", info.Geo.CountryISO),
					zap.Bool("bot", info.UA.IsBot))
			}
			log.Info("http", fields...)
		})
	}
}
