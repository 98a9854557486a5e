package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// probePaths are logged at debug so kubelet probes do not flood the log.
var probePaths = map[string]bool{
	"/api/v1/health": true,
	"/api/v1/ready":  true,
}

// Logger returns a middleware that logs each request with its route pattern,
// request id and, for function routes, the addressed function.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}

			if probePaths[r.URL.Path] {
				logger.Debug("HTTP request", fields...)
				return
			}

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields = append(fields, zap.String("route", pattern))
				}
				if tenant := rctx.URLParam("tenant"); tenant != "" {
					fields = append(fields,
						zap.String("function", tenant+"/"+rctx.URLParam("namespace")+"/"+rctx.URLParam("name")))
				}
			}
			fields = append(fields, zap.Int("bytes", ww.BytesWritten()), zap.String("remote_addr", r.RemoteAddr))

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}
