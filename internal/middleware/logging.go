package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// probePaths are logged at Debug level.
var probePaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Logging logs one entry per request. The level follows the outcome: server
// errors at Error, client errors at Warn, probes at Debug, the rest at Info.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := matchedRoute(r)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route.template),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID(r)),
			}
			if route.collection != "" {
				fields = append(fields, zap.String("collection", route.collection))
			}
			if route.id != "" {
				fields = append(fields, zap.String("item_id", route.id))
			}

			if ce := logger.Check(requestLevel(r.URL.Path, rec.status), "http request"); ce != nil {
				ce.Write(fields...)
			}
		})
	}
}

func requestLevel(path string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case probePaths[path]:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
