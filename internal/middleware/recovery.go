package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// Recovery turns a handler panic into a JSON 500 response. An
// http.ErrAbortHandler panic is passed on to the server.
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				route := matchedRoute(r)
				logger.Error("handler panicked",
					zap.Any("panic", recovered),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("route", route.template),
					zap.String("collection", route.collection),
					zap.String("request_id", requestID(r)),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
