package middleware

import (
	"net/http"
	"runtime/debug"

	"auctionhouse-api/pkg/apierror"

	"go.uber.org/zap"
)

// Recovery recovers from handler panics and returns a generic 500.
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						zap.Any("error", err),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write(apierror.InternalError("").ToJSON())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
