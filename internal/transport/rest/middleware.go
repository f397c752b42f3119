package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kazuke353/Magnus-sub000/utils"
)

const requestIDHeader = "X-Request-ID"

// RequestID injects a request ID into the context, reusing the caller's
// header when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rqID := r.Header.Get(requestIDHeader)
		if rqID == "" {
			rqID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, rqID)

		ctx := utils.CtxWithRqID(r.Context(), rqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
