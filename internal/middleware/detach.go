package middleware

import (
	"context"
	"net/http"
)

// Detach strips cancellation from the request context. A store call that has
// started runs to completion even when the client goes away; deadlines set
// further in must be applied explicitly.
func Detach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithoutCancel(r.Context())))
	})
}
