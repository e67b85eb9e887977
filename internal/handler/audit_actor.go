package handler

import (
	"net/http"

	"go-movie-catalog/internal/middleware"
	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = claims.UserID
	actor.Username = claims.Username
	actor.Role = claims.Role

	return actor
}

// requireClaims returns the authenticated caller. Routes behind RequireAuth
// always have claims; the check guards against a missing middleware.
func requireClaims(w http.ResponseWriter, r *http.Request) (*model.AuthClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return nil, false
	}
	return claims, true
}
