package handler

import (
	"net/http"

	"pdl-records/internal/middleware"
	"pdl-records/internal/model"
)

// actorFromRequest builds the audit actor from the authenticated claims
// and the originating address. IP falls back to the "Unknown" placeholder
// when nothing usable is on the request.
func actorFromRequest(r *http.Request) model.Actor {
	actor := model.Actor{IP: middleware.ExtractClientIP(r)}
	if actor.IP == "" {
		actor.IP = model.UnknownIP
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = claims.UserID
	actor.Role = claims.Role

	return actor
}
