package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aramunz/bazar-backend/api/middleware"
	"github.com/aramunz/bazar-backend/internal/sales"
	"github.com/aramunz/bazar-backend/pkg/enums"
	"github.com/aramunz/bazar-backend/pkg/errors"
)

// actorFromContext rebuilds the acting back-office user from the
// claims the auth middleware stored on the request context.
func actorFromContext(r *http.Request) (sales.Actor, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return sales.Actor{}, errors.New(errors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return sales.Actor{}, errors.Wrap(errors.CodeUnauthorized, err, "invalid user context")
	}

	role, err := enums.ParseMemberRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return sales.Actor{}, errors.Wrap(errors.CodeUnauthorized, err, "invalid role context")
	}

	return sales.Actor{UserID: userID, Role: role}, nil
}
