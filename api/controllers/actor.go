package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/api/middleware"
	"github.com/ktrudeau/giftnest-backend/internal/selection"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
)

// actorID extracts the authenticated user's UUID from the request context.
func actorID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorFromContext rebuilds the payer identity snapshot from token claims.
func actorFromContext(ctx context.Context) (selection.Actor, error) {
	id, err := actorID(ctx)
	if err != nil {
		return selection.Actor{}, err
	}
	return selection.Actor{
		UserID:      id,
		Email:       middleware.EmailFromContext(ctx),
		DisplayName: middleware.DisplayNameFromContext(ctx),
	}, nil
}
