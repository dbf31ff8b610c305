package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/api/validators"
	"github.com/ktrudeau/giftnest-backend/internal/recipients"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

type createRecipientPayload struct {
	Name         string         `json:"name" validate:"required"`
	Relationship string         `json:"relationship"`
	Interests    []string       `json:"interests"`
	Address      *types.Address `json:"address,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
}

type updateRecipientPayload struct {
	Name         *string        `json:"name,omitempty"`
	Relationship *string        `json:"relationship,omitempty"`
	Interests    []string       `json:"interests,omitempty"`
	Address      *types.Address `json:"address,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
}

// RecipientCreate adds a gift recipient for the authenticated user.
func RecipientCreate(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createRecipientPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipient, err := svc.Create(ctx, userID, recipients.CreateRecipientInput{
			Name:         validators.SanitizeString(payload.Name, 200),
			Relationship: validators.SanitizeString(payload.Relationship, 100),
			Interests:    payload.Interests,
			Address:      payload.Address,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, recipient)
	}
}

// RecipientList returns the user's recipients ordered by name.
func RecipientList(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// RecipientDetail returns one recipient owned by the user.
func RecipientDetail(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(chi.URLParam(r, "recipientId"), "recipientId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipient, err := svc.Get(ctx, userID, recipientID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, recipient)
	}
}

// RecipientUpdate applies a partial update to an owned recipient.
func RecipientUpdate(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(chi.URLParam(r, "recipientId"), "recipientId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateRecipientPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipient, err := svc.Update(ctx, userID, recipientID, recipients.UpdateRecipientInput{
			Name:         payload.Name,
			Relationship: payload.Relationship,
			Interests:    payload.Interests,
			Address:      payload.Address,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, recipient)
	}
}

// RecipientDelete removes an owned recipient.
func RecipientDelete(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(chi.URLParam(r, "recipientId"), "recipientId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, recipientID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
