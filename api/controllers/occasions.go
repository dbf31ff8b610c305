package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/api/validators"
	"github.com/ktrudeau/giftnest-backend/internal/occasions"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
)

type createOccasionPayload struct {
	RecipientID    string `json:"recipient_id" validate:"required,uuid"`
	Kind           string `json:"kind"`
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"required"`
	Recurring      bool   `json:"recurring"`
	BudgetMinCents int    `json:"budget_min_cents"`
	BudgetMaxCents int    `json:"budget_max_cents"`
}

// OccasionCreate registers a dated occasion for a recipient.
func OccasionCreate(svc occasions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createOccasionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(payload.RecipientID, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		date, err := time.Parse(time.RFC3339, payload.Date)
		if err != nil {
			// Date-only input is common from calendar pickers.
			date, err = time.Parse("2006-01-02", payload.Date)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be RFC 3339 or YYYY-MM-DD"))
			return
		}

		occasion, err := svc.Create(ctx, userID, occasions.CreateOccasionInput{
			RecipientID:    recipientID,
			Kind:           enums.OccasionKind(payload.Kind),
			Name:           validators.SanitizeString(payload.Name, 200),
			Date:           date,
			Recurring:      payload.Recurring,
			BudgetMinCents: payload.BudgetMinCents,
			BudgetMaxCents: payload.BudgetMaxCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, occasion)
	}
}

// OccasionList returns a recipient's occasions in date order.
func OccasionList(svc occasions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParseQueryUUID(r, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListByRecipient(ctx, userID, recipientID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// OccasionDetail returns one occasion owned by the user.
func OccasionDetail(svc occasions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		occasionID, err := validators.ParsePathUUID(chi.URLParam(r, "occasionId"), "occasionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		occasion, err := svc.Get(ctx, userID, occasionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, occasion)
	}
}

// OccasionDelete removes an owned occasion.
func OccasionDelete(svc occasions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		occasionID, err := validators.ParsePathUUID(chi.URLParam(r, "occasionId"), "occasionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, occasionID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
