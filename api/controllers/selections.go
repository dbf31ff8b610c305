package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/api/validators"
	"github.com/ktrudeau/giftnest-backend/internal/selection"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
)

type selectPayload struct {
	RecipientID string          `json:"recipient_id" validate:"required,uuid"`
	OccasionID  string          `json:"occasion_id" validate:"required,uuid"`
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	PurchaseURL string          `json:"purchase_url"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type unselectPayload struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	OccasionID  string `json:"occasion_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
}

type syncPayload struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	OccasionID  string `json:"occasion_id" validate:"required,uuid"`
}

type selectionViewResponse struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	PurchaseURL string          `json:"purchase_url,omitempty"`
	Origin      string          `json:"origin"`
	LocalID     uuid.UUID       `json:"local_id"`
	RemoteID    *uuid.UUID      `json:"remote_id,omitempty"`
	SelectedAt  time.Time       `json:"selected_at"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type selectOutcomeResponse struct {
	AlreadySelected bool       `json:"already_selected"`
	LocalOK         bool       `json:"local_ok"`
	RemoteOK        bool       `json:"remote_ok"`
	OrderOK         bool       `json:"order_ok"`
	OrderFallback   bool       `json:"order_fallback"`
	RemoteError     string     `json:"remote_error,omitempty"`
	OrderError      string     `json:"order_error,omitempty"`
	LocalID         *uuid.UUID `json:"local_id,omitempty"`
	RemoteID        *uuid.UUID `json:"remote_id,omitempty"`
	OrderID         *uuid.UUID `json:"order_id,omitempty"`
}

type syncResultResponse struct {
	Skipped  bool `json:"skipped"`
	Uploaded int  `json:"uploaded"`
	Failed   int  `json:"failed"`
}

func viewResponse(view selection.SelectionView) selectionViewResponse {
	return selectionViewResponse{
		Name:        view.Name,
		Price:       view.Price,
		Description: view.Description,
		Category:    view.Category,
		ImageURL:    view.ImageURL,
		PurchaseURL: view.PurchaseURL,
		Origin:      view.Origin.String(),
		LocalID:     view.LocalID,
		RemoteID:    view.RemoteID,
		SelectedAt:  view.SelectedAt,
		Metadata:    view.Metadata,
	}
}

func outcomeResponse(outcome selection.Outcome) selectOutcomeResponse {
	resp := selectOutcomeResponse{
		AlreadySelected: outcome.AlreadySelected,
		LocalOK:         outcome.LocalOK,
		RemoteOK:        outcome.RemoteOK,
		OrderOK:         outcome.OrderOK,
		OrderFallback:   outcome.OrderFallback,
		RemoteID:        outcome.RemoteID,
		OrderID:         outcome.OrderID,
	}
	if outcome.LocalID != uuid.Nil {
		id := outcome.LocalID
		resp.LocalID = &id
	}
	if outcome.RemoteErr != nil {
		resp.RemoteError = outcome.RemoteErr.Error()
	}
	if outcome.OrderErr != nil {
		resp.OrderError = outcome.OrderErr.Error()
	}
	return resp
}

// SelectionList returns the unified selected-gift view for a pair.
func SelectionList(mgr *selection.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParseQueryUUID(r, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		occasionID, err := validators.ParseQueryUUID(r, "occasion_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, err := mgr.Engine(ctx, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := engine.UnifiedSelections(ctx, actor, recipientID, occasionID)
		out := make([]selectionViewResponse, 0, len(views))
		for _, view := range views {
			out = append(out, viewResponse(view))
		}
		responses.WriteSuccess(w, out)
	}
}

// SelectionSelect runs the local-first selection pipeline for a candidate.
// Partial success is a 200 with the per-step flags in the body.
func SelectionSelect(mgr *selection.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload selectPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(payload.RecipientID, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		occasionID, err := validators.ParsePathUUID(payload.OccasionID, "occasion_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, err := mgr.Engine(ctx, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		outcome, err := engine.Select(ctx, actor, selection.SelectInput{
			RecipientID: recipientID,
			OccasionID:  occasionID,
			Name:        payload.Name,
			Price:       payload.Price,
			Description: payload.Description,
			Category:    payload.Category,
			ImageURL:    payload.ImageURL,
			PurchaseURL: payload.PurchaseURL,
			Metadata:    payload.Metadata,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusOK
		if !outcome.AlreadySelected {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, outcomeResponse(outcome))
	}
}

// SelectionUnselect removes a gift by name from both stores.
func SelectionUnselect(mgr *selection.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload unselectPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(payload.RecipientID, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		occasionID, err := validators.ParsePathUUID(payload.OccasionID, "occasion_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, err := mgr.Engine(ctx, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := engine.Unselect(ctx, actor, recipientID, occasionID, payload.Name); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "unselected"})
	}
}

// SelectionSync uploads local-only records to the authoritative store.
func SelectionSync(mgr *selection.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload syncPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParsePathUUID(payload.RecipientID, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		occasionID, err := validators.ParsePathUUID(payload.OccasionID, "occasion_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, err := mgr.Engine(ctx, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, syncErr := engine.Sync(ctx, actor, recipientID, occasionID)
		if syncErr != nil && result.Uploaded == 0 && !result.Skipped && result.Failed == 0 {
			// Nothing moved at all, surface the failure.
			responses.WriteError(ctx, logg, w, syncErr)
			return
		}

		responses.WriteSuccess(w, syncResultResponse{
			Skipped:  result.Skipped,
			Uploaded: result.Uploaded,
			Failed:   result.Failed,
		})
	}
}
