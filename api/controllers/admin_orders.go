package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/api/validators"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/pagination"
)

type adminOrderPageResponse struct {
	Orders     []models.GiftOrder `json:"orders"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// AdminOrderList returns one page of orders for the fulfillment
// dashboard. The pending filter is the default working set.
func AdminOrderList(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page := pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}

		var (
			list []models.GiftOrder
			next string
		)
		if r.URL.Query().Get("scope") == "all" {
			list, next, err = svc.ListAll(ctx, page)
		} else {
			list, next, err = svc.ListPending(ctx, page)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, adminOrderPageResponse{Orders: list, NextCursor: next})
	}
}

// AdminOrderTransition advances an order through the fulfillment states.
func AdminOrderTransition(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var transition func() error
		switch chi.URLParam(r, "action") {
		case "fulfill":
			transition = func() error { return svc.MarkFulfilled(ctx, orderID) }
		case "ship":
			transition = func() error { return svc.MarkShipped(ctx, orderID) }
		case "bill":
			transition = func() error { return svc.MarkBilled(ctx, orderID) }
		case "cancel":
			transition = func() error { return svc.Cancel(ctx, orderID) }
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "action must be one of fulfill, ship, bill, cancel"))
			return
		}

		if err := transition(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
