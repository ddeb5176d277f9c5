package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ebookshop-backend/api/middleware"
	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/api/validators"
	cartsvc "github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/locale"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// Requests cap quantities at 999; the store itself has no ceiling.
type addCartItemRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
	// Quantity defaults to one; zero is treated as one by the store.
	Quantity *int `json:"quantity" validate:"omitempty,gte=0,lte=999"`
}

type updateCartItemRequest struct {
	// Quantity zero removes the line.
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=999"`
}

type cartLineResponse struct {
	cartsvc.Item
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	Items   []cartLineResponse `json:"items"`
	Total   decimal.Decimal    `json:"total"`
	Count   int                `json:"count"`
	Message string             `json:"message,omitempty"`
}

func newCartResponse(snap cartsvc.Snapshot, message string) cartResponse {
	lines := make([]cartLineResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, cartLineResponse{Item: item, LineTotal: item.LineTotal()})
	}
	return cartResponse{Items: lines, Total: snap.Total, Count: snap.Count, Message: message}
}

// CartGet returns the visitor's restored cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error) {
		snap, err := svc.Get(r.Context(), sessionID)
		if err == nil && snap.IsEmpty() {
			return snap, locale.KeyCartEmpty, nil
		}
		return snap, "", err
	})
}

// CartAddItem adds a catalog book to the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error) {
		var body addCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return cartsvc.Snapshot{}, "", err
		}
		quantity := 1
		if body.Quantity != nil {
			quantity = *body.Quantity
		}
		snap, err := svc.Add(r.Context(), sessionID, body.BookID, quantity)
		return snap, locale.KeyCartAdded, err
	})
}

// CartUpdateItem sets the quantity of a line; zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error) {
		bookID, err := validators.ParseUUIDParam(r, "bookId")
		if err != nil {
			return cartsvc.Snapshot{}, "", err
		}
		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return cartsvc.Snapshot{}, "", err
		}
		snap, err := svc.UpdateQuantity(r.Context(), sessionID, bookID.String(), *body.Quantity)
		return snap, locale.KeyCartUpdated, err
	})
}

// CartRemoveItem drops a line. Unknown ids leave the cart unchanged.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error) {
		bookID, err := validators.ParseUUIDParam(r, "bookId")
		if err != nil {
			return cartsvc.Snapshot{}, "", err
		}
		snap, err := svc.Remove(r.Context(), sessionID, bookID.String())
		return snap, locale.KeyCartRemoved, err
	})
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error) {
		snap, err := svc.Clear(r.Context(), sessionID)
		return snap, locale.KeyCartCleared, err
	})
}

type cartAction func(w http.ResponseWriter, r *http.Request, sessionID string) (cartsvc.Snapshot, locale.Key, error)

func cartHandler(svc cartsvc.Service, logg *logger.Logger, action cartAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		snap, key, err := action(w, r, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var message string
		if key != "" {
			message = locale.FromRequest(r).T(key)
		}
		responses.WriteSuccess(w, newCartResponse(snap, message))
	}
}
