package controllers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ebookshop-backend/api/middleware"
	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/api/validators"
	"github.com/angelmondragon/ebookshop-backend/internal/checkout"
	"github.com/angelmondragon/ebookshop-backend/internal/locale"
	"github.com/angelmondragon/ebookshop-backend/internal/order"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

type confirmationLine struct {
	Index     int             `json:"index"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Link      string          `json:"link"`
}

type confirmationOrder struct {
	Reference string             `json:"reference"`
	PlacedAt  time.Time          `json:"placed_at"`
	Buyer     order.Buyer        `json:"buyer"`
	Items     []confirmationLine `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	Count     int                `json:"count"`
	Currency  string             `json:"currency"`
}

type receiptPayload struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	ContentBase64 string `json:"content_base64"`
}

type checkoutResponse struct {
	Message     string            `json:"message"`
	PaymentNote string            `json:"payment_note"`
	Order       confirmationOrder `json:"order"`
	Receipt     receiptPayload    `json:"receipt"`
}

// Checkout places the visitor's order. With ?format=pdf the receipt is the
// response body; otherwise a JSON confirmation carries it base64 encoded.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var body checkout.BuyerInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dict := locale.FromRequest(r)
		result, err := svc.PlaceOrder(r.Context(), sessionID, body, dict)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
			doc := result.Receipt
			w.Header().Set("Content-Type", doc.ContentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
			w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
			w.Header().Set("X-Order-Reference", result.Order.Reference)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(doc.Content)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Message:     dict.T(locale.KeyCheckoutThanks),
			PaymentNote: dict.T(locale.KeyCheckoutPayment),
			Order:       newConfirmationOrder(result.Order),
			Receipt: receiptPayload{
				Filename:      result.Receipt.Filename,
				ContentType:   result.Receipt.ContentType,
				ContentBase64: base64.StdEncoding.EncodeToString(result.Receipt.Content),
			},
		})
	}
}

func newConfirmationOrder(snap order.Snapshot) confirmationOrder {
	lines := make([]confirmationLine, 0, len(snap.Items))
	for i, item := range snap.Items {
		lines = append(lines, confirmationLine{
			Index:     i + 1,
			ID:        item.ID,
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
			Link:      item.Link,
		})
	}
	return confirmationOrder{
		Reference: snap.Reference,
		PlacedAt:  snap.PlacedAt,
		Buyer:     snap.Buyer,
		Items:     lines,
		Total:     snap.Total,
		Count:     snap.Count(),
		Currency:  snap.Currency,
	}
}
