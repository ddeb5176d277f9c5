package fulfillment

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/ebookshop-backend/internal/order"
	"github.com/shopspring/decimal"
)

const envelopeVersion = 1

// Envelope is the stable wrapper around every published payload.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlaced is the payload the download team consumes to deliver files
// once payment is confirmed with the buyer.
type OrderPlaced struct {
	Reference string          `json:"reference"`
	PlacedAt  time.Time       `json:"placedAt"`
	Language  string          `json:"language"`
	Buyer     order.Buyer     `json:"buyer"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// OrderLine is one purchased book with its download reference.
type OrderLine struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Link      string          `json:"link"`
}

// NewOrderPlaced converts the snapshot into its event payload.
func NewOrderPlaced(snap order.Snapshot, lang string) OrderPlaced {
	lines := make([]OrderLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, OrderLine{
			BookID:    item.ID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: item.LineTotal(),
			Link:      item.Link,
		})
	}
	return OrderPlaced{
		Reference: snap.Reference,
		PlacedAt:  snap.PlacedAt,
		Language:  lang,
		Buyer:     snap.Buyer,
		Lines:     lines,
		Total:     snap.Total,
		Currency:  snap.Currency,
	}
}
