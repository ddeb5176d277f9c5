package order

import (
	"strings"
	"time"

	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Buyer is the contact captured at checkout. Payment is confirmed through
// this contact outside the system.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Snapshot is the immutable record of a placed order. It lives for one
// checkout request and is never stored.
type Snapshot struct {
	Reference      string          `json:"reference"`
	PlacedAt       time.Time       `json:"placed_at"`
	Buyer          Buyer           `json:"buyer"`
	Items          []cart.Item     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"-"`
}

// NewSnapshot copies the cart contents so later cart mutations cannot reach
// the order.
func NewSnapshot(contents cart.Snapshot, buyer Buyer, currency, symbol string, placedAt time.Time) Snapshot {
	items := make([]cart.Item, len(contents.Items))
	copy(items, contents.Items)
	return Snapshot{
		Reference:      NewReference(placedAt),
		PlacedAt:       placedAt.UTC(),
		Buyer:          buyer,
		Items:          items,
		Total:          contents.Total,
		Currency:       currency,
		CurrencySymbol: symbol,
	}
}

// NewReference builds a human readable order reference such as
// EBK-20261015-1A2B3C4D.
func NewReference(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "EBK-" + at.UTC().Format("20060102") + "-" + suffix
}

// Units returns the number of units per book id.
func (s Snapshot) Units() map[string]int {
	out := make(map[string]int, len(s.Items))
	for _, item := range s.Items {
		out[item.ID] += item.Quantity
	}
	return out
}

// Count is the total number of units in the order.
func (s Snapshot) Count() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}
