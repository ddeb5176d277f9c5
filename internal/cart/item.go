package cart

import "github.com/shopspring/decimal"

// Product is the fully resolved catalog data a line is created from.
type Product struct {
	ID          string
	Title       string
	Category    string
	Image       string
	Price       decimal.Decimal
	Author      string
	Description string
	Language    string
	Link        string
}

// Item is one cart line. Descriptive fields are copied from the catalog when
// the line is created and never refreshed.
type Item struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Author      string          `json:"author,omitempty"`
	Description string          `json:"description,omitempty"`
	Language    string          `json:"language,omitempty"`
	Link        string          `json:"link,omitempty"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func itemFromProduct(p Product, quantity int) Item {
	return Item{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.Price,
		Quantity:    quantity,
		Author:      p.Author,
		Description: p.Description,
		Language:    p.Language,
		Link:        p.Link,
	}
}

// Snapshot is an immutable view of a cart at one instant.
type Snapshot struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// IsEmpty reports whether the snapshot has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

func totalOf(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func countOf(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
