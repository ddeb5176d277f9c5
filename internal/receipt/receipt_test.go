package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/locale"
	"github.com/angelmondragon/ebookshop-backend/internal/order"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() order.Snapshot {
	return order.Snapshot{
		Reference: "EBK-20261015-ABCDEF12",
		PlacedAt:  time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		Buyer:     order.Buyer{Name: "Ana Souza", Email: "ana@example.com", Phone: "+1 (555) 010-0199"},
		Items: []cart.Item{
			{
				ID:       "6f1d7a2e-0c1b-4d5e-9a61-3b1f2d4c5e01",
				Title:    "The Pragmatic Reader",
				Price:    decimal.RequireFromString("19.99"),
				Quantity: 2,
				Link:     "https://files.example.com/pragmatic-reader.pdf",
			},
			{
				ID:       "6f1d7a2e-0c1b-4d5e-9a61-3b1f2d4c5e03",
				Title:    "A title long enough that it has to be shortened to fit in its column",
				Price:    decimal.RequireFromString("12"),
				Quantity: 1,
				Link:     "https://files.example.com/cocina-sencilla.pdf",
			},
		},
		Total:          decimal.RequireFromString("51.98"),
		Currency:       "USD",
		CurrencySymbol: "$",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	doc, err := Render(sampleSnapshot(), locale.Resolve("en"), WithShop("E-Book Shop", "support@example.com"))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")), "expected a PDF header")
	assert.Equal(t, ContentType, doc.ContentType)
	assert.Equal(t, "receipt-15550100199.pdf", doc.Filename)
}

func TestRenderWritesOrderContents(t *testing.T) {
	doc, err := render(sampleSnapshot(), locale.Resolve("en"), settings{shopName: "E-Book Shop"})
	require.NoError(t, err)

	for _, want := range []string{
		"Ana Souza",
		"ana@example.com",
		"EBK-20261015-ABCDEF12",
		"The Pragmatic Reader",
		"$39.98",
		"$51.98",
		"https://files.example.com/pragmatic-reader.pdf",
		"Purchase receipt",
	} {
		assert.True(t, bytes.Contains(doc.Content, []byte(want)), "receipt missing %q", want)
	}
	assert.False(t, bytes.Contains(doc.Content, []byte("shortened to fit in its column")), "long titles are truncated")
}

func TestRenderUsesDictionaryLabels(t *testing.T) {
	doc, err := render(sampleSnapshot(), locale.Resolve("fr"), settings{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc.Content, []byte("Commande")))
	assert.True(t, bytes.Contains(doc.Content, []byte("51,98")))
}

func TestRenderRejectsEmptyOrder(t *testing.T) {
	snap := sampleSnapshot()
	snap.Items = nil
	_, err := Render(snap, locale.Resolve("en"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFilename(t *testing.T) {
	cases := []struct {
		phone string
		ref   string
		want  string
	}{
		{"+34 600-123-456", "EBK-1", "receipt-34600123456.pdf"},
		{"../../etc/passwd", "EBK-20261015-ABC", "receipt-ebk-20261015-abc.pdf"},
		{"", "", "receipt-order.pdf"},
	}
	for _, tc := range cases {
		snap := order.Snapshot{Reference: tc.ref, Buyer: order.Buyer{Phone: tc.phone}}
		assert.Equal(t, tc.want, Filename(snap), tc.phone)
	}
}
