package receipt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/angelmondragon/ebookshop-backend/internal/locale"
	"github.com/angelmondragon/ebookshop-backend/internal/order"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/go-pdf/fpdf"
)

// ContentType is the media type of every rendered receipt.
const ContentType = "application/pdf"

const (
	pageMargin = 15.0
	rowHeight  = 7.0
)

// column widths in mm; they add up to the printable A4 width.
var columns = []struct {
	key   locale.Key
	width float64
	align string
}{
	{locale.KeyReceiptIndex, 8, "C"},
	{locale.KeyReceiptID, 30, "L"},
	{locale.KeyReceiptItem, 52, "L"},
	{locale.KeyReceiptUnitPrice, 25, "R"},
	{locale.KeyReceiptQuantity, 12, "C"},
	{locale.KeyReceiptLineTotal, 25, "R"},
	{locale.KeyReceiptLink, 28, "L"},
}

// Document is a rendered receipt ready to download.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Option customises the rendered document.
type Option func(*settings)

type settings struct {
	shopName string
	support  string
	compress bool
}

// WithShop prints the shop name in the header and the support contact in
// the footer note.
func WithShop(name, support string) Option {
	return func(s *settings) {
		s.shopName = strings.TrimSpace(name)
		s.support = strings.TrimSpace(support)
	}
}

// Render lays out the order as a single PDF. It has no side effects.
func Render(snap order.Snapshot, dict locale.Dictionary, opts ...Option) (Document, error) {
	cfg := settings{compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return render(snap, dict, cfg)
}

func render(snap order.Snapshot, dict locale.Dictionary, cfg settings) (Document, error) {
	if len(snap.Items) == 0 {
		return Document{}, pkgerrors.New(pkgerrors.CodeValidation, "receipt requires at least one item")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(cfg.compress)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(snap.PlacedAt)
	pdf.SetModificationDate(snap.PlacedAt)
	pdf.SetTitle(dict.T(locale.KeyReceiptTitle)+" "+snap.Reference, true)
	if cfg.shopName != "" {
		pdf.SetAuthor(cfg.shopName, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	if cfg.shopName != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 5, tr(cfg.shopName), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(dict.T(locale.KeyReceiptTitle)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	labelled := func(key locale.Key, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, tr(dict.T(key)), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}
	labelled(locale.KeyReceiptOrder, snap.Reference)
	labelled(locale.KeyReceiptDate, snap.PlacedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr(dict.T(locale.KeyReceiptBuyer)), "", 1, "L", false, 0, "")
	labelled(locale.KeyReceiptName, snap.Buyer.Name)
	labelled(locale.KeyReceiptEmail, snap.Buyer.Email)
	labelled(locale.KeyReceiptPhone, snap.Buyer.Phone)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, tr(dict.T(col.key)), "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	linkLabel := dict.T(locale.KeyReceiptLink)
	for i, item := range snap.Items {
		cells := []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.Title,
			dict.FormatMoney(item.Price, snap.CurrencySymbol),
			strconv.Itoa(item.Quantity),
			dict.FormatMoney(item.LineTotal(), snap.CurrencySymbol),
			linkLabel,
		}
		for c, col := range columns {
			text := tr(cells[c])
			link := ""
			if col.key == locale.KeyReceiptLink {
				link = item.Link
			}
			pdf.CellFormat(col.width, rowHeight, fit(pdf, text, col.width-2), "1", 0, col.align, false, 0, link)
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	var labelWidth float64
	for _, col := range columns[:5] {
		labelWidth += col.width
	}
	pdf.CellFormat(labelWidth, rowHeight+1, tr(dict.T(locale.KeyReceiptTotal)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[5].width, rowHeight+1, tr(dict.FormatMoney(snap.Total, snap.CurrencySymbol)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[6].width, rowHeight+1, snap.Currency, "1", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 5, tr(linkLabel), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for i, item := range snap.Items {
		pdf.MultiCell(0, 4.5, fmt.Sprintf("%d. %s", i+1, tr(item.Link)), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 9)
	note := dict.T(locale.KeyCheckoutPayment)
	if cfg.support != "" {
		note += " " + dict.T(locale.KeyReceiptSupport) + ": " + cfg.support
	}
	pdf.MultiCell(0, 5, tr(note), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt pdf")
	}
	return Document{
		Filename:    Filename(snap),
		ContentType: ContentType,
		Content:     buf.Bytes(),
	}, nil
}

// fit shortens already translated (single byte) text with a trailing
// ellipsis until it fits width.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

// Filename is receipt-<phone digits>.pdf, falling back to the order
// reference when the phone has no digits.
func Filename(snap order.Snapshot) string {
	var b strings.Builder
	for _, r := range snap.Buyer.Phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	id := b.String()
	if id == "" {
		id = strings.ToLower(snap.Reference)
	}
	if id == "" {
		id = "order"
	}
	return "receipt-" + id + ".pdf"
}
