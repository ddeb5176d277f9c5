// Package locale maps language tags to the display strings the storefront
// renders in API messages and receipts.
package locale

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// QueryParam overrides Accept-Language when present on a request.
const QueryParam = "lang"

// Dictionary is the resolved set of display strings for one language.
type Dictionary struct {
	Tag     language.Tag
	strings map[Key]string
	format  moneyFormat
}

type moneyFormat struct {
	decimalSep    string
	symbolAfter   bool
	thousandsSep  string
	symbolSpacing string
}

var supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var formats = map[language.Tag]moneyFormat{
	language.English: {decimalSep: ".", thousandsSep: ","},
	language.French:  {decimalSep: ",", thousandsSep: " ", symbolAfter: true, symbolSpacing: " "},
	language.Spanish: {decimalSep: ",", thousandsSep: ".", symbolAfter: true, symbolSpacing: " "},
}

// Supported returns the languages with a full dictionary. The first is the default.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Resolve maps a BCP 47 tag to its dictionary. Unknown or malformed tags
// resolve to English.
func Resolve(tag string) Dictionary {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return dictionaryFor(0)
	}
	_, idx, _ := matcher.Match(parsed)
	return dictionaryFor(idx)
}

// FromRequest resolves the dictionary for r, preferring ?lang= over the
// Accept-Language header.
func FromRequest(r *http.Request) Dictionary {
	if r == nil {
		return dictionaryFor(0)
	}
	if q := strings.TrimSpace(r.URL.Query().Get(QueryParam)); q != "" {
		if _, err := language.Parse(q); err == nil {
			return Resolve(q)
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return dictionaryFor(0)
	}
	_, idx, _ := matcher.Match(tags...)
	return dictionaryFor(idx)
}

func dictionaryFor(idx int) Dictionary {
	if idx < 0 || idx >= len(supported) {
		idx = 0
	}
	tag := supported[idx]
	return Dictionary{Tag: tag, strings: catalogs[tag], format: formats[tag]}
}

// Lang returns the base language code, e.g. "fr".
func (d Dictionary) Lang() string {
	base, _ := d.Tag.Base()
	return base.String()
}

// T returns the string for key, falling back to English and then to the key itself.
func (d Dictionary) T(key Key) string {
	if s, ok := d.strings[key]; ok {
		return s
	}
	if s, ok := catalogs[language.English][key]; ok {
		return s
	}
	return string(key)
}

// All returns a copy of every string keyed by its name, for clients that
// render their own UI.
func (d Dictionary) All() map[string]string {
	out := make(map[string]string, len(catalogs[language.English]))
	for k := range catalogs[language.English] {
		out[string(k)] = d.T(k)
	}
	return out
}

// FormatMoney renders amount with two decimals using the language's separators.
func (d Dictionary) FormatMoney(amount decimal.Decimal, symbol string) string {
	f := d.format
	if f.decimalSep == "" {
		f = formats[language.English]
	}
	neg := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	number := groupThousands(whole, f.thousandsSep) + f.decimalSep + frac

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if f.symbolAfter {
		b.WriteString(number)
		b.WriteString(f.symbolSpacing)
		b.WriteString(symbol)
	} else {
		b.WriteString(symbol)
		b.WriteString(number)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
