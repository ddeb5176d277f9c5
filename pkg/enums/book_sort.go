package enums

import (
	"fmt"
	"strings"
)

// BookSort selects the ordering of catalog listings.
type BookSort string

const (
	BookSortNewest    BookSort = "newest"
	BookSortPopular   BookSort = "popular"
	BookSortPriceAsc  BookSort = "price_asc"
	BookSortPriceDesc BookSort = "price_desc"
	BookSortRating    BookSort = "rating"
)

var validBookSorts = []BookSort{
	BookSortNewest,
	BookSortPopular,
	BookSortPriceAsc,
	BookSortPriceDesc,
	BookSortRating,
}

// String implements fmt.Stringer.
func (s BookSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookSort.
func (s BookSort) IsValid() bool {
	for _, candidate := range validBookSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBookSort converts raw input into a BookSort. Empty input means newest.
func ParseBookSort(value string) (BookSort, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return BookSortNewest, nil
	}
	for _, candidate := range validBookSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// BookSorts lists every accepted sort value.
func BookSorts() []string {
	out := make([]string, len(validBookSorts))
	for i, s := range validBookSorts {
		out[i] = string(s)
	}
	return out
}
