package enums

import "testing"

func TestParseBookSort(t *testing.T) {
	cases := map[string]BookSort{
		"":           BookSortNewest,
		"popular":    BookSortPopular,
		" PRICE_ASC": BookSortPriceAsc,
		"price_desc": BookSortPriceDesc,
		"rating":     BookSortRating,
	}
	for raw, want := range cases {
		got, err := ParseBookSort(raw)
		if err != nil {
			t.Fatalf("ParseBookSort(%q) unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseBookSort(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseBookSort("cheapest"); err == nil {
		t.Fatal("expected unknown sort to fail")
	}
}

func TestParseAdminRole(t *testing.T) {
	role, err := ParseAdminRole("admin")
	if err != nil || role != AdminRoleAdmin {
		t.Fatalf("unexpected result %q %v", role, err)
	}
	if _, err := ParseAdminRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if AdminRole("root").IsValid() {
		t.Fatal("root must not be a valid role")
	}
}

func TestCartOperationIsValid(t *testing.T) {
	for _, op := range []CartOperation{CartOperationAdd, CartOperationUpdate, CartOperationRemove, CartOperationClear} {
		if !op.IsValid() {
			t.Fatalf("expected %q to be valid", op)
		}
	}
	if CartOperation("merge").IsValid() {
		t.Fatal("merge must not be valid")
	}
}
