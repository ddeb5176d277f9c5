package controllers

import (
	"net/http"

	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/api/validators"
	"github.com/angelmondragon/ebookshop-backend/internal/catalog"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/pagination"
)

const (
	maxCategoryLen = 100
	maxSearchLen   = 200
)

// BooksList serves the public catalog listing.
func BooksList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listBooks(svc, logg, false)
}

// BookGet serves one active book.
func BookGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return getBook(svc, logg, false)
}

// Categories lists the distinct categories of active books.
func Categories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		names, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": names})
	}
}

func listBooks(svc catalog.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := parseListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IncludeInactive = includeInactive

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func getBook(svc catalog.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Get(r.Context(), id, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func parseListInput(r *http.Request) (catalog.ListInput, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return catalog.ListInput{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ListInput{}, err
	}

	sort, err := enums.ParseBookSort(r.URL.Query().Get("sort"))
	if err != nil {
		return catalog.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]any{"field": "sort", "allowed": enums.BookSorts()})
	}

	return catalog.ListInput{
		Filters: catalog.ListFilters{
			Category: validators.ParseQueryString(r, "category", maxCategoryLen),
			Query:    validators.ParseQueryString(r, "q", maxSearchLen),
		},
		Sort:       sort,
		Pagination: pagination.Params{Page: page, Limit: limit},
	}, nil
}
