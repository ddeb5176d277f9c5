package controllers

import (
	"net/http"

	"github.com/angelmondragon/ebookshop-backend/api/middleware"
	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/api/validators"
	"github.com/angelmondragon/ebookshop-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// AdminBooksList lists every book, inactive ones included, with download links.
func AdminBooksList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listBooks(svc, logg, true)
}

// AdminBookGet returns one book regardless of its active flag.
func AdminBookGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return getBook(svc, logg, true)
}

// AdminBookCreate adds a catalog entry.
func AdminBookCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body catalog.CreateBookInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r, logg, "admin.book.created", book.ID.String())
		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

// AdminBookUpdate applies a partial update.
func AdminBookUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body catalog.UpdateBookInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r, logg, "admin.book.updated", id.String())
		responses.WriteSuccess(w, book)
	}
}

// AdminBookDelete removes a book from the catalog. Carts that already hold it
// keep their copied line.
func AdminBookDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logAdminAction(r, logg, "admin.book.deleted", id.String())
		w.WriteHeader(http.StatusNoContent)
	}
}

func logAdminAction(r *http.Request, logg *logger.Logger, event, bookID string) {
	if logg == nil {
		return
	}
	ctx := logg.WithFields(r.Context(), map[string]any{
		"book_id":  bookID,
		"admin_id": middleware.AdminIDFromContext(r.Context()),
	})
	logg.Info(ctx, event)
}
