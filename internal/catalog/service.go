package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/pkg/db/models"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxRating = 5

// Service exposes catalog reads for the shop and CRUD for the admin console.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*BookDTO, error)
	Create(ctx context.Context, input CreateBookInput) (*BookDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
	CartProduct(ctx context.Context, id string) (cart.Product, error)
	RecordSales(ctx context.Context, units map[string]int) error
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Sort == "" {
		input.Sort = enums.BookSortNewest
	}
	if !input.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").
			WithDetails(map[string]any{"sort": input.Sort.String()})
	}

	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}

	books := make([]BookDTO, 0, len(rows))
	for i := range rows {
		books = append(books, NewBookDTO(&rows[i], input.IncludeInactive))
	}
	return &ListResult{Books: books, Pagination: pagination.NewMeta(input.Pagination, total)}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*BookDTO, error) {
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	dto := NewBookDTO(book, includeInactive)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	book := &models.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		Image:       strings.TrimSpace(input.Image),
		Price:       input.Price,
		Language:    normalizeLanguage(input.Language),
		Pages:       input.Pages,
		Link:        strings.TrimSpace(input.Link),
		Rating:      input.Rating,
		IsActive:    true,
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert book")
	}
	dto := NewBookDTO(created, true)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdateToBook(book, input)
	if err := validateBook(book); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
	}
	dto := NewBookDTO(updated, true)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	names, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// CartProduct resolves an active book into the data a cart line copies.
func (s *service) CartProduct(ctx context.Context, id string) (cart.Product, error) {
	bookID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid book id").
			WithDetails(map[string]any{"book_id": id})
	}
	book, err := s.load(ctx, bookID)
	if err != nil {
		return cart.Product{}, err
	}
	if !book.IsActive {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return cart.Product{
		ID:          book.ID.String(),
		Title:       book.Title,
		Category:    book.Category,
		Image:       book.Image,
		Price:       book.Price,
		Author:      book.Author,
		Description: book.Description,
		Language:    book.Language,
		Link:        book.Link,
	}, nil
}

// RecordSales bumps the popularity counter of every sold book. Ids that do
// not parse are skipped.
func (s *service) RecordSales(ctx context.Context, units map[string]int) error {
	parsed := make(map[uuid.UUID]int, len(units))
	for raw, n := range units {
		id, err := uuid.Parse(raw)
		if err != nil || n <= 0 {
			continue
		}
		parsed[id] += n
	}
	if len(parsed) == 0 {
		return nil
	}
	if err := s.repo.AddPopularity(ctx, parsed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record book sales")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

func validateBook(book *models.Book) error {
	var missing []string
	if book.Title == "" {
		missing = append(missing, "title")
	}
	if book.Author == "" {
		missing = append(missing, "author")
	}
	if book.Category == "" {
		missing = append(missing, "category")
	}
	if book.Link == "" {
		missing = append(missing, "link")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"fields": missing})
	}
	if book.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if book.Price.GreaterThan(decimal.New(99999999, -2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price is too large")
	}
	if book.Pages < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pages must not be negative")
	}
	if book.Rating < 0 || book.Rating > maxRating {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	book.Price = book.Price.Round(2)
	return nil
}

func applyUpdateToBook(book *models.Book, input UpdateBookInput) {
	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Category != nil {
		book.Category = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		book.Description = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		book.Image = strings.TrimSpace(*input.Image)
	}
	if input.Price != nil {
		book.Price = *input.Price
	}
	if input.Language != nil {
		book.Language = normalizeLanguage(*input.Language)
	}
	if input.Pages != nil {
		book.Pages = *input.Pages
	}
	if input.Link != nil {
		book.Link = strings.TrimSpace(*input.Link)
	}
	if input.Rating != nil {
		book.Rating = *input.Rating
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}
}

func normalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "en"
	}
	return tag
}
