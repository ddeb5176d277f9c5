package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/ebookshop-backend/pkg/db/models"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists catalog books.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a books repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns one page of books matching the input together with the total
// number of matching rows.
func (r *Repository) List(ctx context.Context, input ListInput) ([]models.Book, int64, error) {
	var total int64
	if err := r.filtered(ctx, input).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := input.Pagination.Normalize()
	var rows []models.Book
	err := r.filtered(ctx, input).
		Order(orderClause(input.Sort)).
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) filtered(ctx context.Context, input ListInput) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Book{})
	if !input.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if category := strings.TrimSpace(input.Filters.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if q := strings.TrimSpace(input.Filters.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

func orderClause(sort enums.BookSort) string {
	switch sort {
	case enums.BookSortPopular:
		return "popularity DESC"
	case enums.BookSortPriceAsc:
		return "price ASC"
	case enums.BookSortPriceDesc:
		return "price DESC"
	case enums.BookSortRating:
		return "rating DESC"
	default:
		return "created_at DESC"
	}
}

// FindByID fetches a single book by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new book row.
func (r *Repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// editableColumns are the columns an admin edit may write. popularity is
// owned by AddPopularity and created_at never changes.
var editableColumns = []string{
	"title", "author", "category", "description", "image", "price",
	"language", "pages", "link", "rating", "is_active", "updated_at",
}

// Update writes the editable columns of an existing book row and returns the
// row as stored, so counters bumped concurrently are reflected.
func (r *Repository) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	err := r.db.WithContext(ctx).
		Model(book).
		Select(editableColumns).
		Updates(book).
		Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, book.ID)
}

// Delete removes a book by ID and reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Categories lists the distinct categories of active books in name order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("is_active = ?", true).
		Distinct().
		Order("category ASC").
		Pluck("category", &names).
		Error
	return names, err
}

// AddPopularity bumps the popularity counter of every listed book in one
// transaction, so a failed order never counts half its lines.
func (r *Repository) AddPopularity(ctx context.Context, units map[uuid.UUID]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, n := range units {
			err := tx.Model(&models.Book{}).
				Where("id = ?", id).
				UpdateColumn("popularity", gorm.Expr("popularity + ?", n)).
				Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
