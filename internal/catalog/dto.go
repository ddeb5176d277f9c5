package catalog

import (
	"time"

	"github.com/angelmondragon/ebookshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookDTO represents the book payload returned to clients.
type BookDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Language    string          `json:"language"`
	Pages       int             `json:"pages"`
	Rating      float64         `json:"rating"`
	Popularity  int             `json:"popularity"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	// Link is the download reference and only leaves the service on admin
	// reads and inside a placed order.
	Link string `json:"link,omitempty"`
}

// NewBookDTO builds a DTO from the persisted model. The download link is
// left out unless withLink is set.
func NewBookDTO(book *models.Book, withLink bool) BookDTO {
	dto := BookDTO{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Category:    book.Category,
		Description: book.Description,
		Image:       book.Image,
		Price:       book.Price,
		Language:    book.Language,
		Pages:       book.Pages,
		Rating:      book.Rating,
		Popularity:  book.Popularity,
		IsActive:    book.IsActive,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
	if withLink {
		dto.Link = book.Link
	}
	return dto
}

// CreateBookInput is the admin payload for a new catalog entry.
type CreateBookInput struct {
	Title       string          `json:"title" validate:"required,max=300"`
	Author      string          `json:"author" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=10000"`
	Image       string          `json:"image" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price"`
	Language    string          `json:"language" validate:"omitempty,bcp47_language_tag"`
	Pages       int             `json:"pages" validate:"gte=0"`
	Link        string          `json:"link" validate:"required,url"`
	Rating      float64         `json:"rating" validate:"gte=0,lte=5"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// UpdateBookInput carries a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=300"`
	Author      *string          `json:"author,omitempty" validate:"omitempty,max=200"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=10000"`
	Image       *string          `json:"image,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Language    *string          `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	Pages       *int             `json:"pages,omitempty" validate:"omitempty,gte=0"`
	Link        *string          `json:"link,omitempty" validate:"omitempty,url"`
	Rating      *float64         `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	IsActive    *bool            `json:"is_active,omitempty"`
}
