package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book is a catalog entry sold as a downloadable file.
type Book struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	Author      string          `gorm:"column:author;not null"`
	Category    string          `gorm:"column:category;not null;index"`
	Description string          `gorm:"column:description;not null;default:''"`
	Image       string          `gorm:"column:image;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Language    string          `gorm:"column:language;not null;default:'en'"`
	Pages       int             `gorm:"column:pages;not null;default:0"`
	Link        string          `gorm:"column:link;not null;default:''"`
	Rating      float64         `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	Popularity  int             `gorm:"column:popularity;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Book) TableName() string { return "books" }

// BeforeCreate assigns the id client side so sqlite and postgres behave alike.
func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
