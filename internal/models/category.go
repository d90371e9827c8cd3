package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is an award category. Slug is used in URLs and DisplayOrder
// drives tab order and prev/next navigation.
type Category struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	DisplayOrder int       `gorm:"not null;default:0;index" json:"display_order"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	Gradient     string    `json:"gradient"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Nominees []Nominee `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CategoryRequest struct {
	Name         string `json:"name" binding:"required,max=120"`
	Slug         string `json:"slug" binding:"omitempty,max=120"`
	DisplayOrder *int   `json:"display_order"`
	Description  string `json:"description" binding:"max=1000"`
	Icon         string `json:"icon" binding:"max=64"`
	Color        string `json:"color" binding:"max=64"`
	Gradient     string `json:"gradient" binding:"max=128"`
}

// CategoryLink is the compact neighbour reference used for prev/next navigation.
type CategoryLink struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type CategoryPage struct {
	Category Category      `json:"category"`
	Nominees []Nominee     `json:"nominees"`
	Prev     *CategoryLink `json:"prev"`
	Next     *CategoryLink `json:"next"`
}
