package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Nominee struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Title      string    `gorm:"not null" json:"title"`
	AnimeName  *string   `json:"anime_name"`
	ImageURL   *string   `json:"image_url"`
	// VoteCount caches public ballots for display. Results never read it.
	VoteCount   int       `gorm:"not null;default:0" json:"vote_count"`
	SubmittedBy *int      `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (n *Nominee) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type NomineeRequest struct {
	Category  string `json:"category" binding:"required"` // category slug
	Title     string `json:"title" binding:"required,max=200"`
	AnimeName string `json:"anime_name" binding:"max=200"`
	ImageURL  string `json:"image_url" binding:"omitempty,url,max=2048"`
}

type UpdateNomineeRequest struct {
	Category  *string `json:"category"`
	Title     *string `json:"title" binding:"omitempty,min=1,max=200"`
	AnimeName *string `json:"anime_name" binding:"omitempty,max=200"`
	ImageURL  *string `json:"image_url" binding:"omitempty,url,max=2048"`
}
