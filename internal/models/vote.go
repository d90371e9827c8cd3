package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is a single ballot. A user casts at most one public and one jury
// ballot per category; the unique index enforces it at insert time.
type Vote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     int       `gorm:"not null;uniqueIndex:idx_votes_user_category_kind" json:"user_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_user_category_kind" json:"category_id"`
	NomineeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"nominee_id"`
	IsJury     bool      `gorm:"not null;default:false;uniqueIndex:idx_votes_user_category_kind" json:"is_jury"`
	CreatedAt  time.Time `json:"created_at"`

	User     User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Nominee  Nominee  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type VoteRequest struct {
	NomineeID string `json:"nominee_id" binding:"required,uuid"`
}
