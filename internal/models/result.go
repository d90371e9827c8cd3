package models

import "github.com/google/uuid"

// Result is one row of the published ranking snapshot.
type Result struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index:idx_results_category_rank,priority:1" json:"category_id"`
	NomineeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"nominee_id"`
	PublicVotes int       `gorm:"not null" json:"public_votes"`
	JuryVotes   int       `gorm:"not null" json:"jury_votes"`
	FinalScore  float64   `gorm:"not null" json:"final_score"`
	Rank        int       `gorm:"not null;index:idx_results_category_rank,priority:2" json:"rank"`

	Category Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Nominee  Nominee  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
