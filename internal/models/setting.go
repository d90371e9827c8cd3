package models

import "time"

const (
	SettingResultsPublic     = "results_public"
	SettingResultsComputedAt = "results_computed_at"
	SettingRules             = "rules"
)

// Setting is a named site-wide value: the results visibility flag and
// editable content such as the rules text.
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ContentRequest struct {
	Content string `json:"content" binding:"max=20000"`
}

type VisibilityRequest struct {
	ResultsPublic *bool `json:"results_public" binding:"required"`
}
