package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // For email/password auth
	Avatar   string `json:"avatar"`

	// OAuth fields
	GoogleID     string `gorm:"index" json:"-"` // Google user ID
	AuthProvider string `json:"auth_provider"`  // "email", "google"

	// Capabilities granted by an admin
	IsAdmin bool `gorm:"not null;default:false" json:"is_admin"`
	IsJury  bool `gorm:"not null;default:false" json:"is_jury"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OAuthRequest struct {
	Token    string `json:"token" binding:"required"` // ID token from frontend
	Username string `json:"username"`                 // Optional, for first-time setup
	Avatar   string `json:"avatar"`
}

type RolesRequest struct {
	IsAdmin *bool `json:"is_admin"`
	IsJury  *bool `json:"is_jury"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}
