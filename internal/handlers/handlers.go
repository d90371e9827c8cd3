package handlers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// CatalogStore manages categories, nominees and site content.
type CatalogStore interface {
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	Nominees(ctx context.Context, categoryID uuid.UUID) ([]models.Nominee, error)
	AllNominees(ctx context.Context) ([]models.Nominee, error)
	Nominee(ctx context.Context, id uuid.UUID) (models.Nominee, error)
	CreateNominee(ctx context.Context, nominee *models.Nominee) error
	UpdateNominee(ctx context.Context, nominee *models.Nominee) error
	DeleteNominee(ctx context.Context, id uuid.UUID) error

	Setting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id int) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByGoogle(ctx context.Context, googleID, email string) (models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	SetRoles(ctx context.Context, id int, isAdmin, isJury *bool) (models.User, error)
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleUserInfo, error)
}

type Deps struct {
	Awards  *awards.Service
	Catalog CatalogStore
	Users   UserStore
	Tokens  *auth.Tokens
	Google  GoogleVerifier
	Logger  *zap.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Category *CategoryHandler
	Nominee  *NomineeHandler
	Vote     *VoteHandler
	Results  *ResultsHandler
	Content  *ContentHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		Auth:     NewAuthHandler(d.Users, d.Tokens, d.Google, d.Logger),
		Category: NewCategoryHandler(d.Catalog, d.Logger),
		Nominee:  NewNomineeHandler(d.Catalog, d.Logger),
		Vote:     NewVoteHandler(d.Awards, d.Logger),
		Results:  NewResultsHandler(d.Awards, d.Catalog, d.Logger),
		Content:  NewContentHandler(d.Catalog, d.Logger),
		User:     NewUserHandler(d.Users, d.Logger),
	}
}
