package awards

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// Store is the persistence the awards service relies on. Implementations
// must return ErrNotFound for unresolved references and ErrDuplicateVote
// when the one-ballot-per-(user, category, kind) constraint rejects an insert.
type Store interface {
	// Categories lists categories by display order, then name.
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	// Nominees lists a category's nominees in creation order.
	Nominees(ctx context.Context, categoryID uuid.UUID) ([]models.Nominee, error)

	// InsertVote stores a ballot after checking that the nominee belongs to
	// the ballot's category. Public ballots also bump the nominee's display
	// counter in the same transaction.
	InsertVote(ctx context.Context, vote *models.Vote) error
	VotesByUser(ctx context.Context, userID int, isJury bool) ([]models.Vote, error)

	TallyNominee(ctx context.Context, nomineeID uuid.UUID) (Tally, error)
	// TallyCategory counts ballots per nominee straight from the votes table.
	TallyCategory(ctx context.Context, categoryID uuid.UUID) (map[uuid.UUID]Tally, error)

	// ReplaceResults swaps the whole snapshot in one transaction.
	ReplaceResults(ctx context.Context, results []models.Result, computedAt time.Time) error
	// Results returns the snapshot with each row's Nominee populated.
	Results(ctx context.Context) ([]models.Result, error)

	Setting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Metrics receives outcome counters from the service.
type Metrics interface {
	ObserveBallot(kind, outcome string)
	ObserveRecompute(outcome string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveBallot(string, string)           {}
func (nopMetrics) ObserveRecompute(string, time.Duration) {}
