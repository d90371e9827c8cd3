package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// startPostgres runs a throwaway Postgres and returns a migrated service
// using the given driver.
func startPostgres(t *testing.T, driver string) Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("awards"),
		postgres.WithUsername("awards"),
		postgres.WithPassword("awards"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	svc, err := Open(driver, dsn, "awards", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	require.NoError(t, svc.Migrate(ctx))
	return svc
}

type fixture struct {
	store    *Store
	category models.Category
	nominees []models.Nominee
	users    []models.User
}

func newFixture(t *testing.T, svc Service, users int) fixture {
	t.Helper()
	ctx := context.Background()
	store := NewStore(svc.GetDB())

	f := fixture{store: store}
	f.category = models.Category{Name: "Best Shonen", Slug: "best-shonen", DisplayOrder: 1}
	require.NoError(t, store.CreateCategory(ctx, &f.category))

	for _, title := range []string{"A", "B", "C"} {
		n := models.Nominee{CategoryID: f.category.ID, Title: title}
		require.NoError(t, store.CreateNominee(ctx, &n))
		f.nominees = append(f.nominees, n)
		time.Sleep(2 * time.Millisecond)
	}
	for i := 0; i < users; i++ {
		u := models.User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			AuthProvider: "email",
		}
		require.NoError(t, store.CreateUser(ctx, &u))
		f.users = append(f.users, u)
	}
	return f
}

func (f fixture) vote(user models.User, nominee models.Nominee, jury bool) error {
	return f.store.InsertVote(context.Background(), &models.Vote{
		UserID:     user.ID,
		CategoryID: nominee.CategoryID,
		NomineeID:  nominee.ID,
		IsJury:     jury,
	})
}

func TestStoreIntegration(t *testing.T) {
	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			svc := startPostgres(t, driver)
			assert.Equal(t, "up", svc.Health()["status"])

			t.Run("duplicate ballots", func(t *testing.T) { testDuplicateBallots(t, svc) })
			t.Run("recompute", func(t *testing.T) { testRecompute(t, svc) })
			t.Run("nominee edits", func(t *testing.T) { testNomineeEdits(t, svc) })
			t.Run("tied results order", func(t *testing.T) { testTiedResultsOrder(t, svc) })
			t.Run("settings", func(t *testing.T) { testSettings(t, svc) })
			t.Run("users", func(t *testing.T) { testUsers(t, svc) })
		})
	}
}

func resetTables(t *testing.T, svc Service) {
	t.Helper()
	require.NoError(t, svc.GetDB().Exec("TRUNCATE results, votes, nominees, categories, settings, users RESTART IDENTITY CASCADE").Error)
}

func testDuplicateBallots(t *testing.T, svc Service) {
	resetTables(t, svc)
	f := newFixture(t, svc, 2)
	ctx := context.Background()
	voter := f.users[0]

	require.NoError(t, f.vote(voter, f.nominees[0], false))
	assert.ErrorIs(t, f.vote(voter, f.nominees[1], false), awards.ErrDuplicateVote)
	require.NoError(t, f.vote(voter, f.nominees[1], true), "jury ballot is a separate slot")

	stray := models.Vote{UserID: voter.ID, CategoryID: uuid.New(), NomineeID: f.nominees[0].ID}
	assert.ErrorIs(t, f.store.InsertVote(ctx, &stray), awards.ErrNotFound)

	// Concurrent attempts from the same user: exactly one lands.
	racer := f.users[1]
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		dupes    int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := f.vote(racer, f.nominees[i%3], false)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if assert.ErrorIs(t, err, awards.ErrDuplicateVote) {
				dupes++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 9, dupes)

	var ballots int64
	require.NoError(t, svc.GetDB().Model(&models.Vote{}).Where("user_id = ?", racer.ID).Count(&ballots).Error)
	assert.EqualValues(t, 1, ballots)

	nominee, err := f.store.Nominee(ctx, f.nominees[0].ID)
	require.NoError(t, err)
	tally, err := f.store.TallyNominee(ctx, f.nominees[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tally.PublicVotes, nominee.VoteCount, "display counter follows public ballots")

	mine, err := f.store.VotesByUser(ctx, voter.ID, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.nominees[1].ID, mine[0].NomineeID)
}

func testRecompute(t *testing.T, svc Service) {
	resetTables(t, svc)
	f := newFixture(t, svc, 24)
	ctx := context.Background()

	// Public A×10, B×7, C×2; jury A×1, B×3, C×1.
	plan := []struct {
		nominee int
		n       int
		jury    bool
	}{
		{0, 10, false}, {1, 7, false}, {2, 2, false},
		{0, 1, true}, {1, 3, true}, {2, 1, true},
	}
	next := 0
	for _, p := range plan {
		for i := 0; i < p.n; i++ {
			require.NoError(t, f.vote(f.users[next%len(f.users)], f.nominees[p.nominee], p.jury))
			next++
		}
	}

	svcAwards, err := awards.NewService(f.store)
	require.NoError(t, err)
	admin := awards.Caller{UserID: f.users[0].ID, IsAdmin: true}

	_, err = svcAwards.Recompute(ctx, admin)
	require.NoError(t, err)
	first, err := f.store.Results(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	assert.Equal(t, f.nominees[0].ID, first[0].NomineeID)
	assert.InDelta(t, 6.4, first[0].FinalScore, 1e-9)
	assert.Equal(t, "A", first[0].Nominee.Title)
	assert.InDelta(t, 5.4, first[1].FinalScore, 1e-9)
	assert.InDelta(t, 1.6, first[2].FinalScore, 1e-9)

	_, err = svcAwards.Recompute(ctx, admin)
	require.NoError(t, err)
	second, err := f.store.Results(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].FinalScore, second[i].FinalScore)
		assert.Equal(t, first[i].Rank, second[i].Rank)
	}

	computedAt, err := f.store.Setting(ctx, models.SettingResultsComputedAt)
	require.NoError(t, err)
	assert.NotEmpty(t, computedAt)

	// A cancelled write leaves the previous snapshot in place.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = f.store.ReplaceResults(cancelled, nil, time.Now())
	require.Error(t, err)
	kept, err := f.store.Results(ctx)
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	// Deleting a nominee cascades to its ballots and result rows.
	require.NoError(t, f.store.DeleteNominee(ctx, f.nominees[0].ID))
	remaining, err := f.store.Results(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
	tallies, err := f.store.TallyCategory(ctx, f.category.ID)
	require.NoError(t, err)
	assert.NotContains(t, tallies, f.nominees[0].ID)
	assert.Equal(t, awards.Tally{PublicVotes: 7, JuryVotes: 3}, tallies[f.nominees[1].ID])

	require.NoError(t, f.store.DeleteCategory(ctx, f.category.ID))
	var votes int64
	require.NoError(t, svc.GetDB().Model(&models.Vote{}).Count(&votes).Error)
	assert.Zero(t, votes)
	assert.ErrorIs(t, f.store.DeleteCategory(ctx, f.category.ID), awards.ErrNotFound)
}

func testNomineeEdits(t *testing.T, svc Service) {
	resetTables(t, svc)
	f := newFixture(t, svc, 2)
	ctx := context.Background()

	other := models.Category{Name: "Best Romance", Slug: "best-romance", DisplayOrder: 2}
	require.NoError(t, f.store.CreateCategory(ctx, &other))

	// Without ballots a nominee can move freely.
	idle := f.nominees[2]
	idle.CategoryID = other.ID
	require.NoError(t, f.store.UpdateNominee(ctx, &idle))
	moved, err := f.store.Nominee(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.CategoryID)

	for _, u := range f.users {
		require.NoError(t, f.vote(u, f.nominees[0], false))
	}

	voted := f.nominees[0]
	voted.CategoryID = other.ID
	voted.Title = "A (renamed)"
	assert.ErrorIs(t, f.store.UpdateNominee(ctx, &voted), awards.ErrNomineeHasBallots)
	assert.ErrorIs(t, f.store.UpdateNominee(ctx, &voted), awards.ErrConflict)

	kept, err := f.store.Nominee(ctx, voted.ID)
	require.NoError(t, err)
	assert.Equal(t, f.category.ID, kept.CategoryID)
	assert.Equal(t, "A", kept.Title, "a rejected move changes nothing")

	tallies, err := f.store.TallyCategory(ctx, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tallies[voted.ID].PublicVotes)

	renamed := f.nominees[0]
	renamed.Title = "A (renamed)"
	require.NoError(t, f.store.UpdateNominee(ctx, &renamed), "edits within the category are allowed")

	missing := models.Nominee{ID: uuid.New(), CategoryID: f.category.ID, Title: "ghost"}
	assert.ErrorIs(t, f.store.UpdateNominee(ctx, &missing), awards.ErrNotFound)
}

func testTiedResultsOrder(t *testing.T, svc Service) {
	resetTables(t, svc)
	f := newFixture(t, svc, 0)
	ctx := context.Background()

	// Written newest nominee first; reads must follow creation order.
	var rows []models.Result
	for i := len(f.nominees) - 1; i >= 0; i-- {
		n := f.nominees[i]
		rows = append(rows, models.Result{
			ID: uuid.New(), CategoryID: f.category.ID, NomineeID: n.ID,
			PublicVotes: 1, FinalScore: 0.6, Rank: 1,
		})
	}
	require.NoError(t, f.store.ReplaceResults(ctx, rows, time.Now()))

	for i := 0; i < 3; i++ {
		got, err := f.store.Results(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for j, r := range got {
			assert.Equal(t, f.nominees[j].ID, r.NomineeID)
			assert.Equal(t, f.nominees[j].Title, r.Nominee.Title)
		}
	}
}

func testSettings(t *testing.T, svc Service) {
	resetTables(t, svc)
	store := NewStore(svc.GetDB())
	ctx := context.Background()

	_, err := store.Setting(ctx, models.SettingResultsPublic)
	assert.ErrorIs(t, err, awards.ErrNotFound)

	require.NoError(t, store.PutSetting(ctx, models.SettingResultsPublic, "true"))
	require.NoError(t, store.PutSetting(ctx, models.SettingResultsPublic, "false"))
	v, err := store.Setting(ctx, models.SettingResultsPublic)
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	dup := models.Category{Name: "Dup", Slug: "dup"}
	require.NoError(t, store.CreateCategory(ctx, &dup))
	again := models.Category{Name: "Dup", Slug: "dup-2"}
	assert.ErrorIs(t, store.CreateCategory(ctx, &again), awards.ErrConflict)

	orphan := models.Nominee{CategoryID: uuid.New(), Title: "orphan"}
	assert.ErrorIs(t, store.CreateNominee(ctx, &orphan), awards.ErrNotFound)
}

func testUsers(t *testing.T, svc Service) {
	resetTables(t, svc)
	store := NewStore(svc.GetDB())
	ctx := context.Background()

	u := models.User{Username: "nezuko", Email: "nezuko@example.com", AuthProvider: "email"}
	require.NoError(t, store.CreateUser(ctx, &u))
	clash := models.User{Username: "nezuko", Email: "other@example.com"}
	assert.ErrorIs(t, store.CreateUser(ctx, &clash), awards.ErrConflict)

	taken, err := store.UsernameTaken(ctx, "nezuko")
	require.NoError(t, err)
	assert.True(t, taken)

	yes := true
	updated, err := store.SetRoles(ctx, u.ID, nil, &yes)
	require.NoError(t, err)
	assert.True(t, updated.IsJury)
	assert.False(t, updated.IsAdmin)

	_, err = store.SetRoles(ctx, u.ID+1000, &yes, nil)
	assert.ErrorIs(t, err, awards.ErrNotFound)

	byGoogle, err := store.UserByGoogle(ctx, "g-unknown", "nezuko@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byGoogle.ID)
}
