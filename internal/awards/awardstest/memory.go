// Package awardstest provides an in-memory awards.Store for tests.
package awardstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

type ballotKey struct {
	userID     int
	categoryID uuid.UUID
	isJury     bool
}

// Store keeps categories, nominees, ballots, the results snapshot and
// settings in maps guarded by a single mutex. The Fail* fields inject
// errors into the matching operations.
type Store struct {
	mu sync.Mutex

	categories map[uuid.UUID]models.Category
	nominees   map[uuid.UUID]models.Nominee
	users      map[int]models.User
	nextUserID int
	votes      []models.Vote
	ballots    map[ballotKey]struct{}
	results    []models.Result
	settings   map[string]string

	clock time.Time

	FailReplace  error
	FailTally    error
	FailSettings error

	// ReplaceCalls counts ReplaceResults invocations, successful or not.
	ReplaceCalls int
	// BeforeTally runs before every TallyCategory call, outside the lock.
	BeforeTally func(ctx context.Context)
}

func NewStore() *Store {
	return &Store{
		categories: make(map[uuid.UUID]models.Category),
		nominees:   make(map[uuid.UUID]models.Nominee),
		users:      make(map[int]models.User),
		ballots:    make(map[ballotKey]struct{}),
		settings:   make(map[string]string),
		clock:      time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so creation order is stable.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) AddCategory(name, slug string, order int) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	c := models.Category{
		ID:           uuid.New(),
		Name:         name,
		Slug:         slug,
		DisplayOrder: order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.categories[c.ID] = c
	return c
}

func (s *Store) AddNominee(categoryID uuid.UUID, title string) models.Nominee {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	n := models.Nominee{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.nominees[n.ID] = n
	return n
}

// DeleteNominee removes a nominee along with its ballots and result rows.
func (s *Store) DeleteNominee(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nominees[id]; !ok {
		return awards.ErrNotFound
	}
	s.deleteNomineeLocked(id)
	return nil
}

func (s *Store) deleteNomineeLocked(id uuid.UUID) {
	delete(s.nominees, id)
	kept := s.votes[:0]
	for _, v := range s.votes {
		if v.NomineeID == id {
			delete(s.ballots, ballotKey{v.UserID, v.CategoryID, v.IsJury})
			continue
		}
		kept = append(kept, v)
	}
	s.votes = kept

	results := s.results[:0]
	for _, r := range s.results {
		if r.NomineeID != id {
			results = append(results, r)
		}
	}
	s.results = results
}

// NomineeByID returns the stored nominee, including its display counter.
func (s *Store) NomineeByID(id uuid.UUID) (models.Nominee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nominees[id]
	return n, ok
}

// VoteCount returns the number of stored ballots.
func (s *Store) VoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes)
}

// Snapshot returns a copy of the stored result rows, without nominees.
func (s *Store) Snapshot() []models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Store) Categories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CategoryBySlug(_ context.Context, slug string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return models.Category{}, awards.ErrNotFound
}

func (s *Store) Nominees(_ context.Context, categoryID uuid.UUID) ([]models.Nominee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Nominee
	for _, n := range s.nominees {
		if n.CategoryID == categoryID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertVote(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nominees[vote.NomineeID]
	if !ok || n.CategoryID != vote.CategoryID {
		return awards.ErrNotFound
	}
	key := ballotKey{vote.UserID, vote.CategoryID, vote.IsJury}
	if _, dup := s.ballots[key]; dup {
		return awards.ErrDuplicateVote
	}

	if vote.ID == uuid.Nil {
		vote.ID = uuid.New()
	}
	vote.CreatedAt = s.tick()
	s.ballots[key] = struct{}{}
	s.votes = append(s.votes, *vote)
	if !vote.IsJury {
		n.VoteCount++
		s.nominees[n.ID] = n
	}
	return nil
}

func (s *Store) VotesByUser(_ context.Context, userID int, isJury bool) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Vote
	for _, v := range s.votes {
		if v.UserID == userID && v.IsJury == isJury {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) TallyNominee(_ context.Context, nomineeID uuid.UUID) (awards.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nominees[nomineeID]; !ok {
		return awards.Tally{}, awards.ErrNotFound
	}
	var t awards.Tally
	for _, v := range s.votes {
		if v.NomineeID != nomineeID {
			continue
		}
		if v.IsJury {
			t.JuryVotes++
		} else {
			t.PublicVotes++
		}
	}
	return t, nil
}

func (s *Store) TallyCategory(ctx context.Context, categoryID uuid.UUID) (map[uuid.UUID]awards.Tally, error) {
	if s.BeforeTally != nil {
		s.BeforeTally(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailTally != nil {
		return nil, s.FailTally
	}
	out := make(map[uuid.UUID]awards.Tally)
	for _, v := range s.votes {
		if v.CategoryID != categoryID {
			continue
		}
		t := out[v.NomineeID]
		if v.IsJury {
			t.JuryVotes++
		} else {
			t.PublicVotes++
		}
		out[v.NomineeID] = t
	}
	return out, nil
}

func (s *Store) ReplaceResults(ctx context.Context, results []models.Result, computedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReplaceCalls++
	if s.FailReplace != nil {
		return s.FailReplace
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.results = make([]models.Result, len(results))
	copy(s.results, results)
	s.settings[models.SettingResultsComputedAt] = computedAt.UTC().Format(time.RFC3339Nano)
	return nil
}

func (s *Store) Results(_ context.Context) ([]models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Result, len(s.results))
	for i, r := range s.results {
		r.Nominee = s.nominees[r.NomineeID]
		out[i] = r
	}
	return out, nil
}

func (s *Store) Setting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSettings != nil {
		return "", s.FailSettings
	}
	v, ok := s.settings[key]
	if !ok {
		return "", awards.ErrNotFound
	}
	return v, nil
}

func (s *Store) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSettings != nil {
		return s.FailSettings
	}
	s.settings[key] = value
	return nil
}

var _ awards.Store = (*Store)(nil)
