package awards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// DefaultRecomputeTimeout bounds a results recomputation run.
const DefaultRecomputeTimeout = 30 * time.Second

// resultNamespace seeds deterministic result ids so that recomputing an
// unchanged ballot set rewrites identical rows.
var resultNamespace = uuid.MustParse("6f1c3a8e-2b7d-4f5e-9a61-0c4d2e8b7f13")

// Ballot kinds used for metrics and logs.
const (
	KindPublic = "public"
	KindJury   = "jury"
)

// Caller is the identity and capabilities of whoever invokes the service.
type Caller struct {
	UserID  int
	IsAdmin bool
	IsJury  bool
}

// Authenticated reports whether a user identity is present.
func (c Caller) Authenticated() bool { return c.UserID != 0 }

func (c Caller) requireAdmin() error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if !c.IsAdmin {
		return ErrForbidden
	}
	return nil
}

type CastVoteInput struct {
	CategoryID uuid.UUID
	NomineeID  uuid.UUID
	IsJury     bool
}

// CategorySummary describes one category of a recompute run.
type CategorySummary struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Nominees   int       `json:"nominees"`
	Ballots    int       `json:"ballots"`
	Entries    int       `json:"entries"`
}

type RecomputeReport struct {
	ComputedAt time.Time         `json:"computed_at"`
	Entries    int               `json:"entries"`
	Categories []CategorySummary `json:"categories"`
}

// ResultEntry is a snapshot row joined with nominee display data.
type ResultEntry struct {
	NomineeID   uuid.UUID `json:"nominee_id"`
	Title       string    `json:"title"`
	AnimeName   *string   `json:"anime_name"`
	ImageURL    *string   `json:"image_url"`
	PublicVotes int       `json:"public_votes"`
	JuryVotes   int       `json:"jury_votes"`
	FinalScore  float64   `json:"final_score"`
	Rank        int       `json:"rank"`
}

type CategoryResults struct {
	CategoryID uuid.UUID     `json:"category_id"`
	Name       string        `json:"name"`
	Slug       string        `json:"slug"`
	Entries    []ResultEntry `json:"entries"`
}

type Snapshot struct {
	ComputedAt *time.Time        `json:"computed_at"`
	Categories []CategoryResults `json:"categories"`
}

// Service implements ballot casting, result aggregation and the results
// visibility gate on top of a Store.
type Service struct {
	store   Store
	logger  *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
	weights Weights
	timeout time.Duration
	topN    int
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithWeights(w Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithTimeout bounds Recompute. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	s := &Service{
		store:   store,
		logger:  zap.NewNop(),
		metrics: nopMetrics{},
		tracer:  otel.Tracer("github.com/emilythestrangee/anime-awards/backend/internal/awards"),
		weights: DefaultWeights,
		timeout: DefaultRecomputeTimeout,
		topN:    DefaultTopN,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Weights returns the score weights in use.
func (s *Service) Weights() Weights { return s.weights }

func (s *Service) CategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	return s.store.CategoryBySlug(ctx, slug)
}

// CastVote records a ballot. A second ballot of the same kind in the same
// category fails with ErrDuplicateVote and leaves the store unchanged.
func (s *Service) CastVote(ctx context.Context, caller Caller, in CastVoteInput) (models.Vote, error) {
	kind := KindPublic
	if in.IsJury {
		kind = KindJury
	}

	ctx, span := s.tracer.Start(ctx, "awards.CastVote", trace.WithAttributes(
		attribute.String("ballot.kind", kind),
		attribute.String("category.id", in.CategoryID.String()),
	))
	defer span.End()

	if !caller.Authenticated() {
		s.metrics.ObserveBallot(kind, "unauthorized")
		return models.Vote{}, ErrUnauthorized
	}
	if in.IsJury && !caller.IsJury {
		s.metrics.ObserveBallot(kind, "forbidden")
		return models.Vote{}, ErrForbidden
	}
	if in.CategoryID == uuid.Nil || in.NomineeID == uuid.Nil {
		s.metrics.ObserveBallot(kind, "rejected")
		return models.Vote{}, fmt.Errorf("%w: category and nominee are required", ErrInvalidInput)
	}

	vote := models.Vote{
		UserID:     caller.UserID,
		CategoryID: in.CategoryID,
		NomineeID:  in.NomineeID,
		IsJury:     in.IsJury,
	}
	if err := s.store.InsertVote(ctx, &vote); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateVote):
			s.metrics.ObserveBallot(kind, "duplicate")
			return models.Vote{}, err
		case errors.Is(err, ErrNotFound):
			s.metrics.ObserveBallot(kind, "rejected")
			return models.Vote{}, err
		}
		s.metrics.ObserveBallot(kind, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert vote")
		s.logger.Error("failed to insert vote",
			zap.Error(err),
			zap.Int("user_id", caller.UserID),
			zap.String("category_id", in.CategoryID.String()),
			zap.String("kind", kind),
		)
		return models.Vote{}, fmt.Errorf("cast vote: %w", err)
	}

	s.metrics.ObserveBallot(kind, "accepted")
	s.logger.Info("vote recorded",
		zap.Int("user_id", caller.UserID),
		zap.String("category_id", in.CategoryID.String()),
		zap.String("nominee_id", in.NomineeID.String()),
		zap.String("kind", kind),
	)
	return vote, nil
}

// MyVotes lists the caller's ballots of one kind.
func (s *Service) MyVotes(ctx context.Context, caller Caller, isJury bool) ([]models.Vote, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}
	return s.store.VotesByUser(ctx, caller.UserID, isJury)
}

// Tally counts a single nominee's ballots.
func (s *Service) Tally(ctx context.Context, nomineeID uuid.UUID) (Tally, error) {
	return s.store.TallyNominee(ctx, nomineeID)
}

// Standings computes the full live ranking of a category. Admin only; the
// public only ever sees the published snapshot.
func (s *Service) Standings(ctx context.Context, caller Caller, categoryID uuid.UUID) ([]Standing, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}
	return s.standings(ctx, categoryID)
}

func (s *Service) standings(ctx context.Context, categoryID uuid.UUID) ([]Standing, error) {
	nominees, err := s.store.Nominees(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list nominees: %w", err)
	}
	tallies, err := s.store.TallyCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("tally category: %w", err)
	}

	standings := make([]Standing, 0, len(nominees))
	for _, n := range nominees {
		t := tallies[n.ID]
		standings = append(standings, Standing{
			NomineeID:  n.ID,
			Title:      n.Title,
			CreatedAt:  n.CreatedAt,
			Tally:      t,
			FinalScore: FinalScore(t, s.weights),
		})
	}
	return Rank(standings), nil
}

// Recompute rebuilds the results snapshot from the ballots. Every category
// is ranked first and the snapshot is replaced in a single write, so a
// failure at any point (including the timeout) keeps the previous snapshot.
func (s *Service) Recompute(ctx context.Context, caller Caller) (RecomputeReport, error) {
	if err := caller.requireAdmin(); err != nil {
		return RecomputeReport{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "awards.Recompute")
	defer span.End()

	start := time.Now()
	report, err := s.recompute(ctx)
	if err != nil {
		s.metrics.ObserveRecompute("failure", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "recompute results")
		s.logger.Error("results recompute failed", zap.Error(err), zap.Int("admin_id", caller.UserID))
		return RecomputeReport{}, err
	}

	s.metrics.ObserveRecompute("success", time.Since(start))
	span.SetAttributes(attribute.Int("results.entries", report.Entries))
	s.logger.Info("results recomputed",
		zap.Int("admin_id", caller.UserID),
		zap.Int("categories", len(report.Categories)),
		zap.Int("entries", report.Entries),
	)
	return report, nil
}

func (s *Service) recompute(ctx context.Context) (RecomputeReport, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return RecomputeReport{}, &AggregationError{Stage: "list categories", Err: err}
	}

	report := RecomputeReport{Categories: make([]CategorySummary, 0, len(categories))}
	var results []models.Result
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return RecomputeReport{}, &AggregationError{Stage: "rank", Category: cat.Name, Err: err}
		}

		ranked, err := s.standings(ctx, cat.ID)
		if err != nil {
			return RecomputeReport{}, &AggregationError{Stage: "tally", Category: cat.Name, Err: err}
		}

		summary := CategorySummary{CategoryID: cat.ID, Name: cat.Name, Nominees: len(ranked)}
		for _, st := range ranked {
			summary.Ballots += st.Total()
		}
		for _, st := range TopN(withBallots(ranked), s.topN) {
			results = append(results, models.Result{
				ID:          resultID(cat.ID, st.NomineeID),
				CategoryID:  cat.ID,
				NomineeID:   st.NomineeID,
				PublicVotes: st.PublicVotes,
				JuryVotes:   st.JuryVotes,
				FinalScore:  st.FinalScore,
				Rank:        st.Rank,
			})
			summary.Entries++
		}
		report.Categories = append(report.Categories, summary)
	}

	if err := ctx.Err(); err != nil {
		return RecomputeReport{}, &AggregationError{Stage: "write snapshot", Err: err}
	}
	computedAt := s.now().UTC()
	if err := s.store.ReplaceResults(ctx, results, computedAt); err != nil {
		return RecomputeReport{}, &AggregationError{Stage: "write snapshot", Err: err}
	}

	report.ComputedAt = computedAt
	report.Entries = len(results)
	return report, nil
}

func resultID(categoryID, nomineeID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(resultNamespace, []byte(categoryID.String()+"/"+nomineeID.String()))
}

// ResultsPublic reads the visibility gate. A missing or malformed value
// counts as closed.
func (s *Service) ResultsPublic(ctx context.Context) (bool, error) {
	raw, err := s.store.Setting(ctx, models.SettingResultsPublic)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read results visibility: %w", err)
	}
	public, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("malformed results visibility value", zap.String("value", raw))
		return false, nil
	}
	return public, nil
}

func (s *Service) SetResultsPublic(ctx context.Context, caller Caller, public bool) error {
	if err := caller.requireAdmin(); err != nil {
		return err
	}
	if err := s.store.PutSetting(ctx, models.SettingResultsPublic, strconv.FormatBool(public)); err != nil {
		return fmt.Errorf("write results visibility: %w", err)
	}
	s.logger.Info("results visibility changed", zap.Bool("public", public), zap.Int("admin_id", caller.UserID))
	return nil
}

// PublicResults returns the snapshot only while the visibility gate is
// open. With the gate closed the snapshot is not read at all.
func (s *Service) PublicResults(ctx context.Context) (Snapshot, error) {
	public, err := s.ResultsPublic(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if !public {
		return Snapshot{}, ErrResultsHidden
	}
	return s.snapshot(ctx)
}

// Results returns the snapshot regardless of the gate. Admin only.
func (s *Service) Results(ctx context.Context, caller Caller) (Snapshot, error) {
	if err := caller.requireAdmin(); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx)
}

func (s *Service) snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.store.Results(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read results: %w", err)
	}
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list categories: %w", err)
	}

	// Rows sharing a rank follow the same tie-break as Rank.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if !a.Nominee.CreatedAt.Equal(b.Nominee.CreatedAt) {
			return a.Nominee.CreatedAt.Before(b.Nominee.CreatedAt)
		}
		return a.NomineeID.String() < b.NomineeID.String()
	})

	byCategory := make(map[uuid.UUID][]ResultEntry)
	for _, r := range rows {
		byCategory[r.CategoryID] = append(byCategory[r.CategoryID], ResultEntry{
			NomineeID:   r.NomineeID,
			Title:       r.Nominee.Title,
			AnimeName:   r.Nominee.AnimeName,
			ImageURL:    r.Nominee.ImageURL,
			PublicVotes: r.PublicVotes,
			JuryVotes:   r.JuryVotes,
			FinalScore:  r.FinalScore,
			Rank:        r.Rank,
		})
	}

	snap := Snapshot{Categories: []CategoryResults{}}
	for _, cat := range categories {
		entries, ok := byCategory[cat.ID]
		if !ok {
			continue
		}
		snap.Categories = append(snap.Categories, CategoryResults{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Slug:       cat.Slug,
			Entries:    entries,
		})
	}

	raw, err := s.store.Setting(ctx, models.SettingResultsComputedAt)
	switch {
	case err == nil:
		if ts, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			snap.ComputedAt = &ts
		}
	case !errors.Is(err, ErrNotFound):
		return Snapshot{}, fmt.Errorf("read results timestamp: %w", err)
	}
	return snap, nil
}
