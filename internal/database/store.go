package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store is the gorm-backed persistence for ballots, results, the catalog
// of categories and nominees, settings and users.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate maps driver errors onto the awards sentinels. Unique violations
// become onUnique so callers can distinguish ballots from other conflicts.
func translate(err error, onUnique error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return awards.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return onUnique
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return awards.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return onUnique
		case foreignKeyViolation:
			return awards.ErrNotFound
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case uniqueViolation:
			return onUnique
		case foreignKeyViolation:
			return awards.ErrNotFound
		}
	}
	return err
}

func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("display_order asc, name asc").Find(&categories).Error
	return categories, translate(err, awards.ErrConflict)
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&category).Error
	return category, translate(err, awards.ErrConflict)
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error, awards.ErrConflict)
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := s.db.WithContext(ctx).Model(category).
		Select("name", "slug", "display_order", "description", "icon", "color", "gradient", "updated_at").
		Updates(category)
	if res.Error != nil {
		return translate(res.Error, awards.ErrConflict)
	}
	if res.RowsAffected == 0 {
		return awards.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category. Nominees, ballots and result rows
// go with it through ON DELETE CASCADE.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, awards.ErrConflict)
	}
	if res.RowsAffected == 0 {
		return awards.ErrNotFound
	}
	return nil
}

func (s *Store) Nominees(ctx context.Context, categoryID uuid.UUID) ([]models.Nominee, error) {
	var nominees []models.Nominee
	err := s.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at asc, id asc").
		Find(&nominees).Error
	return nominees, translate(err, awards.ErrConflict)
}

func (s *Store) AllNominees(ctx context.Context) ([]models.Nominee, error) {
	var nominees []models.Nominee
	err := s.db.WithContext(ctx).Order("created_at asc, id asc").Find(&nominees).Error
	return nominees, translate(err, awards.ErrConflict)
}

func (s *Store) Nominee(ctx context.Context, id uuid.UUID) (models.Nominee, error) {
	var nominee models.Nominee
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&nominee).Error
	return nominee, translate(err, awards.ErrConflict)
}

func (s *Store) CreateNominee(ctx context.Context, nominee *models.Nominee) error {
	return translate(s.db.WithContext(ctx).Create(nominee).Error, awards.ErrConflict)
}

// UpdateNominee saves the editable fields. A nominee with ballots keeps its
// category: the ballots are tallied under the category they were cast in.
func (s *Store) UpdateNominee(ctx context.Context, nominee *models.Nominee) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Nominee
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "category_id").
			Where("id = ?", nominee.ID).
			Take(&current).Error
		if err != nil {
			return translate(err, awards.ErrConflict)
		}

		if current.CategoryID != nominee.CategoryID {
			var ballots int64
			if err := tx.Model(&models.Vote{}).Where("nominee_id = ?", nominee.ID).Count(&ballots).Error; err != nil {
				return err
			}
			if ballots > 0 {
				return awards.ErrNomineeHasBallots
			}
		}

		err = tx.Model(nominee).
			Select("category_id", "title", "anime_name", "image_url", "updated_at").
			Updates(nominee).Error
		return translate(err, awards.ErrConflict)
	})
}

// DeleteNominee removes a nominee together with its ballots and result rows.
func (s *Store) DeleteNominee(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Nominee{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, awards.ErrConflict)
	}
	if res.RowsAffected == 0 {
		return awards.ErrNotFound
	}
	return nil
}

// InsertVote relies on the unique index alone to reject a second ballot;
// there is no read-then-write check that two requests could race past.
func (s *Store) InsertVote(ctx context.Context, vote *models.Vote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The share lock keeps the nominee in this category until the ballot commits.
		var nominee models.Nominee
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ? AND category_id = ?", vote.NomineeID, vote.CategoryID).
			Take(&nominee).Error
		if err != nil {
			return translate(err, awards.ErrDuplicateVote)
		}

		if err := tx.Omit(clause.Associations).Create(vote).Error; err != nil {
			return translate(err, awards.ErrDuplicateVote)
		}

		if vote.IsJury {
			return nil
		}
		err = tx.Model(&models.Nominee{}).
			Where("id = ?", vote.NomineeID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
		return translate(err, awards.ErrConflict)
	})
}

func (s *Store) VotesByUser(ctx context.Context, userID int, isJury bool) ([]models.Vote, error) {
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_jury = ?", userID, isJury).
		Order("created_at asc").
		Find(&votes).Error
	return votes, translate(err, awards.ErrConflict)
}

type tallyRow struct {
	NomineeID uuid.UUID
	IsJury    bool
	Ballots   int
}

func (s *Store) TallyNominee(ctx context.Context, nomineeID uuid.UUID) (awards.Tally, error) {
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Nominee{}).Where("id = ?", nomineeID).Count(&exists).Error; err != nil {
		return awards.Tally{}, err
	}
	if exists == 0 {
		return awards.Tally{}, awards.ErrNotFound
	}

	var rows []tallyRow
	err := db.Model(&models.Vote{}).
		Select("nominee_id, is_jury, count(*) AS ballots").
		Where("nominee_id = ?", nomineeID).
		Group("nominee_id, is_jury").
		Scan(&rows).Error
	if err != nil {
		return awards.Tally{}, err
	}

	var t awards.Tally
	for _, r := range rows {
		addTally(&t, r)
	}
	return t, nil
}

// TallyCategory counts ballots straight from the votes table; the cached
// nominee vote_count is never consulted.
func (s *Store) TallyCategory(ctx context.Context, categoryID uuid.UUID) (map[uuid.UUID]awards.Tally, error) {
	var rows []tallyRow
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("nominee_id, is_jury, count(*) AS ballots").
		Where("category_id = ?", categoryID).
		Group("nominee_id, is_jury").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tallies := make(map[uuid.UUID]awards.Tally, len(rows))
	for _, r := range rows {
		t := tallies[r.NomineeID]
		addTally(&t, r)
		tallies[r.NomineeID] = t
	}
	return tallies, nil
}

func addTally(t *awards.Tally, r tallyRow) {
	if r.IsJury {
		t.JuryVotes += r.Ballots
	} else {
		t.PublicVotes += r.Ballots
	}
}

// ReplaceResults deletes the previous snapshot and writes the new one in a
// single transaction, so readers never observe a partial snapshot.
func (s *Store) ReplaceResults(ctx context.Context, results []models.Result, computedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Result{}).Error; err != nil {
			return err
		}
		if len(results) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(results, 100).Error; err != nil {
				return err
			}
		}
		return putSetting(tx, models.SettingResultsComputedAt, computedAt.UTC().Format(time.RFC3339Nano))
	})
}

func (s *Store) Results(ctx context.Context) ([]models.Result, error) {
	var results []models.Result
	// Tied nominees share a rank; nominee age then id keep their order stable.
	err := s.db.WithContext(ctx).
		Select("results.*").
		Joins("JOIN nominees ON nominees.id = results.nominee_id").
		Preload("Nominee").
		Order("results.category_id asc, results.rank asc, nominees.created_at asc, nominees.id asc").
		Find(&results).Error
	return results, err
}

func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	if err := s.db.WithContext(ctx).Where("key = ?", key).Take(&setting).Error; err != nil {
		return "", translate(err, awards.ErrConflict)
	}
	return setting.Value, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	return putSetting(s.db.WithContext(ctx), key, value)
}

func putSetting(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

var _ awards.Store = (*Store)(nil)
