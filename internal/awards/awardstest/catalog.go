package awardstest

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

func (s *Store) CreateCategory(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name || c.Slug == category.Slug {
			return awards.ErrConflict
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := s.tick()
	category.CreatedAt, category.UpdatedAt = now, now
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.categories[category.ID]
	if !ok {
		return awards.ErrNotFound
	}
	for id, c := range s.categories {
		if id != category.ID && (c.Name == category.Name || c.Slug == category.Slug) {
			return awards.ErrConflict
		}
	}
	category.CreatedAt = current.CreatedAt
	category.UpdatedAt = s.tick()
	s.categories[category.ID] = *category
	return nil
}

// DeleteCategory removes the category with its nominees, ballots and results.
func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return awards.ErrNotFound
	}
	for nid, n := range s.nominees {
		if n.CategoryID == id {
			s.deleteNomineeLocked(nid)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) AllNominees(_ context.Context) ([]models.Nominee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Nominee, 0, len(s.nominees))
	for _, n := range s.nominees {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Nominee(_ context.Context, id uuid.UUID) (models.Nominee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nominees[id]
	if !ok {
		return models.Nominee{}, awards.ErrNotFound
	}
	return n, nil
}

func (s *Store) CreateNominee(_ context.Context, nominee *models.Nominee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[nominee.CategoryID]; !ok {
		return awards.ErrNotFound
	}
	if nominee.ID == uuid.Nil {
		nominee.ID = uuid.New()
	}
	now := s.tick()
	nominee.CreatedAt, nominee.UpdatedAt = now, now
	s.nominees[nominee.ID] = *nominee
	return nil
}

func (s *Store) UpdateNominee(_ context.Context, nominee *models.Nominee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.nominees[nominee.ID]
	if !ok {
		return awards.ErrNotFound
	}
	if _, ok := s.categories[nominee.CategoryID]; !ok {
		return awards.ErrNotFound
	}
	if current.CategoryID != nominee.CategoryID {
		for _, v := range s.votes {
			if v.NomineeID == nominee.ID {
				return awards.ErrNomineeHasBallots
			}
		}
	}
	current.CategoryID = nominee.CategoryID
	current.Title = nominee.Title
	current.AnimeName = nominee.AnimeName
	current.ImageURL = nominee.ImageURL
	current.UpdatedAt = s.tick()
	s.nominees[nominee.ID] = current
	*nominee = current
	return nil
}

// AddUser stores a user directly, assigning the next id.
func (s *Store) AddUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = user
	return user
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return awards.ErrConflict
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	now := s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return awards.ErrNotFound
	}
	user.UpdatedAt = s.tick()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UserByID(_ context.Context, id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, awards.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, awards.ErrNotFound
}

func (s *Store) UserByGoogle(_ context.Context, googleID, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var byEmail *models.User
	for _, u := range s.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			return u, nil
		}
		if u.Email == email {
			u := u
			byEmail = &u
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return models.User{}, awards.ErrNotFound
}

func (s *Store) UsernameTaken(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SetRoles(_ context.Context, id int, isAdmin, isJury *bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, awards.ErrNotFound
	}
	if isAdmin != nil {
		u.IsAdmin = *isAdmin
	}
	if isJury != nil {
		u.IsJury = *isJury
	}
	s.users[id] = u
	return u, nil
}
