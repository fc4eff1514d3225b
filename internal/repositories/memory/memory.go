// Package memory is an in-process implementation of the repositories used by
// tests and local runs without Postgres. It enforces the same uniqueness and
// ownership rules as the SQL schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mystrymsg/internal/models"
	"mystrymsg/internal/repositories"
)

var (
	_ repositories.AccountRepository = (*Store)(nil)
	_ repositories.MessageRepository = (*Store)(nil)
)

type Store struct {
	mu sync.Mutex

	accounts map[string]models.Account
	messages map[string][]models.Message // account id -> messages
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		messages: make(map[string][]models.Message),
	}
}

func (s *Store) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return repositories.ErrDuplicate
	}
	for _, existing := range s.accounts {
		if existing.Username == a.Username || existing.Email == a.Email {
			return repositories.ErrDuplicate
		}
	}
	a.CreatedAt = time.Now().UTC()
	s.accounts[a.ID] = *a
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	return s.find(func(a models.Account) bool { return a.Username == username })
}

func (s *Store) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return s.find(func(a models.Account) bool { return a.Email == email })
}

func (s *Store) GetByIdentifier(_ context.Context, identifier string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Account
	for _, a := range s.accounts {
		if a.Username != identifier && a.Email != identifier {
			continue
		}
		if found == nil || (a.IsVerified && !found.IsVerified) {
			cp := a
			found = &cp
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	return found, nil
}

func (s *Store) IsUsernameVerified(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Username == username && a.IsVerified {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ResetPending(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[a.ID]
	if !ok || existing.IsVerified {
		return repositories.ErrNotFound
	}
	existing.PasswordHash = a.PasswordHash
	existing.VerifyCode = a.VerifyCode
	existing.VerifyCodeExpiry = a.VerifyCodeExpiry
	existing.VerifyAttempts = 0
	s.accounts[a.ID] = existing
	return nil
}

func (s *Store) RecordFailedAttempt(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.IsVerified {
		return 0, repositories.ErrNotFound
	}
	a.VerifyAttempts++
	s.accounts[id] = a
	return a.VerifyAttempts, nil
}

func (s *Store) DeletePending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.IsVerified {
		return repositories.ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) MarkVerified(_ context.Context, id string) error {
	return s.update(id, func(a *models.Account) { a.IsVerified = true })
}

func (s *Store) SetAcceptingMessages(_ context.Context, id string, accept bool) error {
	return s.update(id, func(a *models.Account) { a.IsAcceptingMessages = accept })
}

func (s *Store) Append(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[m.AccountID]; !ok {
		return repositories.ErrNotFound
	}
	s.messages[m.AccountID] = append(s.messages[m.AccountID], *m)
	return nil
}

func (s *Store) ListByAccount(_ context.Context, accountID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.messages[accountID]
	out := make([]*models.Message, 0, len(src))
	for i := range src {
		m := src[i]
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteOwned(_ context.Context, accountID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[accountID]
	for i, m := range msgs {
		if m.ID == messageID {
			s.messages[accountID] = append(msgs[:i:i], msgs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *Store) find(match func(models.Account) bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if match(a) {
			cp := a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) update(id string, fn func(a *models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&a)
	s.accounts[id] = a
	return nil
}
