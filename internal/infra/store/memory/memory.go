// Package memory provides an in-memory UserStore used in dev mode and tests.
package memory

import (
	"context"
	"sync"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/repository"
)

var _ repository.UserStore = (*Store)(nil)

// Store keeps deep copies of every record; the per-record Version field gives
// the same compare-and-swap contract as the Postgres backend. The mutex only
// guards map access, never any I/O, so writers on different keys do not
// meaningfully block each other.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*model.UserRecord
	byTg map[int64]string
}

func New() *Store {
	return &Store{
		byID: map[string]*model.UserRecord{},
		byTg: map[int64]string{},
	}
}

func (s *Store) Create(_ context.Context, u *model.UserRecord) error {
	if u == nil || u.ID == "" {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.byTg[u.TelegramID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := u.Clone()
	cp.Version = 1
	s.byID[cp.ID] = cp
	s.byTg[cp.TelegramID] = cp.ID
	u.Version = cp.Version
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) FindByTelegramID(_ context.Context, tgID int64) (*model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTg[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) CompareAndSwap(_ context.Context, u *model.UserRecord) error {
	if u == nil || u.ID == "" {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != u.Version {
		return domain.ErrStoreConflict
	}
	cp := u.Clone()
	cp.Version = cur.Version + 1
	s.byID[cp.ID] = cp
	u.Version = cp.Version
	return nil
}

func (s *Store) ScanAll(_ context.Context) ([]*model.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.UserRecord, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
