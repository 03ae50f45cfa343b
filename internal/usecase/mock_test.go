//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/domain/ports/repository"
)

// -----------------------------
// Mock user store
// -----------------------------

// MockUserStore is an in-memory UserStore with the same compare-and-swap
// semantics as the real stores, plus injectable overrides for failure
// scenarios.
type MockUserStore struct {
	mu      sync.Mutex
	byID    map[string]*model.UserRecord
	byTg    map[int64]string
	casHits int

	CreateFunc           func(ctx context.Context, u *model.UserRecord) error
	FindByTelegramIDFunc func(ctx context.Context, tgID int64) (*model.UserRecord, error)
	CompareAndSwapFunc   func(ctx context.Context, u *model.UserRecord) error
	ScanAllFunc          func(ctx context.Context) ([]*model.UserRecord, error)
}

var _ repository.UserStore = (*MockUserStore)(nil)

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		byID: make(map[string]*model.UserRecord),
		byTg: make(map[int64]string),
	}
}

// Seed inserts a record directly, bypassing Create semantics.
func (m *MockUserStore) Seed(u *model.UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	m.byID[u.ID] = u.Clone()
	m.byTg[u.TelegramID] = u.ID
}

// Get returns the stored record for assertions.
func (m *MockUserStore) Get(tgID int64) *model.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byTg[tgID]
	if !ok {
		return nil
	}
	return m.byID[id].Clone()
}

// CASConflicts reports how many CompareAndSwap calls hit a version mismatch.
func (m *MockUserStore) CASConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.casHits
}

func (m *MockUserStore) Create(ctx context.Context, u *model.UserRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := m.byTg[u.TelegramID]; ok {
		return domain.ErrAlreadyExists
	}
	u.Version = 1
	m.byID[u.ID] = u.Clone()
	m.byTg[u.TelegramID] = u.ID
	return nil
}

func (m *MockUserStore) FindByID(_ context.Context, id string) (*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u.Clone(), nil
}

func (m *MockUserStore) FindByTelegramID(ctx context.Context, tgID int64) (*model.UserRecord, error) {
	if m.FindByTelegramIDFunc != nil {
		return m.FindByTelegramIDFunc(ctx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byTg[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *MockUserStore) CompareAndSwap(ctx context.Context, u *model.UserRecord) error {
	if m.CompareAndSwapFunc != nil {
		return m.CompareAndSwapFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != u.Version {
		m.casHits++
		return domain.ErrStoreConflict
	}
	u.Version++
	m.byID[u.ID] = u.Clone()
	m.byTg[u.TelegramID] = u.ID
	return nil
}

func (m *MockUserStore) ScanAll(ctx context.Context) ([]*model.UserRecord, error) {
	if m.ScanAllFunc != nil {
		return m.ScanAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.UserRecord, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (m *MockUserStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

// -----------------------------
// Mock Telegram adapter
// -----------------------------

type sentMessage struct {
	To   int64
	Text string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendMessageFunc func(ctx context.Context, telegramID int64, text string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func NewMockTelegramBot() *MockTelegramBot {
	return &MockTelegramBot{}
}

func (m *MockTelegramBot) SendMessage(ctx context.Context, telegramID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, telegramID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{To: telegramID, Text: text})
	return nil
}

// SentTo returns every message delivered to the given chat.
func (m *MockTelegramBot) SentTo(tgID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.Sent {
		if s.To == tgID {
			out = append(out, s)
		}
	}
	return out
}

func (m *MockTelegramBot) TotalSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// -----------------------------
// Utilities
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fixedClock returns a Clock stuck at the given instant.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
