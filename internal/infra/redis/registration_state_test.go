//go:build !integration

package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/ports/repository"
	red "telegram-signals-bot/internal/infra/redis"
)

// fakeRedis is an in-memory RedisClient good enough for state round-trips.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

var _ red.RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := value.([]byte)
	if !ok {
		return errors.New("fake redis only stores []byte")
	}
	f.data[key] = string(b)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func TestRegistrationStateRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("should round-trip the conversation state", func(t *testing.T) {
		client := newFakeRedis()
		repo := red.NewRegistrationStateRepo(client, 10*time.Minute)

		in := &repository.RegistrationState{
			Step: repository.StepAwaitingEmail,
			Data: map[string]string{"country": "DE", "full_name": "Alice"},
		}
		if err := repo.SetState(ctx, 42, in); err != nil {
			t.Fatalf("set: %v", err)
		}

		out, err := repo.GetState(ctx, 42)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if out.Step != repository.StepAwaitingEmail {
			t.Errorf("step = %s, want %s", out.Step, repository.StepAwaitingEmail)
		}
		if out.Data["full_name"] != "Alice" {
			t.Errorf("data lost: %v", out.Data)
		}
	})

	t.Run("should apply the configured TTL so stale flows evaporate", func(t *testing.T) {
		client := newFakeRedis()
		repo := red.NewRegistrationStateRepo(client, 10*time.Minute)

		if err := repo.SetState(ctx, 42, &repository.RegistrationState{Step: repository.StepAwaitingCountry}); err != nil {
			t.Fatal(err)
		}
		if got := client.ttls["reg_state:42"]; got != 10*time.Minute {
			t.Errorf("ttl = %v, want 10m", got)
		}
	})

	t.Run("missing state maps to the domain not-found error", func(t *testing.T) {
		repo := red.NewRegistrationStateRepo(newFakeRedis(), time.Minute)
		if _, err := repo.GetState(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("clear removes the state and keys are per user", func(t *testing.T) {
		client := newFakeRedis()
		repo := red.NewRegistrationStateRepo(client, time.Minute)

		if err := repo.SetState(ctx, 1, &repository.RegistrationState{Step: repository.StepAwaitingTerms}); err != nil {
			t.Fatal(err)
		}
		if err := repo.SetState(ctx, 2, &repository.RegistrationState{Step: repository.StepAwaitingAccount}); err != nil {
			t.Fatal(err)
		}
		if err := repo.ClearState(ctx, 1); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.GetState(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
			t.Error("cleared state must be gone")
		}
		if _, err := repo.GetState(ctx, 2); err != nil {
			t.Errorf("other users' state must survive: %v", err)
		}
	})
}
