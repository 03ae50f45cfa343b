package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

// Ensure the adapter implements the port interface.
var _ repository.RegistrationStateRepository = (*RegistrationStateRepo)(nil)

// RegistrationStateRepo keeps the multi-step broker registration conversation
// in Redis with a TTL, so an abandoned flow simply evaporates.
type RegistrationStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewRegistrationStateRepo(client RedisClient, ttl time.Duration) *RegistrationStateRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RegistrationStateRepo{client: client, ttl: ttl}
}

func (s *RegistrationStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("reg_state:%d", tgID)
}

func (s *RegistrationStateRepo) SetState(ctx context.Context, tgID int64, state *repository.RegistrationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *RegistrationStateRepo) GetState(ctx context.Context, tgID int64) (*repository.RegistrationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var state repository.RegistrationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RegistrationStateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
