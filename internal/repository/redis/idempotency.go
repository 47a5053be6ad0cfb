package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "authhub:idempotency:"

// idempotencyRecord is the stored shape for a remembered request.
type idempotencyRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Response    json.RawMessage `json:"response"`
}

// IdempotencyRepository implements repository.IdempotencyStore using Redis.
// SETNX makes the first writer win, so concurrent retries of the same key
// cannot both execute.
type IdempotencyRepository struct {
	client *redis.Client
}

// NewIdempotencyRepository creates a new Redis-backed idempotency store.
func NewIdempotencyRepository(client *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{client: client}
}

// Remember stores the payload fingerprint and response for a key. It reports
// false if the key already exists.
func (r *IdempotencyRepository) Remember(ctx context.Context, key, fingerprint string, response []byte, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(idempotencyRecord{
		Fingerprint: fingerprint,
		Response:    response,
	})
	if err != nil {
		return false, fmt.Errorf("marshal idempotency record: %w", err)
	}

	stored, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx idempotency record: %w", err)
	}

	return stored, nil
}

// Lookup returns the stored fingerprint and response for a key, or found=false
// if the key is unknown.
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string) (string, []byte, bool, error) {
	data, err := r.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return "", nil, false, nil
		}
		return "", nil, false, fmt.Errorf("redis get idempotency record: %w", err)
	}

	var record idempotencyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", nil, false, fmt.Errorf("unmarshal idempotency record: %w", err)
	}

	return record.Fingerprint, record.Response, true, nil
}
