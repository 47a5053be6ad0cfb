package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authhub/authhub/internal/domain"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

const (
	refreshKeyPrefix   = "authhub:refresh:"
	blacklistKeyPrefix = "authhub:blacklist:"
)

// RefreshTokenRepository implements repository.RefreshTokenStore using Redis.
// Records expire on their own at the token's expiry, so forgotten tokens never
// need garbage collection.
type RefreshTokenRepository struct {
	client *redis.Client
}

// NewRefreshTokenRepository creates a new Redis-backed refresh token store.
func NewRefreshTokenRepository(client *redis.Client) *RefreshTokenRepository {
	return &RefreshTokenRepository{client: client}
}

// Save persists a refresh token record with a TTL matching its expiry.
func (r *RefreshTokenRepository) Save(ctx context.Context, record *domain.RefreshTokenRecord) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token %s already expired", record.ID)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal refresh token record: %w", err)
	}

	if err := r.client.Set(ctx, refreshKeyPrefix+record.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}

	return nil
}

// Get retrieves a refresh token record by token ID.
func (r *RefreshTokenRepository) Get(ctx context.Context, tokenID string) (*domain.RefreshTokenRecord, error) {
	data, err := r.client.Get(ctx, refreshKeyPrefix+tokenID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("refresh token", tokenID)
		}
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}

	var record domain.RefreshTokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token record: %w", err)
	}

	return &record, nil
}

// Delete removes a refresh token record, making the token unusable.
func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, refreshKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("redis del refresh token: %w", err)
	}
	return nil
}

// BlacklistRepository implements repository.BlacklistStore using Redis.
// Entries live only as long as the revoked token would have, so the blacklist
// stays bounded by the access token lifetime.
type BlacklistRepository struct {
	client *redis.Client
}

// NewBlacklistRepository creates a new Redis-backed token blacklist.
func NewBlacklistRepository(client *redis.Client) *BlacklistRepository {
	return &BlacklistRepository{client: client}
}

// Add marks a token ID as revoked for the given duration.
func (r *BlacklistRepository) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set blacklist entry: %w", err)
	}
	return nil
}

// Contains reports whether a token ID has been revoked.
func (r *BlacklistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists blacklist entry: %w", err)
	}
	return n > 0, nil
}
