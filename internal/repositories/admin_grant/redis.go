package admin_grant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

const (
	// Key prefix for Redis
	grantKeyPrefix = "admin_grant:"
)

// ErrGrantNotFound is returned when a user holds no grant
var ErrGrantNotFound = errors.New("admin grant not found")

// Config holds configuration for the Redis admin grant repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis keys with TTL
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed admin grant repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// SaveGrant stores a grant with a TTL matching its lifetime
func (r *redisRepository) SaveGrant(ctx context.Context, input *SaveGrantInput) error {
	if input == nil || input.Grant == nil {
		return errors.New("input and grant cannot be nil")
	}

	grant := input.Grant
	if grant.TransportID == "" {
		return errors.New("transport ID cannot be empty")
	}

	ttl := grant.ExpiresAt.Sub(grant.GrantedAt)
	if ttl <= 0 {
		return errors.New("grant must expire after it is granted")
	}

	grantJSON, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}

	if err := r.client.Set(ctx, grantKeyPrefix+grant.TransportID, grantJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}

	return nil
}

// GetGrant retrieves the grant of a transport user
func (r *redisRepository) GetGrant(ctx context.Context, input *GetGrantInput) (*models.AdminGrant, error) {
	if input == nil || input.TransportID == "" {
		return nil, errors.New("input and transport ID cannot be empty")
	}

	grantJSON, err := r.client.Get(ctx, grantKeyPrefix+input.TransportID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	var grant models.AdminGrant
	if err := json.Unmarshal([]byte(grantJSON), &grant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
	}

	return &grant, nil
}

// RevokeGrant removes a grant
func (r *redisRepository) RevokeGrant(ctx context.Context, input *RevokeGrantInput) error {
	if input == nil || input.TransportID == "" {
		return errors.New("input and transport ID cannot be empty")
	}

	if err := r.client.Del(ctx, grantKeyPrefix+input.TransportID).Err(); err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}

	return nil
}
