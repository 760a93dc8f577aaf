package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// templatesKey is a hash of template key to text
	templatesKey = "messages"
)

// ErrTemplateNotFound is returned when no override exists for a key
var ErrTemplateNotFound = errors.New("template not found")

// Config holds configuration for the Redis template repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed template repository
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

// GetTemplate retrieves an override by key
func (r *redisRepository) GetTemplate(ctx context.Context, input *GetTemplateInput) (string, error) {
	if input == nil || input.Key == "" {
		return "", errors.New("input and key cannot be empty")
	}

	text, err := r.client.HGet(ctx, templatesKey, input.Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTemplateNotFound
		}
		return "", fmt.Errorf("failed to get template: %w", err)
	}

	return text, nil
}

// SaveTemplate stores an override
func (r *redisRepository) SaveTemplate(ctx context.Context, input *SaveTemplateInput) error {
	if input == nil || input.Key == "" {
		return errors.New("input and key cannot be empty")
	}

	if err := r.client.HSet(ctx, templatesKey, input.Key, input.Text).Err(); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return nil
}
