package notice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/common/uuid"
	"github.com/KirkDiggler/conferencebot/internal/models"
)

const (
	// Key prefixes for Redis
	noticeKeyPrefix = "notice:"
	pendingKey      = "pending_notices"
)

// Config holds configuration for the Redis notice repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// UUIDGenerator names notices; defaults to random UUIDs
	UUIDGenerator uuid.UUID

	// Clock stamps new notices; defaults to UTC wall time
	Clock clock.Clock
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client        *redis.Client
	uuidGenerator uuid.UUID
	clock         clock.Clock
}

// NewRedis creates a new Redis-backed notice repository
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

	uuidGenerator := cfg.UUIDGenerator
	if uuidGenerator == nil {
		uuidGenerator = uuid.New()
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New(nil)
	}

	return &redisRepository{
		client:        cfg.RedisClient,
		uuidGenerator: uuidGenerator,
		clock:         clk,
	}, nil
}

// SaveNotice queues a notice or replaces a queued one
func (r *redisRepository) SaveNotice(ctx context.Context, input *SaveNoticeInput) (*SaveNoticeOutput, error) {
	if input == nil || input.Notice == nil {
		return nil, errors.New("input and notice cannot be nil")
	}

	n := *input.Notice
	if n.Action == "" || n.AttendeeID == "" {
		return nil, errors.New("notice action and attendee ID cannot be empty")
	}

	if n.ID == "" {
		n.ID = r.uuidGenerator.NewUUID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.clock.Now()
	}

	noticeJSON, err := json.Marshal(&n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notice: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, noticeKeyPrefix+n.ID, noticeJSON, 0)
	pipe.ZAddNX(ctx, pendingKey, redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: n.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save notice: %w", err)
	}

	return &SaveNoticeOutput{Notice: &n}, nil
}

// ListNotices retrieves queued notices, oldest first
func (r *redisRepository) ListNotices(ctx context.Context, input *ListNoticesInput) (*ListNoticesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	stop := int64(-1)
	if input.Limit > 0 {
		stop = int64(input.Limit - 1)
	}

	noticeIDs, err := r.client.ZRange(ctx, pendingKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notices: %w", err)
	}

	out := &ListNoticesOutput{
		Notices: make([]*models.PendingNotice, 0, len(noticeIDs)),
	}
	if len(noticeIDs) == 0 {
		return out, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(noticeIDs))
	for i, id := range noticeIDs {
		cmds[i] = pipe.Get(ctx, noticeKeyPrefix+id)
	}

	// redis.Nil for individual keys is handled below
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get notices: %w", err)
	}

	for i, cmd := range cmds {
		noticeJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to get notice %s: %w", noticeIDs[i], err)
		}

		var n models.PendingNotice
		if err := json.Unmarshal([]byte(noticeJSON), &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notice %s: %w", noticeIDs[i], err)
		}

		out.Notices = append(out.Notices, &n)
	}

	return out, nil
}

// DeleteNotice removes a notice from the queue
func (r *redisRepository) DeleteNotice(ctx context.Context, input *DeleteNoticeInput) error {
	if input == nil || input.NoticeID == "" {
		return errors.New("input and notice ID cannot be empty")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, noticeKeyPrefix+input.NoticeID)
	pipe.ZRem(ctx, pendingKey, input.NoticeID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete notice: %w", err)
	}

	return nil
}
