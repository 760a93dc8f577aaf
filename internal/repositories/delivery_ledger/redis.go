package delivery_ledger

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
	entryKeyPrefix            = "delivery:"
	sessionEntriesKeyPrefix   = "session_deliveries:"
	attendeeEntriesKeyPrefix  = "attendee_deliveries:"
	deliveryIndexKey          = "delivery_index"
	deliveryIndexKeySeparator = "|"
)

// Config holds configuration for the Redis delivery ledger repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// UUIDGenerator names entries; defaults to random UUIDs
	UUIDGenerator uuid.UUID

	// Clock stamps entries recorded without a timestamp; defaults to UTC wall time
	Clock clock.Clock
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client        *redis.Client
	uuidGenerator uuid.UUID
	clock         clock.Clock
}

// NewRedis creates a new Redis-backed delivery ledger repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
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

func indexMember(action models.DeliveryAction, attendeeID, sessionID string) string {
	return string(action) + deliveryIndexKeySeparator + attendeeID + deliveryIndexKeySeparator + sessionID
}

// Record appends an entry to the ledger
func (r *redisRepository) Record(ctx context.Context, input *RecordInput) (*RecordOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if input.Action == "" {
		return nil, errors.New("action cannot be empty")
	}

	entry := &models.DeliveryLogEntry{
		ID:         r.uuidGenerator.NewUUID(),
		Timestamp:  input.Timestamp,
		AttendeeID: input.AttendeeID,
		SessionID:  input.SessionID,
		Action:     input.Action,
		Details:    input.Details,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.clock.Now()
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger entry: %w", err)
	}

	score := float64(entry.Timestamp.UnixNano())

	pipe := r.client.TxPipeline()

	pipe.Set(ctx, entryKeyPrefix+entry.ID, entryJSON, 0)
	pipe.SAdd(ctx, deliveryIndexKey, indexMember(entry.Action, entry.AttendeeID, entry.SessionID))

	if entry.SessionID != "" {
		pipe.ZAdd(ctx, sessionEntriesKeyPrefix+entry.SessionID, redis.Z{
			Score:  score,
			Member: entry.ID,
		})
	}

	if entry.AttendeeID != "" {
		pipe.ZAdd(ctx, attendeeEntriesKeyPrefix+entry.AttendeeID, redis.Z{
			Score:  score,
			Member: entry.ID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return &RecordOutput{Entry: entry}, nil
}

// Exists reports whether the triple was ever recorded
func (r *redisRepository) Exists(ctx context.Context, input *ExistsInput) (bool, error) {
	if input == nil || input.Action == "" {
		return false, errors.New("input and action cannot be empty")
	}

	ok, err := r.client.SIsMember(ctx, deliveryIndexKey, indexMember(input.Action, input.AttendeeID, input.SessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}

	return ok, nil
}

// GetEntriesForSession retrieves all entries for a session
func (r *redisRepository) GetEntriesForSession(ctx context.Context, input *GetEntriesForSessionInput) (*GetEntriesOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	return r.getEntries(ctx, sessionEntriesKeyPrefix+input.SessionID)
}

// GetEntriesForAttendee retrieves all entries for an attendee
func (r *redisRepository) GetEntriesForAttendee(ctx context.Context, input *GetEntriesForAttendeeInput) (*GetEntriesOutput, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, errors.New("input and attendee ID cannot be empty")
	}

	return r.getEntries(ctx, attendeeEntriesKeyPrefix+input.AttendeeID)
}

func (r *redisRepository) getEntries(ctx context.Context, indexKey string) (*GetEntriesOutput, error) {
	entryIDs, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry IDs: %w", err)
	}

	if len(entryIDs) == 0 {
		return &GetEntriesOutput{
			Entries: []*models.DeliveryLogEntry{},
		}, nil
	}

	// Fetch all entries in one round trip
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(entryIDs))
	for i, id := range entryIDs {
		cmds[i] = pipe.Get(ctx, entryKeyPrefix+id)
	}

	// redis.Nil for individual keys is handled below
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	entries := make([]*models.DeliveryLogEntry, 0, len(entryIDs))
	for i, cmd := range cmds {
		entryJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to get ledger entry %s: %w", entryIDs[i], err)
		}

		var entry models.DeliveryLogEntry
		if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entry %s: %w", entryIDs[i], err)
		}

		entries = append(entries, &entry)
	}

	return &GetEntriesOutput{Entries: entries}, nil
}
