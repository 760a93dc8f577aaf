package attendee

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/fields"
)

const (
	// Key prefixes for Redis
	attendeeKeyPrefix = "attendee:"
	attendeesKey      = "attendees"

	fieldID           = "id"
	fieldTransportID  = "transport_id"
	fieldFullName     = "full_name"
	fieldPhone        = "phone"
	fieldStatus       = "status"
	fieldRegisteredAt = "registered_at"
	fieldLastSeenAt   = "last_seen_at"
)

// ErrAttendeeNotFound is returned when an attendee is not found
var ErrAttendeeNotFound = errors.New("attendee not found")

// Config holds configuration for the Redis attendee repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis hashes
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed attendee repository
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

func attendeeKey(id string) string {
	return attendeeKeyPrefix + id
}

// SaveAttendee persists an attendee to Redis
func (r *redisRepository) SaveAttendee(ctx context.Context, input *SaveAttendeeInput) error {
	if input == nil || input.Attendee == nil {
		return errors.New("input and attendee cannot be nil")
	}

	a := input.Attendee
	if a.ID == "" {
		return errors.New("attendee ID cannot be empty")
	}

	status := a.Status
	if status == "" {
		status = models.AttendeeStatusActive
	}

	key := attendeeKey(a.ID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldID, a.ID,
		fieldTransportID, a.TransportID,
		fieldFullName, a.FullName,
		fieldPhone, a.Phone,
		fieldStatus, string(status),
		fieldLastSeenAt, fields.FormatTime(a.LastSeenAt),
	)
	// First registration wins
	pipe.HSetNX(ctx, key, fieldRegisteredAt, fields.FormatTime(a.RegisteredAt))
	pipe.SAdd(ctx, attendeesKey, a.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save attendee: %w", err)
	}

	return nil
}

// GetAttendee retrieves an attendee by ID from Redis
func (r *redisRepository) GetAttendee(ctx context.Context, input *GetAttendeeInput) (*models.Attendee, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, errors.New("input and attendee ID cannot be empty")
	}

	values, err := r.client.HGetAll(ctx, attendeeKey(input.AttendeeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrAttendeeNotFound
	}

	return attendeeFromHash(values)
}

// ListAttendees retrieves all attendees ordered by registration time
func (r *redisRepository) ListAttendees(ctx context.Context, input *ListAttendeesInput) (*ListAttendeesOutput, error) {
	if input == nil {
		input = &ListAttendeesInput{}
	}

	ids, err := r.client.SMembers(ctx, attendeesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attendee IDs: %w", err)
	}

	if len(ids) == 0 {
		return &ListAttendeesOutput{
			Attendees: []*models.Attendee{},
		}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, attendeeKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get attendees: %w", err)
	}

	attendees := make([]*models.Attendee, 0, len(ids))
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}

		a, err := attendeeFromHash(values)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attendee %s: %w", ids[i], err)
		}

		if input.ReachableOnly && !a.Reachable() {
			continue
		}

		attendees = append(attendees, a)
	}

	sort.Slice(attendees, func(i, j int) bool {
		if attendees[i].RegisteredAt.Equal(attendees[j].RegisteredAt) {
			return attendees[i].ID < attendees[j].ID
		}
		return attendees[i].RegisteredAt.Before(attendees[j].RegisteredAt)
	})

	return &ListAttendeesOutput{
		Attendees: attendees,
	}, nil
}

// UpdateStatus changes the status field of an existing attendee
func (r *redisRepository) UpdateStatus(ctx context.Context, input *UpdateStatusInput) error {
	if input == nil || input.AttendeeID == "" {
		return errors.New("input and attendee ID cannot be empty")
	}

	if input.Status == "" {
		return errors.New("status cannot be empty")
	}

	return r.setExistingField(ctx, input.AttendeeID, fieldStatus, string(input.Status))
}

// TouchLastSeen records the latest interaction time of an existing attendee
func (r *redisRepository) TouchLastSeen(ctx context.Context, input *TouchLastSeenInput) error {
	if input == nil || input.AttendeeID == "" {
		return errors.New("input and attendee ID cannot be empty")
	}

	return r.setExistingField(ctx, input.AttendeeID, fieldLastSeenAt, fields.FormatTime(input.SeenAt))
}

func (r *redisRepository) setExistingField(ctx context.Context, attendeeID, field, value string) error {
	key := attendeeKey(attendeeID)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check attendee: %w", err)
	}
	if n == 0 {
		return ErrAttendeeNotFound
	}

	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to update attendee %s: %w", field, err)
	}

	return nil
}

func attendeeFromHash(values map[string]string) (*models.Attendee, error) {
	registeredAt, err := fields.ParseTime(values[fieldRegisteredAt])
	if err != nil {
		return nil, fmt.Errorf("invalid registered_at: %w", err)
	}

	lastSeenAt, err := fields.ParseTime(values[fieldLastSeenAt])
	if err != nil {
		return nil, fmt.Errorf("invalid last_seen_at: %w", err)
	}

	return &models.Attendee{
		ID:           values[fieldID],
		TransportID:  values[fieldTransportID],
		FullName:     values[fieldFullName],
		Phone:        values[fieldPhone],
		Status:       models.AttendeeStatus(values[fieldStatus]),
		RegisteredAt: registeredAt,
		LastSeenAt:   lastSeenAt,
	}, nil
}
