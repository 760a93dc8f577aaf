package attendance

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
	attendanceKeyPrefix         = "attendance:"
	sessionAttendanceKeyPrefix  = "session_attendance:"
	attendeeAttendanceKeyPrefix = "attendee_attendance:"
	keySeparator                = ":"

	fieldSessionID  = "session_id"
	fieldAttendeeID = "attendee_id"
	fieldAttended   = "attended"
	fieldMarkedAt   = "marked_at"
)

// ErrAttendanceNotFound is returned when no record exists for the pair
var ErrAttendanceNotFound = errors.New("attendance not found")

// Config holds configuration for the Redis attendance repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis hashes
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed attendance repository
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

func attendanceKey(sessionID, attendeeID string) string {
	return attendanceKeyPrefix + sessionID + keySeparator + attendeeID
}

// Mark upserts the attended flag
func (r *redisRepository) Mark(ctx context.Context, input *MarkInput) error {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return errors.New("input, session ID and attendee ID cannot be empty")
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, attendanceKey(input.SessionID, input.AttendeeID),
		fieldSessionID, input.SessionID,
		fieldAttendeeID, input.AttendeeID,
		fieldAttended, fields.FormatBool(input.Attended),
		fieldMarkedAt, fields.FormatTime(input.At),
	)
	pipe.SAdd(ctx, sessionAttendanceKeyPrefix+input.SessionID, input.AttendeeID)
	pipe.SAdd(ctx, attendeeAttendanceKeyPrefix+input.AttendeeID, input.SessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark attendance: %w", err)
	}

	return nil
}

// Get retrieves a single record
func (r *redisRepository) Get(ctx context.Context, input *GetInput) (*models.Attendance, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	values, err := r.client.HGetAll(ctx, attendanceKey(input.SessionID, input.AttendeeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrAttendanceNotFound
	}

	return attendanceFromHash(values)
}

// ListForSession retrieves records of a session ordered by attendee ID
func (r *redisRepository) ListForSession(ctx context.Context, input *ListForSessionInput) (*ListOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	attendeeIDs, err := r.client.SMembers(ctx, sessionAttendanceKeyPrefix+input.SessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance index: %w", err)
	}

	sort.Strings(attendeeIDs)

	keys := make([]string, len(attendeeIDs))
	for i, id := range attendeeIDs {
		keys[i] = attendanceKey(input.SessionID, id)
	}

	return r.load(ctx, keys, input.AttendedOnly)
}

// ListForAttendee retrieves records of an attendee ordered by session ID
func (r *redisRepository) ListForAttendee(ctx context.Context, input *ListForAttendeeInput) (*ListOutput, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, errors.New("input and attendee ID cannot be empty")
	}

	sessionIDs, err := r.client.SMembers(ctx, attendeeAttendanceKeyPrefix+input.AttendeeID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance index: %w", err)
	}

	sort.Strings(sessionIDs)

	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = attendanceKey(id, input.AttendeeID)
	}

	return r.load(ctx, keys, input.AttendedOnly)
}

func (r *redisRepository) load(ctx context.Context, keys []string, attendedOnly bool) (*ListOutput, error) {
	if len(keys) == 0 {
		return &ListOutput{
			Records: []*models.Attendance{},
		}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	records := make([]*models.Attendance, 0, len(keys))
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}

		rec, err := attendanceFromHash(values)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}

		if attendedOnly && !rec.Attended {
			continue
		}

		records = append(records, rec)
	}

	return &ListOutput{
		Records: records,
	}, nil
}

// ResetForSession flips every attended record of a session to false
func (r *redisRepository) ResetForSession(ctx context.Context, input *ResetForSessionInput) (*ResetForSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	attended, err := r.ListForSession(ctx, &ListForSessionInput{
		SessionID:    input.SessionID,
		AttendedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	if len(attended.Records) == 0 {
		return &ResetForSessionOutput{}, nil
	}

	pipe := r.client.TxPipeline()
	for _, rec := range attended.Records {
		pipe.HSet(ctx, attendanceKey(rec.SessionID, rec.AttendeeID),
			fieldAttended, fields.FormatBool(false),
			fieldMarkedAt, fields.FormatTime(input.At),
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset attendance: %w", err)
	}

	return &ResetForSessionOutput{
		Reset: len(attended.Records),
	}, nil
}

func attendanceFromHash(values map[string]string) (*models.Attendance, error) {
	markedAt, err := fields.ParseTime(values[fieldMarkedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid marked_at: %w", err)
	}

	return &models.Attendance{
		SessionID:  values[fieldSessionID],
		AttendeeID: values[fieldAttendeeID],
		Attended:   fields.ParseBool(values[fieldAttended]),
		MarkedAt:   markedAt,
	}, nil
}
