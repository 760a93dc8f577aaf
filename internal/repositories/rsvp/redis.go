package rsvp

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
	rsvpKeyPrefix          = "rsvp:"
	sessionRSVPsKeyPrefix  = "session_rsvps:"
	attendeeRSVPsKeyPrefix = "attendee_rsvps:"
	keySeparator           = ":"

	fieldSessionID   = "session_id"
	fieldAttendeeID  = "attendee_id"
	fieldResponse    = "response"
	fieldRemind24h   = "remind_24h"
	fieldReminded24h = "reminded_24h"
	fieldReminded60m = "reminded_60m"
	fieldRespondedAt = "responded_at"
)

var (
	// ErrRSVPNotFound is returned when no record exists for the pair
	ErrRSVPNotFound = errors.New("rsvp not found")

	// ErrInvalidResponse is returned for unknown response values
	ErrInvalidResponse = errors.New("invalid rsvp response")

	// ErrInvalidReminderKind is returned for kinds without a reminded flag
	ErrInvalidReminderKind = errors.New("invalid reminder kind")
)

// Config holds configuration for the Redis RSVP repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis hashes
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed RSVP repository
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

func rsvpKey(sessionID, attendeeID string) string {
	return rsvpKeyPrefix + sessionID + keySeparator + attendeeID
}

// UpsertRSVP merges the given fields into the record
func (r *redisRepository) UpsertRSVP(ctx context.Context, input *UpsertRSVPInput) (*models.RSVP, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	values := []interface{}{
		fieldSessionID, input.SessionID,
		fieldAttendeeID, input.AttendeeID,
		fieldRespondedAt, fields.FormatTime(input.At),
	}

	if input.Response != nil {
		if !input.Response.Valid() {
			return nil, ErrInvalidResponse
		}
		values = append(values, fieldResponse, string(*input.Response))
	}

	if input.Remind24h != nil {
		values = append(values, fieldRemind24h, fields.FormatBool(*input.Remind24h))
	}

	key := rsvpKey(input.SessionID, input.AttendeeID)

	pipe := r.client.TxPipeline()
	if input.IfMissing {
		for i := 0; i < len(values); i += 2 {
			pipe.HSetNX(ctx, key, values[i].(string), values[i+1])
		}
	} else {
		pipe.HSet(ctx, key, values...)
	}
	pipe.SAdd(ctx, sessionRSVPsKeyPrefix+input.SessionID, input.AttendeeID)
	pipe.SAdd(ctx, attendeeRSVPsKeyPrefix+input.AttendeeID, input.SessionID)
	stored := pipe.HGetAll(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	return rsvpFromHash(stored.Val())
}

// GetRSVP retrieves a single record
func (r *redisRepository) GetRSVP(ctx context.Context, input *GetRSVPInput) (*models.RSVP, error) {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return nil, errors.New("input, session ID and attendee ID cannot be empty")
	}

	values, err := r.client.HGetAll(ctx, rsvpKey(input.SessionID, input.AttendeeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrRSVPNotFound
	}

	return rsvpFromHash(values)
}

// ListForSession retrieves every record of a session ordered by attendee ID
func (r *redisRepository) ListForSession(ctx context.Context, input *ListForSessionInput) (*ListRSVPsOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	attendeeIDs, err := r.client.SMembers(ctx, sessionRSVPsKeyPrefix+input.SessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp index: %w", err)
	}

	sort.Strings(attendeeIDs)

	keys := make([]string, len(attendeeIDs))
	for i, id := range attendeeIDs {
		keys[i] = rsvpKey(input.SessionID, id)
	}

	return r.load(ctx, keys)
}

// ListForAttendee retrieves every record of an attendee ordered by session ID
func (r *redisRepository) ListForAttendee(ctx context.Context, input *ListForAttendeeInput) (*ListRSVPsOutput, error) {
	if input == nil || input.AttendeeID == "" {
		return nil, errors.New("input and attendee ID cannot be empty")
	}

	sessionIDs, err := r.client.SMembers(ctx, attendeeRSVPsKeyPrefix+input.AttendeeID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp index: %w", err)
	}

	sort.Strings(sessionIDs)

	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = rsvpKey(id, input.AttendeeID)
	}

	return r.load(ctx, keys)
}

func (r *redisRepository) load(ctx context.Context, keys []string) (*ListRSVPsOutput, error) {
	if len(keys) == 0 {
		return &ListRSVPsOutput{
			RSVPs: []*models.RSVP{},
		}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get rsvps: %w", err)
	}

	rsvps := make([]*models.RSVP, 0, len(keys))
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}

		rec, err := rsvpFromHash(values)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}

		rsvps = append(rsvps, rec)
	}

	return &ListRSVPsOutput{
		RSVPs: rsvps,
	}, nil
}

// MarkReminded sets a reminded flag on an existing record
func (r *redisRepository) MarkReminded(ctx context.Context, input *MarkRemindedInput) error {
	if input == nil || input.SessionID == "" || input.AttendeeID == "" {
		return errors.New("input, session ID and attendee ID cannot be empty")
	}

	var field string
	switch input.Kind {
	case models.DeadlineRemind24h:
		field = fieldReminded24h
	case models.DeadlineRemind60m:
		field = fieldReminded60m
	default:
		return ErrInvalidReminderKind
	}

	key := rsvpKey(input.SessionID, input.AttendeeID)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check rsvp: %w", err)
	}
	if n == 0 {
		return ErrRSVPNotFound
	}

	if err := r.client.HSet(ctx, key, field, fields.FormatBool(true)).Err(); err != nil {
		return fmt.Errorf("failed to mark reminded: %w", err)
	}

	return nil
}

// ClearReminders resets the reminded flags of every record of a session
func (r *redisRepository) ClearReminders(ctx context.Context, input *ClearRemindersInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	attendeeIDs, err := r.client.SMembers(ctx, sessionRSVPsKeyPrefix+input.SessionID).Result()
	if err != nil {
		return fmt.Errorf("failed to get rsvp index: %w", err)
	}

	if len(attendeeIDs) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, id := range attendeeIDs {
		pipe.HSet(ctx, rsvpKey(input.SessionID, id),
			fieldReminded24h, fields.FormatBool(false),
			fieldReminded60m, fields.FormatBool(false),
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}

	return nil
}

func rsvpFromHash(values map[string]string) (*models.RSVP, error) {
	respondedAt, err := fields.ParseTime(values[fieldRespondedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid responded_at: %w", err)
	}

	return &models.RSVP{
		SessionID:   values[fieldSessionID],
		AttendeeID:  values[fieldAttendeeID],
		Response:    models.RSVPResponse(values[fieldResponse]),
		Remind24h:   fields.ParseBool(values[fieldRemind24h]),
		Reminded24h: fields.ParseBool(values[fieldReminded24h]),
		Reminded60m: fields.ParseBool(values[fieldReminded60m]),
		RespondedAt: respondedAt,
	}, nil
}
