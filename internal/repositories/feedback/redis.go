package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/conferencebot/internal/models"
	"github.com/KirkDiggler/conferencebot/internal/repositories/fields"
)

const (
	// Key prefix for Redis
	feedbackKeyPrefix = "feedback:"
	keySeparator      = ":"

	fieldSessionID           = "session_id"
	fieldAttendeeID          = "attendee_id"
	fieldStars               = "stars"
	fieldComment             = "comment"
	fieldOwner               = "owner"
	fieldEscalatedAt         = "escalated_at"
	fieldEscalationRecipient = "escalation_recipient"
	fieldEscalationMessageID = "escalation_message_id"
	fieldUpdatedAt           = "updated_at"

	MinStars = 1
	MaxStars = 5
)

var (
	// ErrFeedbackNotFound is returned when no record exists for the pair
	ErrFeedbackNotFound = errors.New("feedback not found")

	// ErrInvalidStars is returned for ratings outside MinStars..MaxStars
	ErrInvalidStars = errors.New("stars out of range")
)

// Config holds configuration for the Redis feedback repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis hashes
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed feedback repository
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

func feedbackKey(sessionID, attendeeID string) string {
	return feedbackKeyPrefix + sessionID + keySeparator + attendeeID
}

func validPair(sessionID, attendeeID string) error {
	if sessionID == "" || attendeeID == "" {
		return errors.New("session ID and attendee ID cannot be empty")
	}
	return nil
}

// SetStars merges a rating into the record
func (r *redisRepository) SetStars(ctx context.Context, input *SetStarsInput) (*models.Feedback, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return nil, err
	}
	if input.Stars < MinStars || input.Stars > MaxStars {
		return nil, ErrInvalidStars
	}

	return r.merge(ctx, input.SessionID, input.AttendeeID,
		fieldStars, input.Stars,
		fieldUpdatedAt, fields.FormatTime(input.At),
	)
}

// SetComment merges a comment into the record
func (r *redisRepository) SetComment(ctx context.Context, input *SetCommentInput) (*models.Feedback, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return nil, err
	}

	return r.merge(ctx, input.SessionID, input.AttendeeID,
		fieldComment, input.Comment,
		fieldUpdatedAt, fields.FormatTime(input.At),
	)
}

func (r *redisRepository) merge(ctx context.Context, sessionID, attendeeID string, values ...interface{}) (*models.Feedback, error) {
	key := feedbackKey(sessionID, attendeeID)

	values = append(values,
		fieldSessionID, sessionID,
		fieldAttendeeID, attendeeID,
	)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, values...)
	stored := pipe.HGetAll(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	return feedbackFromHash(stored.Val())
}

// Get retrieves a single record
func (r *redisRepository) Get(ctx context.Context, input *GetInput) (*models.Feedback, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return nil, err
	}

	values, err := r.client.HGetAll(ctx, feedbackKey(input.SessionID, input.AttendeeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrFeedbackNotFound
	}

	return feedbackFromHash(values)
}

// BeginEscalation reserves the escalation with HSETNX on escalated_at
func (r *redisRepository) BeginEscalation(ctx context.Context, input *BeginEscalationInput) (bool, error) {
	if input == nil {
		return false, errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return false, err
	}
	if input.At.IsZero() {
		return false, errors.New("escalation time cannot be zero")
	}

	ok, err := r.client.HSetNX(ctx, feedbackKey(input.SessionID, input.AttendeeID), fieldEscalatedAt, fields.FormatTime(input.At)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve escalation: %w", err)
	}

	return ok, nil
}

// CompleteEscalation stores the alert destination
func (r *redisRepository) CompleteEscalation(ctx context.Context, input *CompleteEscalationInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return err
	}

	err := r.client.HSet(ctx, feedbackKey(input.SessionID, input.AttendeeID),
		fieldEscalationRecipient, input.Recipient,
		fieldEscalationMessageID, input.MessageID,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to complete escalation: %w", err)
	}

	return nil
}

// AbortEscalation removes the reservation
func (r *redisRepository) AbortEscalation(ctx context.Context, input *AbortEscalationInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return err
	}

	if err := r.client.HDel(ctx, feedbackKey(input.SessionID, input.AttendeeID), fieldEscalatedAt).Err(); err != nil {
		return fmt.Errorf("failed to abort escalation: %w", err)
	}

	return nil
}

// ClaimOwner sets the owner only if none is set yet
func (r *redisRepository) ClaimOwner(ctx context.Context, input *ClaimOwnerInput) (*ClaimOwnerOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if err := validPair(input.SessionID, input.AttendeeID); err != nil {
		return nil, err
	}
	if input.Owner == "" {
		return nil, errors.New("owner cannot be empty")
	}

	key := feedbackKey(input.SessionID, input.AttendeeID)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check feedback: %w", err)
	}
	if n == 0 {
		return nil, ErrFeedbackNotFound
	}

	claimed, err := r.client.HSetNX(ctx, key, fieldOwner, input.Owner).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim feedback: %w", err)
	}

	owner, err := r.client.HGet(ctx, key, fieldOwner).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback owner: %w", err)
	}

	return &ClaimOwnerOutput{
		Claimed: claimed,
		Owner:   owner,
	}, nil
}

func feedbackFromHash(values map[string]string) (*models.Feedback, error) {
	stars, err := fields.ParseInt(values[fieldStars])
	if err != nil {
		return nil, fmt.Errorf("invalid stars: %w", err)
	}

	escalatedAt, err := fields.ParseTime(values[fieldEscalatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid escalated_at: %w", err)
	}

	updatedAt, err := fields.ParseTime(values[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return &models.Feedback{
		SessionID:           values[fieldSessionID],
		AttendeeID:          values[fieldAttendeeID],
		Stars:               stars,
		Comment:             values[fieldComment],
		Owner:               values[fieldOwner],
		EscalatedAt:         escalatedAt,
		EscalationRecipient: values[fieldEscalationRecipient],
		EscalationMessageID: values[fieldEscalationMessageID],
		UpdatedAt:           updatedAt,
	}, nil
}
