package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/conferencebot/internal/models"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix      = "session:"
	sessionsByStartKey    = "sessions_by_start"
	typeSessionsKeyPrefix = "type_sessions:"
	dueIndexKey           = "due_index"
	sessionTypesKey       = "session_types"

	dueMemberSeparator = ":"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionTypeNotFound is returned when a session type is not found
	ErrSessionTypeNotFound = errors.New("session type not found")
)

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
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

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func typeSessionsKey(code int) string {
	return typeSessionsKeyPrefix + strconv.Itoa(code)
}

func dueMember(sessionID string, kind models.DeadlineKind) string {
	return sessionID + dueMemberSeparator + string(kind)
}

func parseDueMember(member string) (string, models.DeadlineKind, bool) {
	i := strings.LastIndex(member, dueMemberSeparator)
	if i <= 0 || i == len(member)-1 {
		return "", "", false
	}
	return member[:i], models.DeadlineKind(member[i+1:]), true
}

// removeDue queues removal of every due index member of a session
func removeDue(ctx context.Context, pipe redis.Pipeliner, sessionID string) {
	members := make([]interface{}, 0, len(models.AllDeadlineKinds))
	for _, kind := range models.AllDeadlineKinds {
		members = append(members, dueMember(sessionID, kind))
	}
	pipe.ZRem(ctx, dueIndexKey, members...)
}

// SaveSession persists a session to Redis
func (r *redisRepository) SaveSession(ctx context.Context, input *SaveSessionInput) error {
	if input == nil || input.Session == nil {
		return errors.New("input and session cannot be nil")
	}

	sess := input.Session
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	sessionJSON, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Create a Redis transaction
	pipe := r.client.TxPipeline()

	pipe.Set(ctx, sessionKey(sess.ID), sessionJSON, 0)

	// Sessions without a known start stay out of the time indexes
	if start, ok := sess.Start(); ok {
		z := redis.Z{Score: float64(start.Unix()), Member: sess.ID}
		pipe.ZAdd(ctx, sessionsByStartKey, z)
		pipe.ZAdd(ctx, typeSessionsKey(sess.TypeCode), z)
	} else {
		pipe.ZRem(ctx, sessionsByStartKey, sess.ID)
		pipe.ZRem(ctx, typeSessionsKey(sess.TypeCode), sess.ID)
	}

	removeDue(ctx, pipe, sess.ID)
	for _, d := range input.Deadlines {
		pipe.ZAdd(ctx, dueIndexKey, redis.Z{
			Score:  float64(d.OpensAt.Unix()),
			Member: dueMember(sess.ID, d.Kind),
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	sessionJSON, err := r.client.Get(ctx, sessionKey(input.SessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(sessionJSON), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// DeleteSession removes a session from Redis
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	// Get the session first to find its type index
	sess, err := r.GetSession(ctx, &GetSessionInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()

	pipe.Del(ctx, sessionKey(sess.ID))
	pipe.ZRem(ctx, sessionsByStartKey, sess.ID)
	pipe.ZRem(ctx, typeSessionsKey(sess.TypeCode), sess.ID)
	removeDue(ctx, pipe, sess.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// ListSessions retrieves all sessions starting at or after From
func (r *redisRepository) ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	return r.listByStart(ctx, sessionsByStartKey, input.From)
}

// ListSessionsByType retrieves sessions of one type starting at or after From
func (r *redisRepository) ListSessionsByType(ctx context.Context, input *ListSessionsByTypeInput) (*ListSessionsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	return r.listByStart(ctx, typeSessionsKey(input.TypeCode), input.From)
}

func (r *redisRepository) listByStart(ctx context.Context, key string, from time.Time) (*ListSessionsOutput, error) {
	minScore := "-inf"
	if !from.IsZero() {
		minScore = strconv.FormatInt(from.Unix(), 10)
	}

	sessionIDs, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: minScore,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	if len(sessionIDs) == 0 {
		return &ListSessionsOutput{
			Sessions: []*models.Session{},
		}, nil
	}

	// Get all sessions using a pipeline; order follows the sorted set
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, id := range sessionIDs {
		cmds[i] = pipe.Get(ctx, sessionKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(sessionIDs))
	for i, cmd := range cmds {
		sessionJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Session was deleted between reading the index and the blob
				continue
			}
			return nil, fmt.Errorf("failed to get session %s: %w", sessionIDs[i], err)
		}

		var sess models.Session
		if err := json.Unmarshal([]byte(sessionJSON), &sess); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionIDs[i], err)
		}

		sessions = append(sessions, &sess)
	}

	return &ListSessionsOutput{
		Sessions: sessions,
	}, nil
}

// GetDueDeadlines returns index entries whose window opened at or before Until
func (r *redisRepository) GetDueDeadlines(ctx context.Context, input *GetDueDeadlinesInput) (*GetDueDeadlinesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	entries, err := r.client.ZRangeByScoreWithScores(ctx, dueIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(input.Until.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due index: %w", err)
	}

	deadlines := make([]models.Deadline, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		sessionID, kind, ok := parseDueMember(member)
		if !ok {
			continue
		}

		deadlines = append(deadlines, models.Deadline{
			SessionID: sessionID,
			Kind:      kind,
			OpensAt:   time.Unix(int64(z.Score), 0),
		})
	}

	return &GetDueDeadlinesOutput{
		Deadlines: deadlines,
	}, nil
}

// RemoveDueDeadline drops a single index entry
func (r *redisRepository) RemoveDueDeadline(ctx context.Context, input *RemoveDueDeadlineInput) error {
	if input == nil || input.SessionID == "" || input.Kind == "" {
		return errors.New("input, session ID and kind cannot be empty")
	}

	if err := r.client.ZRem(ctx, dueIndexKey, dueMember(input.SessionID, input.Kind)).Err(); err != nil {
		return fmt.Errorf("failed to remove due entry: %w", err)
	}

	return nil
}

// SaveSessionType creates or replaces a session type
func (r *redisRepository) SaveSessionType(ctx context.Context, input *SaveSessionTypeInput) error {
	if input == nil || input.SessionType == nil {
		return errors.New("input and session type cannot be nil")
	}

	typeJSON, err := json.Marshal(input.SessionType)
	if err != nil {
		return fmt.Errorf("failed to marshal session type: %w", err)
	}

	if err := r.client.HSet(ctx, sessionTypesKey, strconv.Itoa(input.SessionType.Code), typeJSON).Err(); err != nil {
		return fmt.Errorf("failed to save session type: %w", err)
	}

	return nil
}

// GetSessionType retrieves a session type by code
func (r *redisRepository) GetSessionType(ctx context.Context, input *GetSessionTypeInput) (*models.SessionType, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	typeJSON, err := r.client.HGet(ctx, sessionTypesKey, strconv.Itoa(input.Code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionTypeNotFound
		}
		return nil, fmt.Errorf("failed to get session type: %w", err)
	}

	var st models.SessionType
	if err := json.Unmarshal([]byte(typeJSON), &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session type: %w", err)
	}

	return &st, nil
}

// ListSessionTypes retrieves session types ordered by code
func (r *redisRepository) ListSessionTypes(ctx context.Context, input *ListSessionTypesInput) (*ListSessionTypesOutput, error) {
	if input == nil {
		input = &ListSessionTypesInput{}
	}

	raw, err := r.client.HGetAll(ctx, sessionTypesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session types: %w", err)
	}

	types := make([]*models.SessionType, 0, len(raw))
	for code, typeJSON := range raw {
		var st models.SessionType
		if err := json.Unmarshal([]byte(typeJSON), &st); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session type %s: %w", code, err)
		}

		if input.ActiveOnly && !st.Active {
			continue
		}

		types = append(types, &st)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].Code < types[j].Code
	})

	return &ListSessionTypesOutput{
		SessionTypes: types,
	}, nil
}
