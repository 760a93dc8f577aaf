// Package callback signs and verifies the data attached to inline buttons.
//
// A token has the form action|session|attendee|value|issued|sig where issued
// is base36 unix seconds and sig is a truncated HMAC-SHA256 of everything
// before it. Tokens fit in the 64 byte callback data limit of Telegram.
package callback

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/conferencebot/internal/common/clock"
)

const (
	// MaxTokenLength is the largest encoded token accepted by transports
	MaxTokenLength = 64

	separator = "|"
	sigBytes  = 9
	numParts  = 6
)

var (
	// ErrInvalidSignature is returned for malformed or tampered tokens
	ErrInvalidSignature = errors.New("invalid callback signature")

	// ErrExpired is returned for tokens older than the configured TTL
	ErrExpired = errors.New("callback expired")

	// ErrTooLong is returned when a payload does not fit MaxTokenLength
	ErrTooLong = errors.New("callback token too long")

	// ErrInvalidField is returned when a field contains the separator
	ErrInvalidField = errors.New("callback field contains separator")
)

// Action identifies what a button does
type Action string

const (
	ActionGoing       Action = "g"
	ActionDeclined    Action = "d"
	ActionRemindMe    Action = "r"
	ActionAlternative Action = "alt"
	ActionStars       Action = "s"
	ActionComment     Action = "c"
	ActionClaim       Action = "k"

	ActionAdminHome      Action = "ah"
	ActionAdminAdd       Action = "aa"
	ActionAdminAddType   Action = "at"
	ActionAdminAddTitle  Action = "aT"
	ActionAdminAddDesc   Action = "aD"
	ActionAdminAddNext   Action = "an"
	ActionAdminList      Action = "al"
	ActionAdminView      Action = "av"
	ActionAdminEdit      Action = "ae"
	ActionAdminEditField Action = "ef"
	ActionAdminCancel    Action = "ac"
	ActionAdminCancelYes Action = "ay"
	ActionAdminHistory   Action = "ax"
	ActionAdminLogout    Action = "ao"
	ActionNoop           Action = "n"
)

// Payload is the decoded content of a token
type Payload struct {
	Action     Action
	SessionID  string
	AttendeeID string
	Value      string
	IssuedAt   time.Time
}

// Config holds configuration for the codec
type Config struct {
	// Secret is the HMAC key
	Secret string

	// TTL is how long a token stays valid
	TTL time.Duration

	// Clock supplies the issue and verification time
	Clock clock.Clock
}

// Codec encodes and verifies tokens
type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// New creates a codec
func New(cfg *Config) (*Codec, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("callback secret is required")
	}

	if cfg.TTL <= 0 {
		return nil, errors.New("callback ttl must be positive")
	}

	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	return &Codec{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
	}, nil
}

// Encode signs a payload. A zero IssuedAt is set to the current time.
func (c *Codec) Encode(p *Payload) (string, error) {
	if p == nil || p.Action == "" {
		return "", errors.New("payload and action cannot be empty")
	}

	for _, field := range []string{string(p.Action), p.SessionID, p.AttendeeID, p.Value} {
		if strings.Contains(field, separator) {
			return "", ErrInvalidField
		}
	}

	issued := p.IssuedAt
	if issued.IsZero() {
		issued = c.clock.Now()
	}

	body := strings.Join([]string{
		string(p.Action),
		p.SessionID,
		p.AttendeeID,
		p.Value,
		strconv.FormatInt(issued.Unix(), 36),
	}, separator)

	token := body + separator + c.sign(body)
	if len(token) > MaxTokenLength {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(token))
	}

	return token, nil
}

// Decode verifies a token and returns its payload
func (c *Codec) Decode(token string) (*Payload, error) {
	parts := strings.Split(token, separator)
	if len(parts) != numParts {
		return nil, ErrInvalidSignature
	}

	i := strings.LastIndex(token, separator)
	body, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(body))) {
		return nil, ErrInvalidSignature
	}

	secs, err := strconv.ParseInt(parts[4], 36, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	issued := time.Unix(secs, 0)
	if c.clock.Now().Sub(issued) > c.ttl {
		return nil, ErrExpired
	}

	return &Payload{
		Action:     Action(parts[0]),
		SessionID:  parts[1],
		AttendeeID: parts[2],
		Value:      parts[3],
		IssuedAt:   issued,
	}, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:sigBytes])
}
