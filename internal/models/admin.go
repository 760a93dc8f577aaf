package models

import (
	"time"
)

// AdminGrant is a durable credential allowing a transport user to run
// administrative flows until it expires
type AdminGrant struct {
	TransportID string
	GrantedAt   time.Time
	ExpiresAt   time.Time
}

// Valid reports whether the grant is still in force at now
func (g *AdminGrant) Valid(now time.Time) bool {
	return g != nil && now.Before(g.ExpiresAt)
}
