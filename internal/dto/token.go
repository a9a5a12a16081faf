package dto

import "time"

// SessionToken is the signed cookie value plus its lifetime; the transport
// layer turns it into a Set-Cookie header.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}
