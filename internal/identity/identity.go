// Package identity establishes the session the service uses against the
// document store.  A session is either anonymous or derived from a
// pre-issued token.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is an established identity.
type Session struct {
	UID       string    `json:"uid"`
	Anonymous bool      `json:"anonymous"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// Provider establishes a session with the identity service.
type Provider interface {
	EstablishSession(ctx context.Context) (*Session, error)
}

// TokenProvider signs in with a pre-issued token when one is configured and
// anonymously otherwise.
type TokenProvider struct {
	Token  string // pre-issued HS256 token, optional
	Secret string // key the token was signed with
}

func (p TokenProvider) EstablishSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	raw := strings.TrimSpace(p.Token)
	if raw == "" {
		return &Session{UID: uuid.NewString(), Anonymous: true, IssuedAt: now}, nil
	}
	uid, err := VerifyToken(p.Secret, raw)
	if err != nil {
		return nil, fmt.Errorf("identity: sign in with token: %w", err)
	}
	return &Session{UID: uid, IssuedAt: now}, nil
}
