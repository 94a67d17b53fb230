package utils // package utils provides helpers for token creation and password hashing

import (
    "errors" // sentinel for bad input
    "time"   // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken is a signed identity token along with its expiry.  Tokens are
// handed to the service as IDENTITY_TOKEN so it signs in as a known
// identity instead of anonymously.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// ErrEmptySecret is returned when asked to sign with an empty key.
var ErrEmptySecret = errors.New("empty signing secret")

// NewSessionToken builds and signs an HS256 JWT whose subject is uid.  The
// token carries the standard sub, exp and iat claims.
func NewSessionToken(secret, uid string, ttl time.Duration) (SessionToken, error) {
    if secret == "" {
        return SessionToken{}, ErrEmptySecret
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   uid,
        ExpiresAt: jwt.NewNumericDate(exp),
        IssuedAt:  jwt.NewNumericDate(now),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}
