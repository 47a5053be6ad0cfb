package domain

import (
	"time"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

// Token is an issued, signed token. Tokens are immutable after issuance
// and compared by ID for revocation. An access/refresh pair issued by the
// same login are independent objects with independent expiry.
type Token struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Kind        TokenKind `json:"kind"`
	SignedValue string    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsAccess reports whether the token is an access token.
func (t *Token) IsAccess() bool { return t.Kind == TokenKindAccess }

// IsRefresh reports whether the token is a refresh token.
func (t *Token) IsRefresh() bool { return t.Kind == TokenKindRefresh }

// IsExpired reports whether the token's expiry has passed.
func (t *Token) IsExpired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}

// RemainingValidity returns how long until the token expires, clamped
// at zero for tokens that are already expired.
func (t *Token) RemainingValidity() time.Duration {
	remaining := time.Until(t.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RefreshTokenRecord is the subset of refresh-token state held in the
// refresh token store, keyed by token ID.
type RefreshTokenRecord struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
