package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authhub/authhub/internal/domain"
)

// Claims are the JWT claims carried by every token this service issues.
// The kind travels in a dedicated claim so a refresh token can never be
// presented where an access token is expected, and vice versa.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates tokens. It is the only component that
// touches the signing secret.
type JWTManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a JWT manager with the given secret and per-kind
// validity durations.
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		issuer:        "authhub",
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Generate issues a signed token of the given kind bound to the subject.
// The token ID (jti) is a fresh UUID and serves as the revocation handle.
func (m *JWTManager) Generate(subjectID string, kind domain.TokenKind) (*domain.Token, error) {
	validity := m.accessExpiry
	if kind == domain.TokenKindRefresh {
		validity = m.refreshExpiry
	}

	now := time.Now().UTC()
	expiresAt := now.Add(validity)
	tokenID := uuid.New().String()

	claims := &Claims{
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subjectID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return &domain.Token{
		ID:          tokenID,
		SubjectID:   subjectID,
		Kind:        kind,
		SignedValue: signed,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}, nil
}

// Validate checks the signature and shape of a signed token string and
// decodes it back into a domain token. Expiry is not enforced here: the
// flows check it themselves so that an expired token is still identifiable
// and can be reported as expired rather than malformed.
func (m *JWTManager) Validate(signed string) (*domain.Token, error) {
	token, err := jwt.ParseWithClaims(signed, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("token missing id or subject")
	}

	kind := domain.TokenKind(claims.TokenType)
	if kind != domain.TokenKindAccess && kind != domain.TokenKindRefresh {
		return nil, fmt.Errorf("unknown token type %q", claims.TokenType)
	}

	var issuedAt, expiresAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time.UTC()
	}

	return &domain.Token{
		ID:          claims.ID,
		SubjectID:   claims.Subject,
		Kind:        kind,
		SignedValue: signed,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}
