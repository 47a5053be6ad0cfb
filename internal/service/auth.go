package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authhub/authhub/internal/auth"
	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/internal/event"
	"github.com/authhub/authhub/internal/repository"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// TokenTypeBearer is the token_type value returned with every issued token.
const TokenTypeBearer = "Bearer"

// AuthService implements the token lifecycle: login, refresh, logout.
type AuthService struct {
	credentials   repository.CredentialStore
	users         repository.UserDirectory
	refreshTokens repository.RefreshTokenStore
	blacklist     repository.BlacklistStore
	hasher        auth.PasswordHasher
	jwtManager    *auth.JWTManager
	producer      *event.Producer
	logger        *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	credentials repository.CredentialStore,
	users repository.UserDirectory,
	refreshTokens repository.RefreshTokenStore,
	blacklist repository.BlacklistStore,
	hasher auth.PasswordHasher,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		credentials:   credentials,
		users:         users,
		refreshTokens: refreshTokens,
		blacklist:     blacklist,
		hasher:        hasher,
		jwtManager:    jwtManager,
		producer:      producer,
		logger:        logger,
	}
}

// LoginInput holds the parameters for a login attempt.
type LoginInput struct {
	CredentialType string
	Identifier     string
	Password       string
	ClientIP       string
	UserAgent      string
}

// LoginResult is the token pair returned on successful login.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshResult is the new access token returned on successful refresh.
type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Login authenticates a credential and issues an access/refresh token pair.
// Checks run in a fixed order and short-circuit on the first failure; no
// state is written before both tokens are issued.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	credType, err := domain.ParseCredentialType(input.CredentialType)
	if err != nil {
		return nil, ErrInvalidCredentialType(input.CredentialType)
	}

	cred, err := s.credentials.Get(ctx, credType, input.Identifier)
	if err != nil {
		return nil, ErrCredentialNotFound()
	}

	if !s.hasher.Matches(input.Password, cred.PasswordHash) {
		return nil, ErrInvalidCredential()
	}

	user, err := s.users.GetByID(ctx, cred.SubjectID)
	if err != nil {
		return nil, ErrUserNotFound(cred.SubjectID)
	}

	if !user.CanUseSystem() {
		return nil, ErrInvalidUserStatus(user.Status)
	}

	accessToken, err := s.jwtManager.Generate(user.ID, domain.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.Generate(user.ID, domain.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	record := &domain.RefreshTokenRecord{
		ID:        refreshToken.ID,
		SubjectID: refreshToken.SubjectID,
		IssuedAt:  refreshToken.IssuedAt,
		ExpiresAt: refreshToken.ExpiresAt,
	}
	if err := s.refreshTokens.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	// Publish login event (non-blocking on failure).
	if err := s.producer.PublishUserLoggedIn(ctx, user.ID, credType, accessToken.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish auth.logged-in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("credential_type", string(credType)),
	)

	return &LoginResult{
		AccessToken:  accessToken.SignedValue,
		RefreshToken: refreshToken.SignedValue,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(accessToken.RemainingValidity() / time.Second),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is left untouched; it stays usable until logout or
// expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenString string) (*RefreshResult, error) {
	token, err := s.jwtManager.Validate(refreshTokenString)
	if err != nil {
		return nil, ErrInvalidToken("invalid refresh token")
	}

	if !token.IsRefresh() {
		return nil, ErrInvalidToken("token type must be REFRESH")
	}

	if token.IsExpired() {
		return nil, ErrExpiredToken()
	}

	if _, err := s.refreshTokens.Get(ctx, token.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrTokenNotFound()
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	revoked, err := s.blacklist.Contains(ctx, token.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, ErrBlacklistedToken()
	}

	accessToken, err := s.jwtManager.Generate(token.SubjectID, domain.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		slog.String("user_id", token.SubjectID),
	)

	return &RefreshResult{
		AccessToken: accessToken.SignedValue,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(accessToken.RemainingValidity() / time.Second),
	}, nil
}

// ValidateAccess checks an access token for bearer-authenticated routes and
// returns the subject it was issued to. Revoked tokens are rejected for as
// long as their blacklist entries live.
func (s *AuthService) ValidateAccess(ctx context.Context, accessTokenString string) (string, error) {
	token, err := s.jwtManager.Validate(accessTokenString)
	if err != nil {
		return "", ErrInvalidToken("invalid access token")
	}

	if !token.IsAccess() {
		return "", ErrInvalidToken("token type must be ACCESS")
	}

	if token.IsExpired() {
		return "", ErrExpiredToken()
	}

	revoked, err := s.blacklist.Contains(ctx, token.ID)
	if err != nil {
		return "", fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return "", ErrBlacklistedToken()
	}

	return token.SubjectID, nil
}

// Logout revokes a refresh token and, when presented, the access token
// issued alongside it. Blacklist entries live only for the tokens'
// remaining validity; tokens already past expiry need no entry.
func (s *AuthService) Logout(ctx context.Context, refreshTokenString, accessTokenString string) error {
	refreshToken, err := s.jwtManager.Validate(refreshTokenString)
	if err != nil {
		return ErrInvalidToken("invalid refresh token")
	}
	if !refreshToken.IsRefresh() {
		return ErrInvalidToken("token type must be REFRESH")
	}

	if err := s.refreshTokens.Delete(ctx, refreshToken.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if ttl := refreshToken.RemainingValidity(); ttl > 0 {
		if err := s.blacklist.Add(ctx, refreshToken.ID, ttl); err != nil {
			return fmt.Errorf("blacklist refresh token: %w", err)
		}
	}

	if accessTokenString != "" {
		if accessToken, err := s.jwtManager.Validate(accessTokenString); err == nil {
			if ttl := accessToken.RemainingValidity(); ttl > 0 {
				if err := s.blacklist.Add(ctx, accessToken.ID, ttl); err != nil {
					return fmt.Errorf("blacklist access token: %w", err)
				}
			}
		}
	}

	// Publish logout event (non-blocking on failure).
	if err := s.producer.PublishUserLoggedOut(ctx, refreshToken.SubjectID, refreshToken.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish auth.logged-out event",
			slog.String("user_id", refreshToken.SubjectID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", refreshToken.SubjectID),
	)

	return nil
}
