package service

import (
	"fmt"
	"net/http"

	"github.com/authhub/authhub/internal/domain"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// Auth flow failures carry stable codes so clients can branch on them
// without parsing messages. All are terminal outcomes of one request.

// ErrInvalidCredentialType signals an unrecognized credential kind.
func ErrInvalidCredentialType(value string) *apperrors.AppError {
	return apperrors.New(
		"INVALID_CREDENTIAL_TYPE",
		fmt.Sprintf("unknown credential type %q", value),
		http.StatusBadRequest,
		apperrors.ErrInvalidInput,
	)
}

// ErrCredentialNotFound signals no credential exists for (type, identifier).
func ErrCredentialNotFound() *apperrors.AppError {
	return apperrors.New(
		"CREDENTIAL_NOT_FOUND",
		"credential not found",
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrInvalidCredential signals a password mismatch.
func ErrInvalidCredential() *apperrors.AppError {
	return apperrors.New(
		"INVALID_CREDENTIAL",
		"invalid password",
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrUserNotFound signals a credential that resolves to a missing user.
func ErrUserNotFound(userID string) *apperrors.AppError {
	return apperrors.New(
		"USER_NOT_FOUND",
		fmt.Sprintf("user %s not found", userID),
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrInvalidUserStatus signals an account that exists but may not log in.
// The current status is carried in the message.
func ErrInvalidUserStatus(status domain.UserStatus) *apperrors.AppError {
	return apperrors.New(
		"INVALID_USER_STATUS",
		fmt.Sprintf("user status %s does not allow authentication", status),
		http.StatusForbidden,
		apperrors.ErrForbidden,
	)
}

// ErrInvalidToken signals a malformed, forged, or wrong-kind token.
func ErrInvalidToken(message string) *apperrors.AppError {
	return apperrors.New(
		"INVALID_TOKEN",
		message,
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrExpiredToken signals a refresh token past its expiry.
func ErrExpiredToken() *apperrors.AppError {
	return apperrors.New(
		"EXPIRED_TOKEN",
		"refresh token has expired",
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrTokenNotFound signals a refresh token absent from the store.
func ErrTokenNotFound() *apperrors.AppError {
	return apperrors.New(
		"TOKEN_NOT_FOUND",
		"refresh token not found",
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}

// ErrBlacklistedToken signals an explicitly revoked token.
func ErrBlacklistedToken() *apperrors.AppError {
	return apperrors.New(
		"BLACKLISTED_TOKEN",
		"token has been revoked",
		http.StatusUnauthorized,
		apperrors.ErrUnauthorized,
	)
}
