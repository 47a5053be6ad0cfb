package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusDeleted   UserStatus = "DELETED"
)

// User represents an account known to the user directory.
type User struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CanUseSystem reports whether the user may authenticate. Only ACTIVE
// accounts may; suspended and deleted accounts are rejected at login.
func (u *User) CanUseSystem() bool {
	return u.Status == UserStatusActive
}

// CredentialType is the closed set of supported login identifier kinds.
type CredentialType string

const (
	CredentialTypeEmail    CredentialType = "EMAIL"
	CredentialTypeUsername CredentialType = "USERNAME"
	CredentialTypePhone    CredentialType = "PHONE"
)

// ParseCredentialType maps a request string onto the closed enumeration.
// Matching is case-insensitive; anything outside the set is an error.
func ParseCredentialType(s string) (CredentialType, error) {
	switch CredentialType(strings.ToUpper(s)) {
	case CredentialTypeEmail:
		return CredentialTypeEmail, nil
	case CredentialTypeUsername:
		return CredentialTypeUsername, nil
	case CredentialTypePhone:
		return CredentialTypePhone, nil
	default:
		return "", fmt.Errorf("unknown credential type %q", s)
	}
}

// Credential is a stored login credential owned by the credential store.
type Credential struct {
	SubjectID    string         `json:"subject_id"`
	Type         CredentialType `json:"type"`
	Identifier   string         `json:"identifier"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// UserGrants is the flattened permission/role view of a user, served to
// the gateway for local authorization decisions.
type UserGrants struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}
