package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToken_Kind(t *testing.T) {
	access := &Token{Kind: TokenKindAccess}
	refresh := &Token{Kind: TokenKindRefresh}

	assert.True(t, access.IsAccess())
	assert.False(t, access.IsRefresh())
	assert.True(t, refresh.IsRefresh())
	assert.False(t, refresh.IsAccess())
}

func TestToken_Expiry(t *testing.T) {
	live := &Token{ExpiresAt: time.Now().UTC().Add(10 * time.Minute)}
	expired := &Token{ExpiresAt: time.Now().UTC().Add(-time.Minute)}

	assert.False(t, live.IsExpired())
	assert.True(t, expired.IsExpired())

	assert.Greater(t, live.RemainingValidity(), 9*time.Minute)
	assert.Equal(t, time.Duration(0), expired.RemainingValidity())
}

func TestParseCredentialType(t *testing.T) {
	tests := []struct {
		input   string
		want    CredentialType
		wantErr bool
	}{
		{"EMAIL", CredentialTypeEmail, false},
		{"email", CredentialTypeEmail, false},
		{"Username", CredentialTypeUsername, false},
		{"PHONE", CredentialTypePhone, false},
		{"FAX", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCredentialType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUser_CanUseSystem(t *testing.T) {
	assert.True(t, (&User{Status: UserStatusActive}).CanUseSystem())
	assert.False(t, (&User{Status: UserStatusSuspended}).CanUseSystem())
	assert.False(t, (&User{Status: UserStatusDeleted}).CanUseSystem())
}

func TestTenant_IsActive(t *testing.T) {
	assert.True(t, (&Tenant{Status: TenantStatusActive}).IsActive())
	assert.False(t, (&Tenant{Status: TenantStatusSuspended}).IsActive())
}
