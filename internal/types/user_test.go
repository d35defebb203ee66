package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane@example.com", "jane@example.com"},
		{"  Jane@Example.COM ", "jane@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}

func TestUserProjections(t *testing.T) {
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	u := &User{
		ID:        "u1",
		Username:  "jane",
		Email:     "jane@example.com",
		Password:  "$2a$10$hash",
		Contact:   "555-0100",
		Provider:  ProviderGoogle,
		Social:    Social{GoogleID: "g-123"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	assert.Equal(t, PublicUser{ID: "u1", Username: "jane", Email: "jane@example.com"}, u.Public())

	p := u.Profile()
	assert.Equal(t, "g-123", p.Social.GoogleID)
	assert.Equal(t, ProviderGoogle, p.Provider)
	assert.Equal(t, "555-0100", p.Contact)

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "$2a$10$hash")
	assert.Contains(t, string(b), `"googleId":"g-123"`)
}

func TestSocialOmitsEmptyGoogleID(t *testing.T) {
	b, err := json.Marshal(Social{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}
