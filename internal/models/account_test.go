package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, s)

	_, err = ParseStatus("Active")
	assert.Error(t, err)
}

func TestAccount_JSONNeverContainsHash(t *testing.T) {
	now := time.Now().UTC()
	a := &Account{
		ID:           "id-1",
		FullName:     "Unit Test",
		Email:        "t@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    now,
	}

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = json.Marshal(a.Project())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"fullName":"Unit Test"`)
}
