package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llama-arcade/internal/config"
)

func TestProfileFromClaims(t *testing.T) {
	p := ProfileFromClaims("uid-1", map[string]any{
		"email":       "larry@example.com",
		"given_name":  "Larry",
		"family_name": "Llama",
		"picture":     "https://example.com/larry.png",
		"name":        "Larry Llama",
	})

	assert.Equal(t, "uid-1", p.ID)
	require.NotNil(t, p.Email)
	assert.Equal(t, "larry@example.com", *p.Email)
	assert.Equal(t, "Larry", *p.FirstName)
	assert.Equal(t, "Llama", *p.LastName)
	assert.Equal(t, "https://example.com/larry.png", *p.ProfileImageURL)
}

func TestProfileFromClaims_Sparse(t *testing.T) {
	p := ProfileFromClaims("uid-2", map[string]any{"name": "Dolly", "email": "", "picture": 42})

	assert.Equal(t, "Dolly", *p.FirstName)
	assert.Nil(t, p.Email)
	assert.Nil(t, p.LastName)
	assert.Nil(t, p.ProfileImageURL)
}

func TestNewFirebaseVerifier_RequiresProject(t *testing.T) {
	_, err := NewFirebaseVerifier(context.Background(), config.AuthConfig{})
	assert.Error(t, err)
}
