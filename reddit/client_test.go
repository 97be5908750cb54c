package reddit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessTokenValid(t *testing.T) {
	t.Run("unexpired token is valid", func(t *testing.T) {
		token := accessToken{Token: "abc", Expires: time.Now().Add(time.Hour)}
		assert.True(t, token.valid())
	})

	t.Run("expired token is invalid", func(t *testing.T) {
		token := accessToken{Token: "abc", Expires: time.Now().Add(-time.Minute)}
		assert.False(t, token.valid())
	})

	t.Run("zero token is invalid", func(t *testing.T) {
		assert.False(t, accessToken{}.valid())
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{Path: "/api/comment", StatusCode: 403, Body: "forbidden"}
	assert.Contains(t, err.Error(), "/api/comment")
	assert.Contains(t, err.Error(), "403")
}
