package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	h := HashToken("browser-123")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("browser-123"), "deterministic")
	assert.NotEqual(t, h, HashToken("browser-124"))
	assert.NotContains(t, h, "browser")
}
