package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandStr(t *testing.T) {
	s := RandStr(10)
	assert.Len(t, s, 10)
	assert.Regexp(t, `^[a-zA-Z]{10}$`, s)
}

func TestNewID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id, err := NewID()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-zA-Z]{16}$`, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
