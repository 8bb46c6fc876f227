package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("browse")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerate_Valid(t *testing.T) {
	id := MustGenerate("browse")
	assert.True(t, Valid("browse", id))
	assert.False(t, Valid("search", id))
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"browse-0123456789abcdef", true},
		{"browse-0123456789abcde", false},
		{"browse-0123456789ABCDEF", false},
		{"browse0123456789abcdef", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid("browse", tt.in), tt.in)
	}
}
