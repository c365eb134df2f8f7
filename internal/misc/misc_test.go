package misc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 5))
	assert.Equal(t, 5, Max(2, 5))
	assert.Equal(t, "a", Min("a", "b"))
	assert.Equal(t, 1.5, Max(1.5, -1.5))
}

func TestStringLimit(t *testing.T) {
	assert.Equal(t, "short", StringLimit("short", 10))
	assert.Equal(t, "exact", StringLimit("exact", 5))
	assert.Equal(t, "lon...", StringLimit("long string", 6))
	assert.Equal(t, "ab", StringLimit("abcdef", 2))
	assert.Equal(t, "", StringLimit("abc", -1))
}

func TestBytesLimit(t *testing.T) {
	assert.Equal(t, []byte("short"), BytesLimit([]byte("short"), 10))
	assert.Equal(t, []byte("lon..."), BytesLimit([]byte("long bytes"), 6))
	assert.Nil(t, BytesLimit([]byte("abc"), -1))
}
