package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/result"
)

func request(i int) *result.CompileRequest {
	return &result.CompileRequest{
		SourceText: fmt.Sprintf("int main() { return %d; }", i),
		FileName:   result.DefaultFileName,
	}
}

func TestKeyOf(t *testing.T) {
	t.Run("should be deterministic", func(t *testing.T) {
		assert.Equal(t, KeyOf(request(1)), KeyOf(request(1)))
	})

	t.Run("should depend on every field", func(t *testing.T) {
		base := request(1)
		withInput := *base
		withInput.Stdin = "3\n"
		renamed := *base
		renamed.FileName = "other.cpp"

		assert.NotEqual(t, KeyOf(base), KeyOf(&withInput))
		assert.NotEqual(t, KeyOf(base), KeyOf(&renamed))
	})

	t.Run("should separate the fields", func(t *testing.T) {
		left := &result.CompileRequest{SourceText: "ab", Stdin: "c"}
		right := &result.CompileRequest{SourceText: "a", Stdin: "bc"}

		assert.NotEqual(t, KeyOf(left), KeyOf(right))
	})
}

func TestCacheEviction(t *testing.T) {
	c := New(DefaultCapacity)
	keys := make([]Key, 0, 51)

	for i := 0; i < 51; i++ {
		key := KeyOf(request(i))
		keys = append(keys, key)
		c.Put(key, &result.Outcome{Backend: backend.Primary})
	}

	require.Equal(t, DefaultCapacity, c.Len())

	_, ok := c.Get(keys[0])
	assert.False(t, ok, "the earliest insertion should have been evicted")

	for _, key := range keys[1:] {
		_, ok := c.Get(key)
		assert.True(t, ok)
	}
}

func TestCacheReadsDoNotRefresh(t *testing.T) {
	c := New(2)

	c.Put(1, &result.Outcome{})
	c.Put(2, &result.Outcome{})

	_, ok := c.Get(1)
	require.True(t, ok)

	c.Put(3, &result.Outcome{})

	_, ok = c.Get(1)
	assert.False(t, ok)

	_, ok = c.Get(2)
	assert.True(t, ok)
}

func TestCacheReplace(t *testing.T) {
	c := New(2)
	replacement := &result.Outcome{Backend: backend.Sandbox}

	c.Put(1, &result.Outcome{})
	c.Put(1, replacement)

	stored, ok := c.Get(1)
	require.True(t, ok)
	assert.Same(t, replacement, stored)
	assert.Equal(t, 1, c.Len())
}
