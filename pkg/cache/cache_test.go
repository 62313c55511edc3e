package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheIsPassThrough(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"productivity"}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := Remember(ctx, c, "categories", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"productivity"}, got)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.Invalidate(ctx))
	assert.NoError(t, c.SetJSON(ctx, "x", 1))

	hit, err := c.GetJSON(ctx, "x", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestRememberPropagatesLoadError(t *testing.T) {
	c := New(nil, 0, nil)
	boom := errors.New("db down")
	_, err := Remember(context.Background(), c, "tags", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
