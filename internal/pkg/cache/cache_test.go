package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NoopCache{}

	assert.NoError(t, c.Set(ctx, "rule:deduction:2026-01-01", []byte("x"), time.Minute))

	_, err := c.Get(ctx, "rule:deduction:2026-01-01")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, c.DeletePrefix(ctx, "rule:"))
}
