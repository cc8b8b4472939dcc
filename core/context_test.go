package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunIDContext(t *testing.T) {
	_, ok := getRunID(context.Background())
	assert.False(t, ok)

	// Disabled run stores hand out 0
	_, ok = getRunID(withRunID(context.Background(), 0))
	assert.False(t, ok)

	id, ok := getRunID(withRunID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)
}

// TestContextConcurrentAccess tests that the run id can be read from many project workers.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withRunID(context.Background(), 12345)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			id, ok := getRunID(ctx)
			assert.True(t, ok)
			assert.Equal(t, int64(12345), id)
		})
	}
	wg.Wait()
}
