package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/lock"
)

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// assertMutualExclusion runs workers that each increment a shared counter
// non-atomically while holding the lock.
func assertMutualExclusion(t *testing.T, l locker) {
	t.Helper()
	ctx := context.Background()

	const workers = 30
	counter := 0
	inside := 0
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "event-1:user-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			assert.Equal(t, 1, inside)
			mu.Unlock()

			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLocal_mutual_exclusion(t *testing.T) {
	assertMutualExclusion(t, lock.NewLocal())
}

func TestLocal_independent_keys(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_context_cancelled(t *testing.T) {
	l := lock.NewLocal()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}
