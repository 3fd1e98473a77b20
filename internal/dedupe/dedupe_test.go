package dedupe

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestMemoryStore_Claim(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(time.Minute)

	ok, err := s.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "replayed key must be rejected")

	ok, _ = s.Claim(ctx, "other")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Minute)
	ok, _ = s.Claim(ctx, "abc")
	assert.True(t, ok, "expired key can be claimed again")
}

func TestMemoryStore_Release(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(time.Minute)

	ok, _ := s.Claim(ctx, "abc")
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "abc"))

	ok, _ = s.Claim(ctx, "abc")
	assert.True(t, ok, "released key can be claimed again")
	assert.NoError(t, s.Release(ctx, "never-claimed"))
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(time.Minute)

	_, _ = s.Claim(ctx, "a")
	clock.t = clock.t.Add(30 * time.Second)
	_, _ = s.Claim(ctx, "b")
	clock.t = clock.t.Add(40 * time.Second)

	assert.Equal(t, 1, s.cleanupExpired())
	assert.Equal(t, 1, s.Len())

	ok, _ := s.Claim(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Claim(context.Background(), "same"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStore_RunStopsWithContext(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_FallsBackToMemory(t *testing.T) {
	s := New(nil, time.Minute, slog.New(slog.DiscardHandler))
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "coords-bot:interaction:42", redisKey("42"))
}
