// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade/fbtest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(ttl time.Duration) (*SessionCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sc := NewSessionCache(ttl)
	sc.now = clock.Now
	return sc, clock
}

func TestSessionCacheReuse(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, _ := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	c1, release1, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)
	c2, release2, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)
	release1()
	release2()
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, array.Logins())
	assert.Equal(t, 1, sc.Len())
}

func TestSessionCacheSeparateTokens(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, _ := newTestCache(time.Minute)

	_, release, err := sc.Acquire(context.Background(), &Credentials{Host: array.URL(), APIToken: testToken})
	require.NoError(t, err)
	release()
	_, _, err = sc.Acquire(context.Background(), &Credentials{Host: array.URL(), APIToken: "T-other"})
	require.Error(t, err)
	assert.Equal(t, fberrors.Unauthenticated, fberrors.CodeOf(err))
	assert.Equal(t, 1, sc.Len())
}

func TestSessionCacheInvalidCredentials(t *testing.T) {
	sc, _ := newTestCache(time.Minute)
	_, _, err := sc.Acquire(context.Background(), &Credentials{Host: "10.0.0.5"})
	assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
	_, _, err = sc.Acquire(context.Background(), nil)
	assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
}

// acquire returns a client for creds and releases it right away
func acquire(t *testing.T, sc *SessionCache, creds *Credentials) *Client {
	t.Helper()
	c, release, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)
	release()
	return c
}

func TestSessionCacheExpiry(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, clock := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	c1 := acquire(t, sc, creds)

	clock.Advance(30 * time.Second)
	acquire(t, sc, creds)

	// use refreshed the idle timer
	clock.Advance(45 * time.Second)
	c2 := acquire(t, sc, creds)
	assert.Same(t, c1, c2)

	clock.Advance(2 * time.Minute)
	c3 := acquire(t, sc, creds)
	assert.NotSame(t, c1, c3)
	assert.Equal(t, 2, array.Logins())
	assert.Equal(t, 1, array.Logouts())
}

func TestSessionCacheSweepAndClose(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, clock := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	acquire(t, sc, creds)

	assert.Equal(t, 0, sc.Sweep(context.Background()))
	clock.Advance(time.Minute)
	assert.Equal(t, 1, sc.Sweep(context.Background()))
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 1, array.Logouts())

	acquire(t, sc, creds)
	sc.Evict(context.Background(), creds)
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 2, array.Logouts())

	acquire(t, sc, creds)
	sc.Close(context.Background())
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 3, array.Logouts())
}

func TestSessionCacheEvictInUse(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	array.SetItems("arrays", `{"name":"fb01"}`)
	sc, _ := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	inUse, release, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)

	sc.Evict(context.Background(), creds)
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 0, array.Logouts())

	// the holder keeps working on its session
	_, err = inUse.Call(context.Background(), "get_arrays", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, array.Logins())

	release()
	assert.False(t, inUse.LoggedIn())
	assert.Equal(t, 1, array.Logouts())

	release()
	sc.Close(context.Background())
	assert.Equal(t, array.Logins(), array.Logouts())
}

func TestSessionCacheSweepSkipsInUse(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, clock := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	c1, release, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, sc.Sweep(context.Background()))
	assert.Equal(t, 1, sc.Len())

	// a second caller shares the held session even past the ttl
	c2 := acquire(t, sc, creds)
	assert.Same(t, c1, c2)

	release()
	assert.Equal(t, 0, sc.Sweep(context.Background()))
	clock.Advance(time.Minute)
	assert.Equal(t, 1, sc.Sweep(context.Background()))
	assert.Equal(t, 1, array.Logins())
	assert.Equal(t, 1, array.Logouts())
}

func TestSessionCacheCloseInUse(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, _ := newTestCache(time.Minute)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	c, release, err := sc.Acquire(context.Background(), creds)
	require.NoError(t, err)

	sc.Close(context.Background())
	assert.Equal(t, 0, sc.Len())
	assert.True(t, c.LoggedIn())
	assert.Equal(t, 0, array.Logouts())

	release()
	assert.False(t, c.LoggedIn())
	assert.Equal(t, 1, array.Logouts())
}

func TestSessionCacheSetTTL(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, clock := newTestCache(time.Minute)

	acquire(t, sc, &Credentials{Host: array.URL(), APIToken: testToken})
	sc.SetTTL(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, sc.TTL())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, sc.Sweep(context.Background()))

	sc.SetTTL(0)
	assert.Equal(t, DefaultSessionTTL, sc.TTL())
	sc.SetTTL(time.Minute)
	assert.Equal(t, 1, sc.Sweep(context.Background()))
}

func TestSessionCacheConcurrentLogin(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc := NewSessionCache(0)

	creds := &Credentials{Host: array.URL(), APIToken: testToken}
	var wg sync.WaitGroup
	clients := make([]*Client, 8)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, release, err := sc.Acquire(context.Background(), creds)
			if assert.NoError(t, err) {
				defer release()
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, array.Logins())
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestSessionCacheRun(t *testing.T) {
	array := fbtest.NewArray(testToken)
	defer array.Close()
	sc, clock := newTestCache(time.Minute)

	acquire(t, sc, &Credentials{Host: array.URL(), APIToken: testToken})
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return sc.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
