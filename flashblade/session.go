// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"context"
	"sync"
	"time"

	"github.com/pureflashblade/pureflashblade-mcp/concurrent"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

// DefaultSessionTTL is how long an unused session is kept before it is logged out
const DefaultSessionTTL = 15 * time.Minute

type session struct {
	client   *Client
	lastUsed time.Time
	// users counts the callers holding the client
	users int
	// retired sessions are no longer cached and are logged out once users drops to zero
	retired bool
}

// SessionCache keeps one logged in Client per array and API token
type SessionCache struct {
	mutex    sync.RWMutex
	sessions map[string]*session
	logins   *concurrent.MapMutex
	ttl      time.Duration
	opts     []Option
	now      func() time.Time
}

// NewSessionCache returns an empty cache. A ttl of zero selects DefaultSessionTTL; opts are
// applied to every Client the cache creates.
func NewSessionCache(ttl time.Duration, opts ...Option) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCache{
		sessions: make(map[string]*session),
		logins:   concurrent.NewMapMutex(),
		ttl:      ttl,
		opts:     opts,
		now:      time.Now,
	}
}

// TTL returns the idle time after which a session is logged out
func (sc *SessionCache) TTL() time.Duration {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.ttl
}

// SetTTL changes the idle timeout of every session, cached ones included
func (sc *SessionCache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	if sc.ttl != ttl {
		log.Infof("session ttl changed from %s to %s", sc.ttl, ttl)
		sc.ttl = ttl
	}
}

// Acquire returns a logged in client for creds, reusing a live session when there is one.
// Concurrent callers with the same credentials share a single login. The session is not
// logged out before release is called; release may be called more than once.
func (sc *SessionCache) Acquire(ctx context.Context, creds *Credentials) (client *Client, release func(), err error) {
	log.Trace(">>>>> SessionCache.Acquire")
	defer log.Trace("<<<<< SessionCache.Acquire")

	if err := creds.validate(); err != nil {
		return nil, nil, err
	}
	key := creds.key()
	sc.logins.Lock(key)
	defer sc.logins.Unlock(key)

	sc.mutex.Lock()
	s, ok := sc.sessions[key]
	if ok && (s.users > 0 || sc.now().Sub(s.lastUsed) < sc.ttl) {
		s.users++
		s.lastUsed = sc.now()
		sc.mutex.Unlock()
		return s.client, sc.releaser(s), nil
	}
	var stale *session
	if ok {
		stale = sc.retireLocked(key, s)
	}
	sc.mutex.Unlock()

	if stale != nil {
		log.Debugf("session to %s expired", stale.client.Host())
		sc.logout(ctx, stale)
	}

	client, err = NewClient(creds, sc.opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, nil, err
	}

	s = &session{client: client, lastUsed: sc.now(), users: 1}
	sc.mutex.Lock()
	sc.sessions[key] = s
	sc.mutex.Unlock()
	return client, sc.releaser(s), nil
}

func (sc *SessionCache) releaser(s *session) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			sc.mutex.Lock()
			s.users--
			s.lastUsed = sc.now()
			idle := s.retired && s.users == 0
			sc.mutex.Unlock()
			if idle {
				sc.logout(context.Background(), s)
			}
		})
	}
}

// retireLocked removes s from the cache and returns it when nobody holds it, in which case
// the caller logs it out. sc.mutex must be held.
func (sc *SessionCache) retireLocked(key string, s *session) *session {
	if sc.sessions[key] == s {
		delete(sc.sessions, key)
	}
	s.retired = true
	if s.users > 0 {
		return nil
	}
	return s
}

func (sc *SessionCache) logout(ctx context.Context, s *session) {
	if err := s.client.Logout(ctx); err != nil {
		log.Debugf("logout from %s failed: %v", s.client.Host(), err)
	}
}

// Evict drops the session for creds. It is logged out as soon as no caller holds it.
func (sc *SessionCache) Evict(ctx context.Context, creds *Credentials) {
	if creds.validate() != nil {
		return
	}
	key := creds.key()
	sc.logins.Lock(key)
	defer sc.logins.Unlock(key)

	sc.mutex.Lock()
	var idle *session
	if s, ok := sc.sessions[key]; ok {
		idle = sc.retireLocked(key, s)
	}
	sc.mutex.Unlock()
	if idle != nil {
		sc.logout(ctx, idle)
	}
}

// Sweep logs out every session idle for longer than the TTL and returns how many it removed.
// Sessions held by a caller are never idle.
func (sc *SessionCache) Sweep(ctx context.Context) int {
	sc.mutex.Lock()
	var expired []*session
	for key, s := range sc.sessions {
		if s.users == 0 && sc.now().Sub(s.lastUsed) >= sc.ttl {
			expired = append(expired, sc.retireLocked(key, s))
		}
	}
	sc.mutex.Unlock()

	for _, s := range expired {
		sc.logout(ctx, s)
	}
	if len(expired) > 0 {
		log.Debugf("swept %d idle sessions", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done. A zero interval sweeps every half TTL, following
// TTL changes.
func (sc *SessionCache) Run(ctx context.Context, interval time.Duration) {
	for {
		d := interval
		if d <= 0 {
			d = sc.TTL() / 2
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			sc.Sweep(ctx)
		}
	}
}

// Len returns the number of cached sessions
func (sc *SessionCache) Len() int {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return len(sc.sessions)
}

// Close logs out every session. Sessions still held are logged out when released.
func (sc *SessionCache) Close(ctx context.Context) {
	sc.mutex.Lock()
	var idle []*session
	for key, s := range sc.sessions {
		if s := sc.retireLocked(key, s); s != nil {
			idle = append(idle, s)
		}
	}
	sc.mutex.Unlock()

	for _, s := range idle {
		if err := s.client.Logout(ctx); err != nil {
			log.Warnf("logout from %s failed: %v", s.client.Host(), err)
		}
	}
}
