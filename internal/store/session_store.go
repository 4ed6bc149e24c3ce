package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/oralis/viva-backend/internal/adaptive"
	"github.com/oralis/viva-backend/internal/config"
)

// ErrNotFound is returned when a session is neither in memory nor in Redis.
var ErrNotFound = errors.New("session not found in store")

type entry struct {
	mu       sync.Mutex
	session  *adaptive.Session
	lastSeen time.Time
}

// SessionStore keeps live adaptive sessions in memory and mirrors every
// mutation to Redis so a restarted server can rehydrate in-flight sessions.
// All access to a session goes through WithSession, which serializes
// concurrent submits for the same session id.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]*entry

	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore creates a SessionStore. rdb may be nil, in which case
// snapshots are skipped and sessions live only in memory.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		entries: make(map[string]*entry),
		rdb:     rdb,
		ttl:     ttl,
	}
}

// Put registers a session and writes its initial snapshot.
func (s *SessionStore) Put(ctx context.Context, session *adaptive.Session) error {
	e := &entry{session: session, lastSeen: time.Now()}

	s.mu.Lock()
	s.entries[session.ID] = e
	s.mu.Unlock()

	return s.snapshot(ctx, session)
}

// WithSession runs fn with exclusive access to the session, then mirrors the
// (possibly mutated) state to Redis. fn's error is returned as-is; snapshot
// failures are logged but do not fail the call, the in-memory state is
// authoritative while the server is up.
func (s *SessionStore) WithSession(ctx context.Context, sessionID string, fn func(*adaptive.Session) error) error {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastSeen = time.Now()
	if err := fn(e.session); err != nil {
		return err
	}
	if err := s.snapshot(ctx, e.session); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session snapshot failed")
	}
	return nil
}

// Get returns a point-in-time snapshot of the session's public state.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (adaptive.Snapshot, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return adaptive.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot(), nil
}

// Remove drops the session from memory and deletes its Redis snapshot.
func (s *SessionStore) Remove(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, config.CacheKey.ActiveSessionKey(sessionID)).Err(); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete session snapshot")
		}
	}
}

// Expired returns the ids of sessions idle longer than the store TTL.
func (s *SessionStore) Expired(now time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, e := range s.entries {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen)
		e.mu.Unlock()
		if idle > s.ttl {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len reports the number of sessions currently held in memory.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *SessionStore) lookup(ctx context.Context, sessionID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	// not in memory: try rehydrating from the Redis snapshot
	session, err := s.rehydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[sessionID]; ok {
		// lost the race to another rehydrating goroutine
		return existing, nil
	}
	e = &entry{session: session, lastSeen: time.Now()}
	s.entries[sessionID] = e
	return e, nil
}

func (s *SessionStore) rehydrate(ctx context.Context, sessionID string) (*adaptive.Session, error) {
	if s.rdb == nil {
		return nil, ErrNotFound
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.ActiveSessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var session adaptive.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	log.Info().Str("session_id", sessionID).Msg("session rehydrated from snapshot")
	return &session, nil
}

func (s *SessionStore) snapshot(ctx context.Context, session *adaptive.Session) error {
	if s.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, config.CacheKey.ActiveSessionKey(session.ID), raw, s.ttl).Err()
}
