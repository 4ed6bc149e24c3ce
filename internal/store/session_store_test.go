package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralis/viva-backend/internal/adaptive"
)

func testBank() []adaptive.Question {
	return []adaptive.Question{
		{ID: 1, Text: "Explain process isolation.", Difficulty: -1.2, Topic: "os"},
		{ID: 2, Text: "Walk through a page fault.", Difficulty: 0.4, Topic: "os"},
		{ID: 3, Text: "Compare TCP and UDP.", Difficulty: 0.0, Topic: "networking"},
		{ID: 4, Text: "What does a three-way handshake establish?", Difficulty: 1.1, Topic: "networking"},
		{ID: 5, Text: "Describe ARP resolution.", Difficulty: 2.0, Topic: "networking"},
	}
}

func newTestStore(ttl time.Duration) *SessionStore {
	// nil Redis client: snapshots are skipped, memory is the only tier
	return NewSessionStore(nil, ttl)
}

func TestSessionStorePutAndGet(t *testing.T) {
	s := newTestStore(time.Hour)
	ctx := context.Background()

	session, err := adaptive.NewSession("sess-1", "student-1", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, session))

	snap, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, snap.IsComplete)
	require.NotNil(t, snap.Current)
	assert.Equal(t, int64(1), snap.Current.ID)
}

func TestSessionStoreGetMissing(t *testing.T) {
	s := newTestStore(time.Hour)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStoreWithSessionMutates(t *testing.T) {
	s := newTestStore(time.Hour)
	ctx := context.Background()

	session, err := adaptive.NewSession("sess-1", "student-1", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, session))

	err = s.WithSession(ctx, "sess-1", func(sess *adaptive.Session) error {
		_, err := sess.SubmitAnswer(sess.Current.ID, 80)
		return err
	})
	require.NoError(t, err)

	snap, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.QuestionsAsked)
}

func TestSessionStoreWithSessionPropagatesError(t *testing.T) {
	s := newTestStore(time.Hour)
	ctx := context.Background()

	session, err := adaptive.NewSession("sess-1", "student-1", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, session))

	err = s.WithSession(ctx, "sess-1", func(sess *adaptive.Session) error {
		_, err := sess.SubmitAnswer(sess.Current.ID, 150)
		return err
	})
	assert.ErrorIs(t, err, adaptive.ErrInvalidScore)
}

func TestSessionStoreConcurrentSubmitsSerialize(t *testing.T) {
	s := newTestStore(time.Hour)
	ctx := context.Background()

	session, err := adaptive.NewSession("sess-1", "student-1", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, session))

	// hammer the same session from many goroutines; each submit targets
	// whatever question is current under the lock, so exactly 5 succeed
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithSession(ctx, "sess-1", func(sess *adaptive.Session) error {
				if sess.IsComplete() {
					return adaptive.ErrSessionClosed
				}
				_, err := sess.SubmitAnswer(sess.Current.ID, 70)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	snap, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, snap.IsComplete)
	assert.Equal(t, 5, snap.QuestionsAsked)
}

func TestSessionStoreRemove(t *testing.T) {
	s := newTestStore(time.Hour)
	ctx := context.Background()

	session, err := adaptive.NewSession("sess-1", "student-1", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, session))
	assert.Equal(t, 1, s.Len())

	s.Remove(ctx, "sess-1")
	assert.Equal(t, 0, s.Len())
	_, err = s.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStoreExpired(t *testing.T) {
	s := newTestStore(10 * time.Minute)
	ctx := context.Background()

	fresh, err := adaptive.NewSession("fresh", "student-1", testBank(), 5)
	require.NoError(t, err)
	stale, err := adaptive.NewSession("stale", "student-2", testBank(), 5)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, fresh))
	require.NoError(t, s.Put(ctx, stale))

	s.mu.Lock()
	s.entries["stale"].lastSeen = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	expired := s.Expired(time.Now())
	assert.Equal(t, []string{"stale"}, expired)
}
