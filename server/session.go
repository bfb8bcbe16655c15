package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/arozco/mesero/dialogue"
)

const cleanupCheckInterval = 1 * time.Minute

// session binds one conversation's router to its serialization lock. All
// utterances of one session run under mu, which is what lets the ledger and
// router stay lock-free internally.
type session struct {
	id         string
	router     *dialogue.Router
	mu         sync.Mutex
	lastActive atomic.Int64 // unix nanos; atomic so eviction never waits on mu
}

// SessionManager owns the live sessions: it mints IDs, serializes utterances
// per session and evicts sessions that stayed idle past the timeout.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	idle      time.Duration
	newRouter func(sessionID string) *dialogue.Router
	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionManager creates a manager and starts its idle-eviction loop.
// newRouter is called once per new session to build its conversation state.
func NewSessionManager(idle time.Duration, newRouter func(sessionID string) *dialogue.Router) *SessionManager {
	sm := &SessionManager{
		sessions:  make(map[string]*session),
		idle:      idle,
		newRouter: newRouter,
		done:      make(chan struct{}),
	}
	go sm.cleanupLoop()
	return sm
}

// Handle routes one utterance for the session, creating the session when the
// ID is empty or unknown. It returns the (possibly freshly minted) session ID
// together with the routing result. Concurrent calls for the same session are
// serialized; different sessions proceed in parallel.
func (sm *SessionManager) Handle(ctx context.Context, sessionID, text string) (string, dialogue.Result) {
	sess := sm.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive.Store(time.Now().UnixNano())
	return sess.id, sess.router.Handle(ctx, text)
}

func (sm *SessionManager) getOrCreate(sessionID string) *session {
	if sessionID != "" {
		sm.mu.RLock()
		sess, ok := sm.sessions[sessionID]
		sm.mu.RUnlock()
		if ok {
			return sess
		}
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sessionID != "" {
		if sess, ok := sm.sessions[sessionID]; ok {
			return sess
		}
	} else {
		sessionID = shortuuid.New()
	}

	sess := &session{
		id:     sessionID,
		router: sm.newRouter(sessionID),
	}
	sess.lastActive.Store(time.Now().UnixNano())
	sm.sessions[sessionID] = sess

	slog.Debug("session created", "session", sessionID)
	return sess
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Shutdown stops the eviction loop.
func (sm *SessionManager) Shutdown() {
	sm.closeOnce.Do(func() { close(sm.done) })
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.evictIdle()
		case <-sm.done:
			return
		}
	}
}

// evictIdle drops sessions idle past the timeout. An evicted session loses
// its unconfirmed order; confirmed orders are already persisted.
func (sm *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-sm.idle).UnixNano()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		if sess.lastActive.Load() < cutoff {
			delete(sm.sessions, id)
			slog.Debug("session evicted", "session", id)
		}
	}
}
