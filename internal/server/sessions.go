package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/recalc"
)

// Session limits.
const (
	DefaultMaxSessions = 1000
	DefaultSessionTTL  = 30 * time.Minute
)

// session is one live document being edited, with its own debounced driver.
type session struct {
	id       uuid.UUID
	driver   *recalc.Driver
	keywords []string

	mu          sync.Mutex
	subscribers map[chan recalc.State]struct{}
	lastActive  time.Time
	closed      bool
	done        chan struct{}
}

// publish hands state to every subscriber. A slow subscriber only keeps the newest state.
func (s *session) publish(state recalc.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for ch := range s.subscribers {
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

// subscribe registers a state channel. The returned func unregisters it.
func (s *session) subscribe() (<-chan recalc.State, func()) {
	ch := make(chan recalc.State, 1)

	s.mu.Lock()
	if !s.closed {
		s.subscribers[ch] = struct{}{}
	}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}
}

func (s *session) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// close stops the driver and ends every stream.
func (s *session) close() {
	s.driver.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subscribers = nil
	close(s.done)
}

// SessionManager owns the live scoring sessions.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	scorer *ats.Scorer
	sched  recalc.Scheduler
	opts   recalc.Options
	max    int
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionManager creates a manager whose drivers share scorer and sched.
func NewSessionManager(scorer *ats.Scorer, sched recalc.Scheduler, opts recalc.Options, logger *slog.Logger) *SessionManager {
	if sched == nil {
		sched = recalc.SystemScheduler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[uuid.UUID]*session),
		scorer:   scorer,
		sched:    sched,
		opts:     opts,
		max:      DefaultMaxSessions,
		ttl:      DefaultSessionTTL,
		logger:   logger,
	}
}

// Create opens a session whose recalculations default to keywords.
func (m *SessionManager) Create(keywords []string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, &ErrTooManySessions{Limit: m.max}
	}

	id := uuid.New()
	sess := &session{
		id:          id,
		keywords:    append([]string(nil), keywords...),
		subscribers: make(map[chan recalc.State]struct{}),
		lastActive:  m.sched.Now(),
		done:        make(chan struct{}),
	}

	opts := m.opts
	opts.Logger = m.logger.With(slog.String("session", id.String()))
	opts.OnChange = sess.publish
	sess.driver = recalc.NewDriver(m.scorer, m.sched, opts)

	m.sessions[id] = sess
	m.logger.Debug("session opened", slog.String("session", id.String()), slog.Int("keywords", len(sess.keywords)))
	return sess, nil
}

// Get returns an open session by its string ID.
func (m *SessionManager) Get(id string) (*session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &ErrSessionNotFound{SessionID: id}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[parsed]
	if !ok {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return sess, nil
}

// Delete closes and forgets a session.
func (m *SessionManager) Delete(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sess.id)
	m.mu.Unlock()

	sess.close()
	m.logger.Debug("session closed", slog.String("session", id))
	return nil
}

// ReapIdle closes sessions idle for longer than the TTL and returns how many were closed.
func (m *SessionManager) ReapIdle() int {
	cutoff := m.sched.Now().Add(-m.ttl)

	m.mu.Lock()
	var idle []*session
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.close()
	}
	if len(idle) > 0 {
		m.logger.Info("reaped idle sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// CloseAll closes every session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		all = append(all, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

// Len returns the number of open sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
