// Package session keeps per-session conversation history in memory.
//
// History is a sliding window: every exchange appends a user/assistant pair
// and then drops the oldest messages beyond MaxHistory. The store guards its
// map, but two turns racing on the same session id is caller error; each
// channel is expected to process its turns sequentially.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"floodguard/internal/logging"
)

const (
	// DefaultMaxHistory bounds the history of a single session.
	DefaultMaxHistory = 12
	// DefaultWindow is how many recent messages are replayed to the model.
	DefaultWindow = 8
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one history entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// QueryContext records what the previous turn looked up.
type QueryContext struct {
	QueryType   string    `json:"query_type"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session is a snapshot of one conversation.
type Session struct {
	ID          string
	History     []Message
	LastContext *QueryContext
	CreatedAt   time.Time
	LastAccess  time.Time
}

func (s *Session) snapshot() Session {
	out := *s
	out.History = slices.Clone(s.History)
	if s.LastContext != nil {
		qc := *s.LastContext
		out.LastContext = &qc
	}
	return out
}

// Config configures a Store.
type Config struct {
	MaxHistory int
	// TTL evicts sessions idle for longer than this. Zero keeps sessions for
	// the life of the process.
	TTL time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store maps session ids to sessions.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	maxHistory int
	ttl        time.Duration
	now        func() time.Time
}

// NewStore creates an empty store.
func NewStore(cfg Config, opts ...Option) *Store {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	s := &Store{
		sessions:   make(map[string]*Session),
		maxHistory: cfg.MaxHistory,
		ttl:        cfg.TTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxHistory returns the per-session history bound.
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// getLocked returns the session, creating it if needed. Caller holds mu.
func (s *Store) getLocked(id string) *Session {
	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, CreatedAt: now}
		s.sessions[id] = sess
		logging.SessionDebug("created session %s", id)
	}
	sess.LastAccess = now
	return sess
}

// GetOrCreate returns a snapshot of the session, allocating an empty one on
// first access.
func (s *Store) GetOrCreate(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id).snapshot()
}

// AppendExchange appends a user/assistant pair, trims the history to the
// newest MaxHistory messages and replaces the last query context.
func (s *Store) AppendExchange(id, userText, assistantText string, qc QueryContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked(id)
	sess.History = append(sess.History,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: assistantText},
	)
	if over := len(sess.History) - s.maxHistory; over > 0 {
		sess.History = slices.Clone(sess.History[over:])
	}
	sess.LastContext = &qc
}

// Recent returns up to window of the newest messages, oldest first. Unknown
// sessions yield nil and are not created.
func (s *Store) Recent(id string, window int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || window <= 0 {
		return nil
	}
	sess.LastAccess = s.now()
	start := max(len(sess.History)-window, 0)
	return slices.Clone(sess.History[start:])
}

// LastContext returns the context of the previous data lookup, if any.
func (s *Store) LastContext(id string) (QueryContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.LastContext == nil {
		return QueryContext{}, false
	}
	return *sess.LastContext, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle past the TTL and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccess) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Session("evicted %d idle sessions (%d remain)", removed, len(s.sessions))
	}
	return removed
}

// Run sweeps every interval until ctx is done. It returns immediately when
// eviction is disabled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
