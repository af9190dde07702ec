package session

import (
	"container/list"
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/uistore"
)

// Session is one browser session and its store.
type Session struct {
	ID        string
	Store     *uistore.Store
	CreatedAt time.Time

	lastActive time.Time
	elem       *list.Element
}

// EvictReason says why a session left the registry.
type EvictReason string

const (
	ReasonIdle     EvictReason = "idle"
	ReasonCapacity EvictReason = "capacity"
	ReasonDeleted  EvictReason = "deleted"
	ReasonShutdown EvictReason = "shutdown"
)

// Hooks observe registry lifecycle events. Hooks run after the registry lock
// is released.
type Hooks struct {
	OnCreate func(s *Session)
	OnResume func(s *Session)
	OnEvict  func(s *Session, reason EvictReason)
}

// Config configures a Registry.
type Config struct {
	// IdleTimeout expires sessions not accessed for this long. Zero disables.
	// Default: 30 minutes.
	IdleTimeout time.Duration

	// CleanupInterval is how often idle sessions are swept.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// MaxSessions caps live sessions; the least recently used is evicted
	// first. Zero means unlimited. Default: 10000.
	MaxSessions int

	// Snapshots, when set, receives serialized sessions on idle or capacity
	// eviction so they can be resumed.
	Snapshots SnapshotStore

	// ResumeWindow is how long a snapshot stays resumable.
	// Default: 10 minutes.
	ResumeWindow time.Duration

	// StoreOptions are applied to every new store.
	StoreOptions []uistore.Option

	Hooks  Hooks
	Logger *slog.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: time.Minute,
		MaxSessions:     10000,
		ResumeWindow:    10 * time.Minute,
	}
}

// Registry maps session ids to stores. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	resumeMu sync.Mutex
	sessions map[string]*Session
	lru      *list.List // front = most recently used
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup

	cfg    Config
	logger *slog.Logger
}

// NewRegistry creates a registry and starts its cleanup loop.
func NewRegistry(cfg Config) *Registry {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.ResumeWindow <= 0 {
		cfg.ResumeWindow = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		sessions: make(map[string]*Session),
		lru:      list.New(),
		done:     make(chan struct{}),
		cfg:      cfg,
		logger:   logger.With("component", "session_registry"),
	}
	if cfg.IdleTimeout > 0 {
		r.wg.Add(1)
		go r.cleanupLoop()
	}
	return r
}

type eviction struct {
	sess   *Session
	reason EvictReason
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("E011")
	}
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, errors.New("E010").WithDetail("session " + id)
	}
	if r.expiredLocked(s, r.cfg.Now()) {
		r.removeLocked(s)
		r.mu.Unlock()
		r.finish([]eviction{{s, ReasonIdle}})
		return nil, errors.New("E010").WithDetail("session " + id + " expired")
	}
	r.touchLocked(s)
	r.mu.Unlock()
	return s, nil
}

// GetOrCreate returns the session for id, creating it when id is blank or
// unknown. An unknown well-formed id is adopted only when a snapshot for it
// exists; every other new session gets a fresh UUID, so clients cannot pick
// the id of a session they did not hold.
func (r *Registry) GetOrCreate(id string) (sess *Session, created bool, err error) {
	id = strings.TrimSpace(id)
	if id != "" {
		if s, err := r.Get(id); err == nil {
			return s, false, nil
		} else if isClosed(err) {
			return nil, false, err
		}
		if _, perr := uuid.Parse(id); perr == nil {
			if s, created, err := r.resume(id); s != nil || err != nil {
				return s, created, err
			}
		}
	}
	return r.insert(r.cfg.NewID(), nil)
}

// resume rebuilds the session for id from its snapshot. It returns a nil
// session when there is none. Resumes are serialized so concurrent requests
// carrying the same cookie share one session.
func (r *Registry) resume(id string) (*Session, bool, error) {
	r.resumeMu.Lock()
	defer r.resumeMu.Unlock()

	if s, err := r.Get(id); err == nil {
		return s, false, nil
	} else if isClosed(err) {
		return nil, false, err
	}
	snap := r.loadSnapshot(id)
	if snap == nil {
		return nil, false, nil
	}
	return r.insert(id, snap)
}

// insert registers a new session, restored from snap when it is non-nil.
func (r *Registry) insert(id string, snap *Snapshot) (*Session, bool, error) {
	opts := append([]uistore.Option(nil), r.cfg.StoreOptions...)
	if snap != nil {
		opts = append(opts, uistore.WithInitialState(snap.State))
	}

	now := r.cfg.Now()
	s := &Session{ID: id, Store: uistore.New(opts...), CreatedAt: now, lastActive: now}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, false, errors.New("E011")
	}
	if existing, ok := r.sessions[id]; ok {
		r.touchLocked(existing)
		r.mu.Unlock()
		return existing, false, nil
	}
	s.elem = r.lru.PushFront(s)
	r.sessions[id] = s
	evicted := r.enforceCapLocked()
	r.mu.Unlock()

	r.finish(evicted)
	if snap != nil {
		r.logger.Debug("session resumed", "session_id", id)
		if r.cfg.Hooks.OnResume != nil {
			r.cfg.Hooks.OnResume(s)
		}
	} else if r.cfg.Hooks.OnCreate != nil {
		r.cfg.Hooks.OnCreate(s)
	}
	return s, true, nil
}

func isClosed(err error) bool {
	var ce *errors.ChronoError
	return stderrors.As(err, &ce) && ce.Code == "E011"
}

// Delete removes a session without keeping a snapshot.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		r.removeLocked(s)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if r.cfg.Snapshots != nil {
		_ = r.cfg.Snapshots.Delete(context.Background(), id)
	}
	r.finish([]eviction{{s, ReasonDeleted}})
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions now and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.cfg.Now()
	var evicted []eviction

	r.mu.Lock()
	for e := r.lru.Back(); e != nil; {
		s := e.Value.(*Session)
		prev := e.Prev()
		if !r.expiredLocked(s, now) {
			// The rest are more recent.
			break
		}
		r.removeLocked(s)
		evicted = append(evicted, eviction{s, ReasonIdle})
		e = prev
	}
	r.mu.Unlock()

	r.finish(evicted)
	return len(evicted)
}

// Close stops the cleanup loop and drops every session. Later calls to Get
// and GetOrCreate fail with E011.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	var evicted []eviction
	for _, s := range r.sessions {
		evicted = append(evicted, eviction{s, ReasonShutdown})
	}
	r.sessions = map[string]*Session{}
	r.lru.Init()
	r.mu.Unlock()

	r.wg.Wait()
	r.finish(evicted)
	r.logger.Info("session registry closed", "sessions", len(evicted))
	return nil
}

func (r *Registry) expiredLocked(s *Session, now time.Time) bool {
	return r.cfg.IdleTimeout > 0 && now.Sub(s.lastActive) > r.cfg.IdleTimeout
}

func (r *Registry) touchLocked(s *Session) {
	s.lastActive = r.cfg.Now()
	r.lru.MoveToFront(s.elem)
}

func (r *Registry) removeLocked(s *Session) {
	delete(r.sessions, s.ID)
	r.lru.Remove(s.elem)
}

func (r *Registry) enforceCapLocked() []eviction {
	if r.cfg.MaxSessions <= 0 {
		return nil
	}
	var evicted []eviction
	for len(r.sessions) > r.cfg.MaxSessions {
		s := r.lru.Back().Value.(*Session)
		r.removeLocked(s)
		evicted = append(evicted, eviction{s, ReasonCapacity})
	}
	return evicted
}

// finish runs outside the lock: snapshots evicted sessions and fires hooks.
func (r *Registry) finish(evicted []eviction) {
	for _, ev := range evicted {
		if ev.reason == ReasonIdle || ev.reason == ReasonCapacity || ev.reason == ReasonShutdown {
			r.saveSnapshot(ev.sess)
		}
		r.logger.Debug("session evicted", "session_id", ev.sess.ID, "reason", string(ev.reason))
		if r.cfg.Hooks.OnEvict != nil {
			r.cfg.Hooks.OnEvict(ev.sess, ev.reason)
		}
	}
}

func (r *Registry) saveSnapshot(s *Session) {
	if r.cfg.Snapshots == nil {
		return
	}
	data, err := Serialize(&Snapshot{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.lastActive,
		State:      s.Store.State(),
	})
	if err != nil {
		r.logger.Warn("snapshot encode failed", "session_id", s.ID, "error", err)
		return
	}
	expiresAt := r.cfg.Now().Add(r.cfg.ResumeWindow)
	if err := r.cfg.Snapshots.Save(context.Background(), s.ID, data, expiresAt); err != nil {
		r.logger.Warn("snapshot save failed", "session_id", s.ID, "error", err)
	}
}

func (r *Registry) loadSnapshot(id string) *Snapshot {
	if r.cfg.Snapshots == nil {
		return nil
	}
	ctx := context.Background()
	data, err := r.cfg.Snapshots.Load(ctx, id)
	if err != nil {
		r.logger.Warn("snapshot load failed", "session_id", id, "error", err)
		return nil
	}
	if data == nil {
		return nil
	}
	_ = r.cfg.Snapshots.Delete(ctx, id)
	snap, err := Deserialize(data)
	if err != nil {
		r.logger.Warn("snapshot decode failed", "session_id", id, "error", err)
		return nil
	}
	return snap
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("idle sessions swept", "count", n)
			}
		case <-r.done:
			return
		}
	}
}
