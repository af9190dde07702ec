package uistore

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change describes one applied dispatch.
type Change struct {
	Action  Action
	State   State
	Version uint64
	// Evicted counts notifications dropped by the feed limit.
	Evicted int
}

// Listener observes applied dispatches. Listeners run synchronously after the
// state lock is released and must not dispatch on the same store.
type Listener func(Change)

// Option configures a Store.
type Option func(*Store)

// WithNotificationLimit caps the notification feed. n <= 0 disables the cap.
func WithNotificationLimit(n int) Option {
	return func(s *Store) {
		s.reducer.NotificationLimit = n
	}
}

// WithIDGenerator sets the notification id generator. Default: UUIDv4.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock sets the notification timestamp source. Default: time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithInitialState seeds the store.
func WithInitialState(state State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store is the state container for one session. All mutation goes through its
// operations; it is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	state   State
	version uint64
	reducer Reducer
	newID   func() string
	now     func() time.Time

	// notifyMu keeps listener delivery in dispatch order.
	notifyMu     sync.Mutex
	listenerMu   sync.Mutex
	listeners    []listenerEntry
	nextListener uint64
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state: State{
			Cart:          []CartLine{},
			Notifications: []Notification{},
		},
		reducer: Reducer{NotificationLimit: DefaultNotificationLimit},
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	st, _ := s.dispatch(a, func(uint64) bool { return true })
	return st
}

// DispatchIf applies a only when no other dispatch has landed since version,
// as returned by Snapshot. ok is false and the store is untouched otherwise.
func (s *Store) DispatchIf(version uint64, a Action) (state State, ok bool) {
	return s.dispatch(a, func(current uint64) bool { return current == version })
}

func (s *Store) dispatch(a Action, allow func(version uint64) bool) (State, bool) {
	if add, ok := a.(AddToCart); ok {
		if add.NotificationID == "" {
			add.NotificationID = s.newID()
		}
		if add.At.IsZero() {
			add.At = s.now()
		}
		a = add
	}

	s.mu.Lock()
	if !allow(s.version) {
		st := s.state.Clone()
		s.mu.Unlock()
		return st, false
	}
	evicted := s.reducer.Evicted(s.state, a)
	s.state = s.reducer.Reduce(s.state, a)
	s.version++
	change := Change{Action: a, State: s.state.Clone(), Version: s.version, Evicted: evicted}
	s.notifyMu.Lock()
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.fn(change)
	}
	s.notifyMu.Unlock()

	return change.State, true
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenerMu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			defer s.listenerMu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) snapshotListeners() []listenerEntry {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	out := make([]listenerEntry, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// =============================================================================
// Operations
// =============================================================================

// AddToCart adds quantity of item (item.Quantity when quantity is 0; clamped to
// [1, 99]) and prepends a "View item" notification.
func (s *Store) AddToCart(item Item, quantity int) {
	s.Dispatch(AddToCart{Item: item, Quantity: quantity})
}

// RemoveFromCart deletes the line for id. Missing ids are ignored.
func (s *Store) RemoveFromCart(id ProductID) {
	s.Dispatch(RemoveFromCart{ID: id})
}

// UpdateCartQuantity sets the clamped quantity on the line for id.
func (s *Store) UpdateCartQuantity(id ProductID, quantity int) {
	s.Dispatch(UpdateCartQuantity{ID: id, Quantity: quantity})
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.Dispatch(ClearCart{})
}

// DismissNotification removes the notification with id.
func (s *Store) DismissNotification(id string) {
	s.Dispatch(DismissNotification{ID: id})
}

// TriggerNotificationAction runs the notification's action, if any.
func (s *Store) TriggerNotificationAction(id string) {
	s.Dispatch(TriggerNotificationAction{ID: id})
}

// OpenPreview shows item in the preview.
func (s *Store) OpenPreview(item Item) {
	s.Dispatch(OpenPreview{Item: item})
}

// ClosePreview clears the preview.
func (s *Store) ClosePreview() {
	s.Dispatch(ClosePreview{})
}

// MarkRead resets the unread counter for channel.
func (s *Store) MarkRead(channel UnreadChannel) {
	s.Dispatch(MarkRead{Channel: channel})
}

// =============================================================================
// Readers
// =============================================================================

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Snapshot returns a copy of the current state and its version, read together.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.version
}

// Version returns the number of dispatches applied so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Cart returns the current cart lines.
func (s *Store) Cart() []CartLine {
	return s.State().Cart
}

// Notifications returns the feed, newest first.
func (s *Store) Notifications() []Notification {
	return s.State().Notifications
}

// Preview returns the preview item, or nil.
func (s *Store) Preview() *Item {
	return s.State().PreviewItem
}

// Unread returns the unread counters.
func (s *Store) Unread() Unread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Unread
}

// CartItemCount returns the sum of quantities.
func (s *Store) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount()
}

// CartTotal returns the sum of price × quantity.
func (s *Store) CartTotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Total()
}
