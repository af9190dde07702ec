package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/chrono/pkg/session"
	"github.com/vango-dev/chrono/pkg/toast"
	"github.com/vango-dev/chrono/pkg/uistore"
)

// feedMessage is one live feed frame.
type feedMessage struct {
	Type    string         `json:"type"`
	Version uint64         `json:"version,omitempty"`
	State   *stateResponse `json:"state,omitempty"`
	Name    string         `json:"name,omitempty"`
	Data    any            `json:"data,omitempty"`
}

// feed buffers outgoing frames for one connection. States coalesce to the
// newest; events queue up to a fixed depth and overflow is dropped.
type feed struct {
	mu      sync.Mutex
	latest  uistore.Change
	pending bool

	dirty   chan struct{}
	events  chan feedMessage
	dropped func()
}

func newFeed(buffer int, dropped func()) *feed {
	return &feed{
		dirty:   make(chan struct{}, 1),
		events:  make(chan feedMessage, buffer),
		dropped: dropped,
	}
}

func (f *feed) push(c uistore.Change) {
	f.mu.Lock()
	if !f.pending || c.Version >= f.latest.Version {
		f.latest = c
		f.pending = true
	}
	f.mu.Unlock()
	select {
	case f.dirty <- struct{}{}:
	default:
	}
}

func (f *feed) take() (uistore.Change, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pending {
		return uistore.Change{}, false
	}
	f.pending = false
	return f.latest, true
}

// Emit queues a custom event. It implements toast.Emitter.
func (f *feed) Emit(name string, data any) {
	select {
	case f.events <- feedMessage{Type: "event", Name: name, Data: data}:
	default:
		if f.dropped != nil {
			f.dropped()
		}
	}
}

// feedHub tracks the open feeds of each session.
type feedHub struct {
	mu    sync.Mutex
	feeds map[string]map[*feed]struct{}
}

func (h *feedHub) add(sessionID string, f *feed) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds == nil {
		h.feeds = make(map[string]map[*feed]struct{})
	}
	set := h.feeds[sessionID]
	if set == nil {
		set = make(map[*feed]struct{})
		h.feeds[sessionID] = set
	}
	set[f] = struct{}{}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(set, f)
		if len(set) == 0 {
			delete(h.feeds, sessionID)
		}
	}
}

// emitter fans events out to every open feed of a session. Sessions with no
// feed drop the event.
func (h *feedHub) emitter(sessionID string) toast.Emitter {
	return sessionEmitter{hub: h, id: sessionID}
}

type sessionEmitter struct {
	hub *feedHub
	id  string
}

func (e sessionEmitter) Emit(name string, data any) {
	e.hub.mu.Lock()
	targets := make([]*feed, 0, len(e.hub.feeds[e.id]))
	for f := range e.hub.feeds[e.id] {
		targets = append(targets, f)
	}
	e.hub.mu.Unlock()
	for _, f := range targets {
		f.Emit(name, data)
	}
}

// observe is the store listener feeding f. Cart additions also raise a toast.
func (f *feed) observe(c uistore.Change) {
	f.push(c)
	if add, ok := c.Action.(uistore.AddToCart); ok {
		if n, ok := c.State.Notification(add.NotificationID); ok {
			toast.Emit(f, toast.FromNotification(n))
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	select {
	case <-s.closing:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	// Upgrade writes its own response, so carry over a freshly set cookie.
	var header http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header = http.Header{"Set-Cookie": cookies}
	}
	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.metrics.RecordWebSocketError("upgrade")
		s.logger.Debug("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	s.feeds.Add(1)
	defer s.feeds.Done()
	defer conn.Close()

	f := newFeed(s.config.EventBuffer, func() { s.metrics.RecordWebSocketError("dropped") })
	unsubscribe := sess.Store.Subscribe(f.observe)
	defer unsubscribe()
	defer s.live.add(sess.ID, f)()
	state, version := sess.Store.Snapshot()
	f.push(uistore.Change{State: state, Version: version})

	done := make(chan struct{})
	go s.readFeed(conn, done)

	s.logger.Debug("live feed opened", "session_id", sess.ID)
	if err := s.writeFeed(conn, f, done); err != nil {
		s.metrics.RecordWebSocketError("write")
		s.logger.Debug("live feed write failed", "session_id", sess.ID, "error", err)
	}
	s.logger.Debug("live feed closed", "session_id", sess.ID)
}

// readFeed drains client frames so control messages are processed. The feed
// is one-way; client data frames are ignored.
func (s *Server) readFeed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	pongWait := s.config.PingPeriod + s.config.WriteWait
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.metrics.RecordWebSocketError("read")
			}
			return
		}
	}
}

func (s *Server) writeFeed(conn *websocket.Conn, f *feed, done <-chan struct{}) error {
	ticker := time.NewTicker(s.config.PingPeriod)
	defer ticker.Stop()

	writeState := func() error {
		c, ok := f.take()
		if !ok {
			return nil
		}
		resp := newStateResponse(c.State)
		return s.writeFrame(conn, feedMessage{Type: "state", Version: c.Version, State: &resp})
	}

	for {
		select {
		case <-f.dirty:
			if err := writeState(); err != nil {
				return err
			}
		case ev := <-f.events:
			// The state that raised the event goes first.
			if err := writeState(); err != nil {
				return err
			}
			if err := s.writeFrame(conn, ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteWait)); err != nil {
				return err
			}
		case <-done:
			return nil
		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.config.WriteWait))
			return nil
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg feedMessage) error {
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
	return conn.WriteJSON(msg)
}
