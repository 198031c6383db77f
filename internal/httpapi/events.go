package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/skydrive/internal/notify"
	"github.com/dmitrijs2005/skydrive/internal/state"
)

const (
	EventFiles        = "files"
	EventTasks        = "tasks"
	EventNotification = "notification"

	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	noteBacklog = 32
)

// Event is one websocket message. Files and Tasks carry complete snapshots.
type Event struct {
	Type         string               `json:"type"`
	Version      uint64               `json:"version,omitempty"`
	Files        state.FileList       `json:"files,omitempty"`
	Tasks        state.TaskList       `json:"tasks,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Hub fans notifications out to connected stream clients. It is a
// notify.Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	done    chan struct{}
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{}), done: make(chan struct{})}
}

func (h *Hub) Notify(_ context.Context, n notify.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.pushNote(n)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients reports how many streams are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// client coalesces snapshots: only the newest file list and task list wait
// to be written, so a slow reader never holds up a publisher.
type client struct {
	mu    sync.Mutex
	files *state.Snapshot[state.FileList]
	tasks *state.Snapshot[state.TaskList]
	notes []notify.Notification
	wake  chan struct{}

	filesSeen uint64
	tasksSeen uint64
}

func newClient() *client {
	return &client{wake: make(chan struct{}, 1)}
}

func (c *client) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) pushFiles(s state.Snapshot[state.FileList]) {
	c.mu.Lock()
	if s.Version >= c.filesSeen && (c.files == nil || s.Version > c.files.Version) {
		c.files = &s
	}
	c.mu.Unlock()
	c.signal()
}

func (c *client) pushTasks(s state.Snapshot[state.TaskList]) {
	c.mu.Lock()
	if s.Version >= c.tasksSeen && (c.tasks == nil || s.Version > c.tasks.Version) {
		c.tasks = &s
	}
	c.mu.Unlock()
	c.signal()
}

func (c *client) pushNote(n notify.Notification) {
	c.mu.Lock()
	if len(c.notes) == noteBacklog {
		c.notes = c.notes[1:]
	}
	c.notes = append(c.notes, n)
	c.mu.Unlock()
	c.signal()
}

// drain takes everything pending, files first.
func (c *client) drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	if c.files != nil {
		out = append(out, Event{Type: EventFiles, Version: c.files.Version, Files: nonNil(c.files.Value)})
		c.filesSeen = c.files.Version + 1
		c.files = nil
	}
	if c.tasks != nil {
		out = append(out, Event{Type: EventTasks, Version: c.tasks.Version, Tasks: nonNil(c.tasks.Value)})
		c.tasksSeen = c.tasks.Version + 1
		c.tasks = nil
	}
	for i := range c.notes {
		n := c.notes[i]
		out = append(out, Event{Type: EventNotification, Notification: &n})
	}
	c.notes = nil
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.origin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handleEvents streams the current snapshots, then every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	user, _ := UserIDFromContext(ctx)
	log := s.logger.With("user", user, "remote", r.RemoteAddr)

	c := newClient()
	s.hub.add(c)
	defer s.hub.remove(c)
	defer s.files.Subscribe(c.pushFiles)()
	defer s.tasks.Subscribe(c.pushTasks)()
	c.pushFiles(s.files.Snapshot())
	c.pushTasks(s.tasks.Snapshot())

	log.Info(ctx, "event stream opened")
	defer log.Info(ctx, "event stream closed")

	// the read side only serves control frames and notices the close
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-c.wake:
			for _, ev := range c.drain() {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug(ctx, "event write failed", "error", err)
					return
				}
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-s.hub.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ctx.Done():
			return
		}
	}
}
