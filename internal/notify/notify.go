// Package notify delivers short user-visible messages (toasts) produced at
// task boundaries.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/logging"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one message. Kind carries common.Kind for errors.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Kind    string    `json:"kind,omitempty"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(ctx context.Context, to Notifier, msg string) {
	to.Notify(ctx, Notification{Level: LevelSuccess, Message: msg, At: time.Now()})
}

func Info(ctx context.Context, to Notifier, msg string) {
	to.Notify(ctx, Notification{Level: LevelInfo, Message: msg, At: time.Now()})
}

func Error(ctx context.Context, to Notifier, msg, kind string) {
	to.Notify(ctx, Notification{Level: LevelError, Message: msg, Kind: kind, At: time.Now()})
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{log: l.With("module", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) {
	if msg.Level == LevelError {
		n.log.Error(ctx, msg.Message, "kind", msg.Kind)
		return
	}
	n.log.Info(ctx, msg.Message, "level", string(msg.Level))
}

// Fanout forwards to every notifier, in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, to := range f {
		to.Notify(ctx, n)
	}
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Recorder keeps every notification in memory. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.list...)
}

// Messages returns the recorded message texts.
func (r *Recorder) Messages() []string {
	all := r.All()
	out := make([]string, 0, len(all))
	for _, n := range all {
		out = append(out, n.Message)
	}
	return out
}
