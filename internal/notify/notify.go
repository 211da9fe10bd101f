// Package notify delivers user-facing alerts. Delivery is best-effort: a
// Notifier must return promptly and never fail the caller.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Kind int

const (
	KindNetwork Kind = iota
	KindFailure
	KindAuthExpired
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindFailure:
		return "failure"
	case KindAuthExpired:
		return "auth_expired"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Notification struct {
	Kind    Kind
	Title   string
	Message string
	Time    time.Time
}

type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Multi fans out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}

// Log writes notifications to a logger. Network and auth notices are
// warnings, failures are errors.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(n Notification) {
	level := slog.LevelWarn
	if n.Kind == KindFailure {
		level = slog.LevelError
	}
	l.Logger.Log(context.Background(), level, n.Title, "kind", n.Kind.String(), "message", n.Message)
}

// Bell rings the terminal bell on failures only, so a persistent outage
// does not beep every tick.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *Bell) Notify(n Notification) {
	if n.Kind != KindFailure {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.W, "\a")
}

// Feed buffers the most recent notifications for a consumer that polls,
// such as the terminal board. When full the oldest entry is dropped.
type Feed struct {
	mu    sync.Mutex
	size  int
	items []Notification
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1
	}
	return &Feed{size: size}
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if len(f.items) > f.size {
		f.items = f.items[len(f.items)-f.size:]
	}
}

// Recent returns a copy of the buffered notifications, oldest first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.items...)
}

// Latest returns the newest notification, if any.
func (f *Feed) Latest() (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return Notification{}, false
	}
	return f.items[len(f.items)-1], true
}
