// Package notice carries transient, fire-and-forget user messages.
package notice

import (
	"sync"
	"time"
)

type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
)

type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink receives notices. Implementations must not block.
type Sink interface {
	Notify(Notice)
}

type SinkFunc func(Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

// Queue keeps the most recent notices until they are drained.
type Queue struct {
	mu    sync.Mutex
	items []Notice
	max   int
}

func NewQueue(max int) *Queue {
	if max <= 0 {
		max = 20
	}
	return &Queue{max: max}
}

func (q *Queue) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if over := len(q.items) - q.max; over > 0 {
		q.items = append([]Notice(nil), q.items[over:]...)
	}
}

// Drain returns queued notices oldest first and empties the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
