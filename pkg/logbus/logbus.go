// Package logbus provides a minimal, display-safe publish/subscribe log.
//
// Any direct stdout/stderr write while a terminal UI owns the screen would
// corrupt it. This package lets background goroutines (the sequencer, the
// pattern compiler's fallback path) report diagnostics without printing
// directly: callers subscribe and drain at their own pace.
package logbus

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Level classifies a Message's severity.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Message is one published log entry.
type Message struct {
	Level Level
	Text  string
}

// Bus is a multi-subscriber, non-blocking log broadcaster. The zero value
// is not usable; construct one with New.
type Bus struct {
	nextID      atomic.Uint64
	mu          sync.Mutex
	subscribers map[uint64]chan Message
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[uint64]chan Message)}
}

// Subscription is a handle returned by Subscribe. Call Close when done;
// an un-Closed Subscription leaks its channel's slot in the Bus.
type Subscription struct {
	id  uint64
	bus *Bus
	ch  chan Message
}

// Drain returns and removes every message buffered for this subscription
// since the last call, without blocking.
func (s *Subscription) Drain() []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-s.ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if ch, ok := s.bus.subscribers[s.id]; ok {
		delete(s.bus.subscribers, s.id)
		close(ch)
	}
}

// Subscribe registers a new listener with the given channel buffer depth.
func (b *Bus) Subscribe(buffer int) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID.Add(1)
	ch := make(chan Message, buffer)
	b.subscribers[id] = ch
	return &Subscription{id: id, bus: b, ch: ch}
}

// Publish broadcasts a message to every current subscriber, best-effort:
// a subscriber whose buffer is full simply misses the message rather than
// blocking the publisher. With zero subscribers, Warn/Error fall back to
// the standard logger (stderr) so diagnostics remain visible outside a
// terminal UI; Info is dropped, matching the quieter default a headless
// run expects.
func (b *Bus) Publish(level Level, text string) {
	msg := Message{Level: level, Text: text}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subscribers) == 0 {
		switch level {
		case Warn, Error:
			log.Print(text)
		}
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *Bus) Infof(format string, args ...any)  { b.Publish(Info, fmt.Sprintf(format, args...)) }
func (b *Bus) Warnf(format string, args ...any)  { b.Publish(Warn, fmt.Sprintf(format, args...)) }
func (b *Bus) Errorf(format string, args ...any) { b.Publish(Error, fmt.Sprintf(format, args...)) }

// Default is the process-wide bus used by the package-level convenience
// functions below, mirroring the original's single global console bus.
var Default = New()

func Subscribe(buffer int) *Subscription { return Default.Subscribe(buffer) }
func Infof(format string, args ...any)   { Default.Infof(format, args...) }
func Warnf(format string, args ...any)   { Default.Warnf(format, args...) }
func Errorf(format string, args ...any)  { Default.Errorf(format, args...) }
