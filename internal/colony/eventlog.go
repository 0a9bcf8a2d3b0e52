package colony

import (
	"sync"
	"time"
)

const DefaultLogLimit = 200

type Event struct {
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// EventLog is the append-only stream of player-facing messages. Messages
// are never rewritten once appended; the oldest are dropped past limit.
type EventLog struct {
	mu          sync.Mutex
	limit       int
	seq         uint64
	entries     []Event
	subscribers map[chan Event]struct{}
}

func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &EventLog{
		limit:       limit,
		subscribers: make(map[chan Event]struct{}),
	}
}

func (l *EventLog) Append(at time.Time, message string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	ev := Event{Seq: l.seq, At: at, Message: message}
	l.entries = append(l.entries, ev)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}

	for ch := range l.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
	return ev
}

// Entries returns the retained events newest first.
func (l *EventLog) Entries() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.entries))
	for i, ev := range l.entries {
		out[len(l.entries)-1-i] = ev
	}
	return out
}

// Messages returns the retained message texts oldest first.
func (l *EventLog) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	for i, ev := range l.entries {
		out[i] = ev.Message
	}
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *EventLog) Last() (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Event{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *EventLog) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

func (l *EventLog) Unsubscribe(sub <-chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers {
		if ch == sub {
			delete(l.subscribers, ch)
			close(ch)
			return
		}
	}
}

// Close unsubscribes everyone.
func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers {
		delete(l.subscribers, ch)
		close(ch)
	}
}

func (l *EventLog) restore(entries []Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	for i := len(entries) - 1; i >= 0; i-- {
		l.entries = append(l.entries, entries[i])
		if entries[i].Seq > l.seq {
			l.seq = entries[i].Seq
		}
	}
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
}
