package relay

import "errors"

// ErrEmptyQueue is returned by PopOldest when no marks are outstanding.
var ErrEmptyQueue = errors.New("mark queue is empty")

// MarkQueue tracks playback-acknowledgement tokens in strict FIFO order.
// One token is pushed per forwarded AI audio chunk and popped when the
// telephony side echoes the corresponding mark back. A non-empty queue
// therefore means AI audio is still in flight toward the caller.
//
// The queue is not safe for concurrent use; the coordinator serializes
// all access through its event loop.
type MarkQueue struct {
	items []string
}

func (q *MarkQueue) Push(name string) {
	q.items = append(q.items, name)
}

// PopOldest removes and returns the oldest outstanding token.
func (q *MarkQueue) PopOldest() (string, error) {
	if len(q.items) == 0 {
		return "", ErrEmptyQueue
	}
	name := q.items[0]
	q.items = q.items[1:]
	return name, nil
}

func (q *MarkQueue) Len() int {
	return len(q.items)
}

// Reset drops all outstanding tokens. Called when a barge-in clears the
// caller-side playback buffer.
func (q *MarkQueue) Reset() {
	q.items = q.items[:0]
}
