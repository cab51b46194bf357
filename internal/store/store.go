// Package store holds the message sequence of the conversation currently on
// screen. It is pure in-memory state: no I/O, no knowledge of the backend.
package store

import (
	"sync"

	"github.com/industrialchat/chatclient/internal/model/chat"
)

// Store tracks the active conversation and the id of the persisted chat it
// belongs to, if any. Append order is chronological order; installed
// messages are never reordered and never deduplicated, since an optimistic
// user message legitimately has no id yet.
type Store struct {
	mu       sync.RWMutex
	messages []chat.Message
	chatID   string

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSub     int
}

// New creates an empty store with no chat id.
func New() *Store {
	return &Store{subscribers: make(map[int]func())}
}

// Replace discards the current sequence and installs msgs, even when empty.
// A nil slice installs an empty sequence; the caller's slice is copied, so
// later mutations on either side cannot alias each other.
func (s *Store) Replace(msgs []chat.Message) {
	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)

	s.mu.Lock()
	s.messages = copied
	s.mu.Unlock()

	s.notify()
}

// Append adds msg to the tail of the sequence.
func (s *Store) Append(msg chat.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.notify()
}

// Messages returns a snapshot copy of the sequence.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len returns the number of messages without copying.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// ChatID returns the persisted chat id the sequence belongs to, or "" for a
// session the backend has not assigned one yet.
func (s *Store) ChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatID
}

// SetChatID records which persisted chat the sequence belongs to. It is
// deliberately independent of the messages: during the first exchange of a
// new session the store already holds messages while the id is still "".
func (s *Store) SetChatID(chatID string) {
	s.mu.Lock()
	s.chatID = chatID
	s.mu.Unlock()

	s.notify()
}

// SetRating sets the rating on the message with the given durable id and
// reports whether a message matched. An unknown or stale id is a no-op.
func (s *Store) SetRating(messageID string, rating int) bool {
	if messageID == "" {
		return false
	}

	s.mu.Lock()
	matched := false
	for i := range s.messages {
		if s.messages[i].MessageID == messageID {
			s.messages[i].Rating = rating
			matched = true
			break
		}
	}
	s.mu.Unlock()

	if matched {
		s.notify()
	}
	return matched
}

// Subscribe registers fn to run synchronously after every mutation, before
// the mutating call returns. The returned func unregisters it.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
