// Package devserver is a local stand-in for the production chat backend:
// the same wire contract the browser client speaks, served from in-memory
// storage, so the client can be developed and exercised without the real
// service.
package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrChatNotFound       = errors.New("chat not found")
)

type user struct {
	ID       string
	Username string
	Email    string
	Password string
	Token    string
}

// storedTurn is one half of an exchange; user turns fill Prompt, assistant
// turns fill Response.
type storedTurn struct {
	ID         string
	SenderType string
	Prompt     string
	Response   string
	CreatedAt  time.Time
	Rating     int
}

type storedChat struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Turns     []storedTurn
}

// memory holds users and chats behind one lock. The devserver is a dev
// tool; a handful of maps is all the storage it needs.
type memory struct {
	mu      sync.RWMutex
	byEmail map[string]*user
	byToken map[string]*user
	chats   map[string]*storedChat

	now func() time.Time
}

func newMemory() *memory {
	return &memory{
		byEmail: make(map[string]*user),
		byToken: make(map[string]*user),
		chats:   make(map[string]*storedChat),
		now:     time.Now,
	}
}

func (m *memory) createUser(username, email, password string) (*user, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}

	u := &user{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: password,
	}
	m.byEmail[email] = u
	return u, nil
}

// authenticate checks the password and mints a fresh bearer token.
func (m *memory) authenticate(email, password string) (*user, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[email]
	if !ok || u.Password != password {
		return nil, ErrInvalidCredentials
	}

	if u.Token != "" {
		delete(m.byToken, u.Token)
	}
	u.Token = uuid.NewString()
	m.byToken[u.Token] = u
	return u, nil
}

func (m *memory) userByToken(token string) (*user, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byToken[token]
	return u, ok
}

// appendExchange records a user prompt and the assistant reply in the given
// chat, creating the chat when chatID is empty. It returns the chat id and
// the durable id of the assistant turn.
func (m *memory) appendExchange(userID, chatID, prompt, reply string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var c *storedChat
	if chatID == "" {
		c = &storedChat{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: m.now(),
		}
		m.chats[c.ID] = c
	} else {
		var ok bool
		c, ok = m.chats[chatID]
		if !ok || c.UserID != userID {
			return "", "", ErrChatNotFound
		}
	}

	now := m.now()
	c.Turns = append(c.Turns, storedTurn{
		ID:         uuid.NewString(),
		SenderType: "user",
		Prompt:     prompt,
		CreatedAt:  now,
	})
	replyTurn := storedTurn{
		ID:         uuid.NewString(),
		SenderType: "assistant",
		Response:   reply,
		CreatedAt:  now,
	}
	c.Turns = append(c.Turns, replyTurn)

	return c.ID, replyTurn.ID, nil
}

// transcript returns a copy of the chat's turns for prompt building.
func (m *memory) transcript(userID, chatID string) []storedTurn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chats[chatID]
	if !ok || c.UserID != userID {
		return nil
	}
	copied := make([]storedTurn, len(c.Turns))
	copy(copied, c.Turns)
	return copied
}

func (m *memory) chatsForUser(userID string) []*storedChat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*storedChat, 0)
	for _, c := range m.chats {
		if c.UserID == userID {
			copied := *c
			copied.Turns = append([]storedTurn(nil), c.Turns...)
			out = append(out, &copied)
		}
	}
	return out
}

func (m *memory) clearChats(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.chats {
		if c.UserID == userID {
			delete(m.chats, id)
			removed++
		}
	}
	return removed
}

// rate records a judgment on a turn by durable id. Unknown ids are accepted
// silently; rating is best effort on the client side and the contract keeps
// it that way here.
func (m *memory) rate(messageID string, rating int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.chats {
		for i := range c.Turns {
			if c.Turns[i].ID == messageID {
				c.Turns[i].Rating = rating
				return
			}
		}
	}
}
