// Package controller coordinates the conversation flows: sending prompts,
// fetching history and recording ratings. All network and parse failures are
// converted to flags the render layer can show; nothing here ever reaches
// into the store or the mapper with an error.
package controller

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/industrialchat/chatclient/internal/api"
	"github.com/industrialchat/chatclient/internal/history"
	"github.com/industrialchat/chatclient/internal/model/chat"
	"github.com/industrialchat/chatclient/internal/store"
)

var (
	// ErrEmptyPrompt means Send was handed blank input and dropped it.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrBusy means a send is already in flight; the attempt is dropped,
	// not queued.
	ErrBusy = errors.New("send already in flight")
)

// sendFailedMessage is the single inline error shown for a failed send.
const sendFailedMessage = "Failed to generate response"

// Backend is the slice of the API client the controller needs.
type Backend interface {
	Generate(ctx context.Context, req api.GenerateRequest) (api.GenerateResponse, error)
}

// Controller runs the send state machine: Idle, then Sending, then Idle
// again whatever the outcome. At most one reply is in flight per instance.
type Controller struct {
	backend Backend
	store   *store.Store
	userID  string

	mu      sync.Mutex
	sending bool
	errMsg  string

	now func() time.Time
}

// New wires a controller to a backend, the session store and the user it
// acts for. The user id is injected rather than looked up ambiently so the
// controller is testable with fakes.
func New(backend Backend, st *store.Store, userID string) *Controller {
	return &Controller{
		backend: backend,
		store:   st,
		userID:  userID,
		now:     time.Now,
	}
}

// Send submits promptText as the next user turn. Blank input and calls made
// while a send is in flight are no-ops that issue zero network requests.
// The user's message is appended before any I/O and is never retracted,
// even when the request fails; retry is always a fresh Send.
func (c *Controller) Send(ctx context.Context, promptText string) error {
	prompt := strings.TrimSpace(promptText)
	if prompt == "" {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	chatID := c.store.ChatID()

	c.store.Append(chat.Message{
		Text:      prompt,
		Sender:    chat.SenderUser,
		Timestamp: history.Stamp(c.now()),
		Rating:    chat.RatingUnrated,
	})

	resp, err := c.backend.Generate(ctx, api.GenerateRequest{
		Prompt: prompt,
		UserID: c.userID,
		ChatID: chatID,
	})
	if err != nil {
		log.Printf("[controller] generate failed: %v", err)
		c.setErr(sendFailedMessage)
		return err
	}

	// A new session adopts the chat id the backend assigned on the first
	// exchange.
	if chatID == "" {
		if id := resp.ChatLocator(); id != "" {
			c.store.SetChatID(id)
		}
	}

	c.store.Append(chat.Message{
		Text:      resp.Response.Text,
		Sender:    chat.SenderAssistant,
		Timestamp: history.Stamp(c.now()),
		MessageID: resp.DurableID(),
		Rating:    chat.RatingUnrated,
	})

	c.setErr("")
	return nil
}

// Sending reports whether a send is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Err returns the user-visible send error, empty after the last success.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// UseSession replaces the on-screen conversation with a past session.
// Switching is refused while a send is in flight so the in-flight reply
// cannot land in the wrong transcript.
func (c *Controller) UseSession(sess chat.Session) error {
	if err := c.requireIdle(); err != nil {
		return err
	}
	c.store.SetChatID(sess.ChatID)
	c.store.Replace(sess.Messages)
	return nil
}

// NewSession clears the conversation for a fresh exchange. The chat id
// stays empty until the backend assigns one on the first reply. Refused
// while a send is in flight, like UseSession.
func (c *Controller) NewSession() error {
	if err := c.requireIdle(); err != nil {
		return err
	}
	c.store.SetChatID("")
	c.store.Replace(nil)
	return nil
}

func (c *Controller) requireIdle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return ErrBusy
	}
	return nil
}

func (c *Controller) setErr(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
