package controller

import (
	"context"
	"log"
	"sync"

	"github.com/industrialchat/chatclient/internal/history"
	"github.com/industrialchat/chatclient/internal/model/chat"
)

// historyFailedMessage is the single inline error for a failed fetch.
const historyFailedMessage = "Failed to load chat history"

// HistorySource is the history half of the API client.
type HistorySource interface {
	History(ctx context.Context, userID string) (chat.HistoryPayload, error)
}

// HistoryFetcher keeps the most recently mapped index. The index is rebuilt
// from scratch on every successful fetch; a failed fetch leaves the
// previous index in place, stale but available, and raises the error flag.
// Fetching is independent of the send flow and shares no guard with it.
type HistoryFetcher struct {
	source HistorySource
	userID string

	mu     sync.RWMutex
	index  chat.HistoryIndex
	errMsg string
}

// NewHistoryFetcher wires a fetcher to the backend for one user.
func NewHistoryFetcher(source HistorySource, userID string) *HistoryFetcher {
	return &HistoryFetcher{source: source, userID: userID}
}

// Fetch retrieves and maps the user's history.
func (f *HistoryFetcher) Fetch(ctx context.Context) error {
	payload, err := f.source.History(ctx, f.userID)
	if err != nil {
		log.Printf("[history] fetch failed: %v", err)
		f.mu.Lock()
		f.errMsg = historyFailedMessage
		f.mu.Unlock()
		return err
	}

	index := history.Map(payload)

	f.mu.Lock()
	f.index = index
	f.errMsg = ""
	f.mu.Unlock()
	return nil
}

// Index returns the last successfully fetched index.
func (f *HistoryFetcher) Index() chat.HistoryIndex {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.index
}

// Err returns the user-visible fetch error, empty after the last success.
func (f *HistoryFetcher) Err() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errMsg
}
