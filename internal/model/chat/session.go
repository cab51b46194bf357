package chat

import "time"

// Session is a past or current conversation, flattened for rendering.
type Session struct {
	ChatID    string    `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
	Preview   string    `json:"preview"`
}

// HistoryIndex groups a user's sessions by recency for the list view. All
// three buckets are always present; a failed fetch never replaces an index,
// so consumers may keep rendering a stale one.
type HistoryIndex struct {
	Today     []Session `json:"today"`
	Yesterday []Session `json:"yesterday"`
	Older     []Session `json:"older"`
}

// Empty reports whether no bucket holds any session.
func (i HistoryIndex) Empty() bool {
	return len(i.Today) == 0 && len(i.Yesterday) == 0 && len(i.Older) == 0
}
