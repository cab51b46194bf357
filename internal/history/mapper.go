// Package history maps the server's nested history payload into flat,
// render-ready sessions. Everything here is pure: same payload in, same
// index out, no I/O and no failure modes.
package history

import (
	"sort"
	"time"

	"github.com/industrialchat/chatclient/internal/model/chat"
)

// timeFormat is how the conversation view prints the time next to a turn.
const timeFormat = "15:04:05"

// emptyPreview labels sessions that have no first message to show.
const emptyPreview = "New Conversation"

// wireTimeLayouts are the timestamp shapes observed from the backend.
var wireTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Map converts a raw history payload into a bucketed index. Missing buckets
// yield empty slices, and a malformed turn maps to an empty-text message
// rather than dropping the session around it.
func Map(payload chat.HistoryPayload) chat.HistoryIndex {
	return chat.HistoryIndex{
		Today:     mapBucket(payload.Today),
		Yesterday: mapBucket(payload.Yesterday),
		Older:     mapBucket(payload.Older),
	}
}

// mapBucket builds the sessions of one recency bucket, newest first. The
// wire payload does not guarantee any ordering between chats, so the sort
// is this client's own display policy; chat id breaks ties to keep the
// output stable across fetches.
func mapBucket(chats map[string]chat.RawChat) []chat.Session {
	sessions := make([]chat.Session, 0, len(chats))
	for id, raw := range chats {
		sessions = append(sessions, mapChat(id, raw))
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ChatID < sessions[j].ChatID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

func mapChat(id string, raw chat.RawChat) chat.Session {
	messages := make([]chat.Message, 0, len(raw.Messages))
	for _, turn := range raw.Messages {
		messages = append(messages, mapTurn(turn))
	}

	session := chat.Session{
		ChatID:   id,
		Messages: messages,
		Preview:  emptyPreview,
	}
	if t, err := parseWireTime(raw.CreatedAt); err == nil {
		session.CreatedAt = t
	}
	if len(messages) > 0 && messages[0].Text != "" {
		session.Preview = messages[0].Text
	}
	return session
}

// mapTurn flattens one raw turn. Text preference is the prompt, then the
// (possibly wrapped) response, then empty.
func mapTurn(turn chat.RawTurn) chat.Message {
	text := turn.Prompt
	if text == "" && turn.Response != nil {
		text = turn.Response.Text
	}

	sender := chat.SenderAssistant
	if turn.SenderType == string(chat.SenderUser) {
		sender = chat.SenderUser
	}

	return chat.Message{
		Text:      text,
		Sender:    sender,
		Timestamp: FormatTimestamp(turn.CreatedAt),
		MessageID: turn.TurnID(),
		Rating:    chat.RatingUnrated,
	}
}

// FormatTimestamp normalizes a wire timestamp to UTC and renders it in the
// client's local time. Unparseable input comes back verbatim so the row
// still shows something.
func FormatTimestamp(raw string) string {
	t, err := parseWireTime(raw)
	if err != nil {
		return raw
	}
	return Stamp(t)
}

// Stamp renders t the way mapped history timestamps are rendered; new
// outgoing messages use it so the transcript stays uniform.
func Stamp(t time.Time) string {
	return t.Local().Format(timeFormat)
}

func parseWireTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range wireTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
