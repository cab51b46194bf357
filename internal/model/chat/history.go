package chat

import (
	"bytes"
	"encoding/json"
)

// TextPayload is a response body that arrives either as a plain JSON string
// or wrapped one level as {"response": "..."}. Decoding never fails: shapes
// outside the contract collapse to an empty string so one bad turn cannot
// sink a whole payload.
type TextPayload struct {
	Text string
}

func (p *TextPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		p.Text = ""
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &p.Text)
	}

	var wrapped struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		p.Text = ""
		return nil
	}
	p.Text = wrapped.Response
	return nil
}

// MarshalJSON emits the wrapped form, which is what the backend sends.
func (p TextPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Response string `json:"response"`
	}{Response: p.Text})
}

// RawTurn is a single turn as the history endpoint delivers it. User turns
// carry a prompt, assistant turns a response; the id field is named either
// "_id" or "id" depending on the backend's storage layer.
type RawTurn struct {
	SenderType string       `json:"sender_type"`
	Prompt     string       `json:"prompt,omitempty"`
	Response   *TextPayload `json:"response,omitempty"`
	CreatedAt  string       `json:"created_at,omitempty"`
	LegacyID   string       `json:"_id,omitempty"`
	ID         string       `json:"id,omitempty"`
}

// TurnID resolves the turn's durable id, preferring the "_id" spelling.
func (t RawTurn) TurnID() string {
	if t.LegacyID != "" {
		return t.LegacyID
	}
	return t.ID
}

// RawChat is one persisted conversation keyed by chat id in the payload.
type RawChat struct {
	CreatedAt string    `json:"created_at"`
	Messages  []RawTurn `json:"messages"`
}

// HistoryPayload mirrors the body of GET /chat/history. Any bucket may be
// absent; absence means empty, never an error.
type HistoryPayload struct {
	Today     map[string]RawChat `json:"today,omitempty"`
	Yesterday map[string]RawChat `json:"yesterday,omitempty"`
	Older     map[string]RawChat `json:"older,omitempty"`
}
