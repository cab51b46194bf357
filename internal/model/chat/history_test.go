package chat_test

import (
	"encoding/json"
	"testing"

	"github.com/industrialchat/chatclient/internal/model/chat"
)

func TestTextPayloadUnmarshalPlainString(t *testing.T) {
	var p chat.TextPayload
	if err := json.Unmarshal([]byte(`"hello"`), &p); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if p.Text != "hello" {
		t.Fatalf("unexpected text: %q", p.Text)
	}
}

func TestTextPayloadUnmarshalWrapped(t *testing.T) {
	var p chat.TextPayload
	if err := json.Unmarshal([]byte(`{"response":"hello"}`), &p); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if p.Text != "hello" {
		t.Fatalf("unexpected text: %q", p.Text)
	}
}

func TestTextPayloadUnmarshalNull(t *testing.T) {
	var p chat.TextPayload
	if err := json.Unmarshal([]byte(`null`), &p); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if p.Text != "" {
		t.Fatalf("expected empty text, got %q", p.Text)
	}
}

func TestTextPayloadUnmarshalUnknownShape(t *testing.T) {
	var p chat.TextPayload
	if err := json.Unmarshal([]byte(`[1,2,3]`), &p); err != nil {
		t.Fatalf("unknown shapes must not error, got: %v", err)
	}
	if p.Text != "" {
		t.Fatalf("expected empty text, got %q", p.Text)
	}
}

func TestTextPayloadMarshalWrapped(t *testing.T) {
	data, err := json.Marshal(chat.TextPayload{Text: "hi"})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if string(data) != `{"response":"hi"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestRawTurnIDPrefersLegacy(t *testing.T) {
	turn := chat.RawTurn{LegacyID: "m1", ID: "m2"}
	if got := turn.TurnID(); got != "m1" {
		t.Fatalf("expected _id to win, got %q", got)
	}

	turn = chat.RawTurn{ID: "m2"}
	if got := turn.TurnID(); got != "m2" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}
