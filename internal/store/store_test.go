package store_test

import (
	"testing"

	"github.com/industrialchat/chatclient/internal/model/chat"
	"github.com/industrialchat/chatclient/internal/store"
)

func TestAppendKeepsOrder(t *testing.T) {
	s := store.New()
	s.Append(chat.Message{Text: "first", Sender: chat.SenderUser})
	s.Append(chat.Message{Text: "second", Sender: chat.SenderAssistant})
	s.Append(chat.Message{Text: "third", Sender: chat.SenderUser})

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Text != want {
			t.Fatalf("position %d: got %q want %q", i, msgs[i].Text, want)
		}
	}
}

func TestReplaceNilInstallsEmpty(t *testing.T) {
	s := store.New()
	s.Append(chat.Message{Text: "stale"})

	s.Replace(nil)

	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("expected empty sequence, got %d messages", len(got))
	}
}

func TestReplaceCopiesCallerSlice(t *testing.T) {
	s := store.New()
	msgs := []chat.Message{{Text: "original"}}
	s.Replace(msgs)

	msgs[0].Text = "mutated"

	if got := s.Messages()[0].Text; got != "original" {
		t.Fatalf("store aliased caller slice: %q", got)
	}
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	s := store.New()
	s.Append(chat.Message{Text: "kept"})

	snapshot := s.Messages()
	snapshot[0].Text = "mutated"

	if got := s.Messages()[0].Text; got != "kept" {
		t.Fatalf("snapshot leaked into store: %q", got)
	}
}

func TestChatIDIndependentOfMessages(t *testing.T) {
	s := store.New()
	s.Append(chat.Message{Text: "in-flight first exchange", Sender: chat.SenderUser})

	if s.ChatID() != "" {
		t.Fatalf("new session should have no chat id")
	}

	s.SetChatID("c1")
	if s.ChatID() != "c1" {
		t.Fatalf("chat id not recorded")
	}
	if s.Len() != 1 {
		t.Fatalf("setting chat id must not touch messages")
	}
}

func TestSetRatingTargetsByID(t *testing.T) {
	s := store.New()
	s.Append(chat.Message{Text: "q", Sender: chat.SenderUser})
	s.Append(chat.Message{Text: "a", Sender: chat.SenderAssistant, MessageID: "m2"})

	if !s.SetRating("m2", chat.RatingUp) {
		t.Fatalf("expected a match for m2")
	}
	if got := s.Messages()[1].Rating; got != chat.RatingUp {
		t.Fatalf("rating not reflected: %d", got)
	}

	if s.SetRating("missing", chat.RatingDown) {
		t.Fatalf("unknown id must be a no-op")
	}
	if s.SetRating("", chat.RatingDown) {
		t.Fatalf("empty id must be a no-op")
	}
}

func TestSubscribeSeesEveryMutation(t *testing.T) {
	s := store.New()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })

	s.Append(chat.Message{Text: "a"})
	s.Replace([]chat.Message{{Text: "b"}})
	s.SetChatID("c1")

	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}

	unsub()
	s.Append(chat.Message{Text: "c"})
	if calls != 3 {
		t.Fatalf("unsubscribed observer still notified")
	}
}

func TestSubscriberRunsBeforeMutationReturns(t *testing.T) {
	s := store.New()
	var seen int
	s.Subscribe(func() { seen = s.Len() })

	s.Append(chat.Message{Text: "a"})

	if seen != 1 {
		t.Fatalf("subscriber observed %d messages, want 1", seen)
	}
}
