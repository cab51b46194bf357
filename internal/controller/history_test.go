package controller_test

import (
	"context"
	"errors"
	"testing"

	"github.com/industrialchat/chatclient/internal/controller"
	"github.com/industrialchat/chatclient/internal/model/chat"
)

type fakeHistorySource struct {
	payload chat.HistoryPayload
	err     error
	calls   int
}

func (f *fakeHistorySource) History(_ context.Context, _ string) (chat.HistoryPayload, error) {
	f.calls++
	if f.err != nil {
		return chat.HistoryPayload{}, f.err
	}
	return f.payload, nil
}

func TestHistoryFetchReplacesIndex(t *testing.T) {
	source := &fakeHistorySource{payload: chat.HistoryPayload{
		Today: map[string]chat.RawChat{
			"c1": {CreatedAt: "2024-01-01T10:00:00Z", Messages: []chat.RawTurn{
				{SenderType: "user", Prompt: "Hi", LegacyID: "m1"},
			}},
		},
	}}
	fetcher := controller.NewHistoryFetcher(source, "u1")

	if err := fetcher.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch err: %v", err)
	}

	index := fetcher.Index()
	if len(index.Today) != 1 || index.Today[0].ChatID != "c1" {
		t.Fatalf("unexpected index: %+v", index)
	}
	if fetcher.Err() != "" {
		t.Fatalf("unexpected error flag: %q", fetcher.Err())
	}
}

func TestHistoryFetchFailureKeepsStaleIndex(t *testing.T) {
	source := &fakeHistorySource{payload: chat.HistoryPayload{
		Today: map[string]chat.RawChat{"c1": {CreatedAt: "2024-01-01T10:00:00Z"}},
	}}
	fetcher := controller.NewHistoryFetcher(source, "u1")

	if err := fetcher.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch err: %v", err)
	}

	source.err = errors.New("unreachable")
	if err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch failure")
	}

	if index := fetcher.Index(); len(index.Today) != 1 {
		t.Fatalf("stale index lost on failure: %+v", index)
	}
	if fetcher.Err() == "" {
		t.Fatal("expected error flag after failure")
	}

	source.err = nil
	if err := fetcher.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch err: %v", err)
	}
	if fetcher.Err() != "" {
		t.Fatalf("error flag not cleared on success: %q", fetcher.Err())
	}
}

func TestHistoryFetchEmptyPayload(t *testing.T) {
	source := &fakeHistorySource{}
	fetcher := controller.NewHistoryFetcher(source, "u1")

	if err := fetcher.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch err: %v", err)
	}
	index := fetcher.Index()
	if index.Today == nil || index.Yesterday == nil || index.Older == nil {
		t.Fatalf("all buckets must be present after mapping: %+v", index)
	}
}
