package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/industrialchat/chatclient/internal/api"
)

func newTestServer(t *testing.T) (*Server, *api.Client, *string) {
	t.Helper()

	srv := New(Canned())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	token := ""
	client, err := api.New(api.Config{
		BaseURL: ts.URL,
		Token:   func() string { return token },
	})
	if err != nil {
		t.Fatalf("api.New err: %v", err)
	}
	return srv, client, &token
}

func login(t *testing.T, client *api.Client, token *string) string {
	t.Helper()
	ctx := context.Background()

	err := client.Register(ctx, api.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	resp, err := client.Login(ctx, api.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	*token = resp.Token
	return resp.UserID
}

func TestFullConversationFlow(t *testing.T) {
	_, client, token := newTestServer(t)
	ctx := context.Background()
	userID := login(t, client, token)

	gen, err := client.Generate(ctx, api.GenerateRequest{Prompt: "Hi", UserID: userID})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if gen.ChatLocator() == "" {
		t.Fatal("expected an assigned chat id")
	}
	if gen.Response.Text == "" {
		t.Fatal("expected a reply")
	}
	if gen.DurableID() == "" {
		t.Fatal("expected a durable message id")
	}

	// Second exchange lands in the same chat.
	if _, err := client.Generate(ctx, api.GenerateRequest{Prompt: "More", UserID: userID, ChatID: gen.ChatLocator()}); err != nil {
		t.Fatalf("second Generate err: %v", err)
	}

	payload, err := client.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	raw, ok := payload.Today[gen.ChatLocator()]
	if !ok {
		t.Fatalf("chat missing from today bucket: %+v", payload)
	}
	if len(raw.Messages) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(raw.Messages))
	}
	if raw.Messages[0].Prompt != "Hi" || raw.Messages[0].SenderType != "user" {
		t.Fatalf("unexpected first turn: %+v", raw.Messages[0])
	}
	if raw.Messages[1].Response == nil || raw.Messages[1].Response.Text == "" {
		t.Fatalf("assistant turn response missing: %+v", raw.Messages[1])
	}
	if raw.Messages[1].TurnID() == "" {
		t.Fatal("assistant turn id missing")
	}

	if err := client.Rate(ctx, gen.DurableID(), 1); err != nil {
		t.Fatalf("Rate err: %v", err)
	}

	if err := client.Clear(ctx, userID); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	payload, err = client.History(ctx, userID)
	if err != nil {
		t.Fatalf("History after clear err: %v", err)
	}
	if len(payload.Today) != 0 {
		t.Fatalf("history not cleared: %+v", payload)
	}
}

func TestChatRoutesRequireToken(t *testing.T) {
	_, client, _ := newTestServer(t)

	_, err := client.History(context.Background(), "u1")
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, client, token := newTestServer(t)
	login(t, client, token)

	err := client.Register(context.Background(), api.RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "x"})
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, client, token := newTestServer(t)
	login(t, client, token)

	_, err := client.Login(context.Background(), api.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %v", err)
	}
}

func TestGenerateUnknownChat(t *testing.T) {
	_, client, token := newTestServer(t)
	userID := login(t, client, token)

	_, err := client.Generate(context.Background(), api.GenerateRequest{Prompt: "Hi", UserID: userID, ChatID: "missing"})
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown chat, got %v", err)
	}
}

func TestHistoryBuckets(t *testing.T) {
	srv, client, token := newTestServer(t)
	ctx := context.Background()
	userID := login(t, client, token)

	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

	mkChat := func(at time.Time) {
		srv.mem.now = func() time.Time { return at }
		if _, err := client.Generate(ctx, api.GenerateRequest{Prompt: "Hi", UserID: userID}); err != nil {
			t.Fatalf("Generate err: %v", err)
		}
	}

	mkChat(base)                     // today
	mkChat(base.AddDate(0, 0, -1))   // yesterday
	mkChat(base.AddDate(0, 0, -10))  // older
	srv.mem.now = func() time.Time { return base }

	payload, err := client.History(ctx, userID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(payload.Today) != 1 || len(payload.Yesterday) != 1 || len(payload.Older) != 1 {
		t.Fatalf("unexpected bucketing: today=%d yesterday=%d older=%d",
			len(payload.Today), len(payload.Yesterday), len(payload.Older))
	}
}

func TestBucketFor(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)

	cases := []struct {
		at   time.Time
		want string
	}{
		{now, "today"},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local), "today"},
		{time.Date(2024, 5, 9, 23, 59, 59, 0, time.Local), "yesterday"},
		{time.Date(2024, 5, 9, 0, 0, 0, 0, time.Local), "yesterday"},
		{time.Date(2024, 5, 8, 23, 59, 59, 0, time.Local), "older"},
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local), "older"},
	}
	for _, tc := range cases {
		if got := bucketFor(tc.at, now); got != tc.want {
			t.Fatalf("bucketFor(%v): got %q want %q", tc.at, got, tc.want)
		}
	}
}
