package auth_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/industrialchat/chatclient/internal/auth"
)

func TestCredentialStoreMissingFile(t *testing.T) {
	store := auth.NewCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))

	if _, err := store.Load(); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if store.Authenticated() {
		t.Fatal("missing file must be unauthenticated")
	}
	if store.Token() != "" {
		t.Fatal("missing file must yield an empty token")
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := auth.NewCredentialStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	want := auth.Credentials{Token: "tok", UserID: "u1"}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if store.Token() != "tok" {
		t.Fatalf("unexpected token: %q", store.Token())
	}
}

func TestCredentialStoreEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"token":"","user_id":"u1"}`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := auth.NewCredentialStore(path)
	if _, err := store.Load(); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("empty token must be ErrNotAuthenticated, got %v", err)
	}
}

func TestCredentialStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{broken`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := auth.NewCredentialStore(path)
	if _, err := store.Load(); err == nil || errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("corrupt file should be a distinct error, got %v", err)
	}
	if store.Token() != "" {
		t.Fatal("corrupt file must still yield an empty token, not a crash")
	}
}
