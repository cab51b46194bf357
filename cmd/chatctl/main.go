// chatctl is a terminal front end for the chat client: it signs the user
// in, lists past conversations and runs the send loop. All conversation
// logic lives in the internal packages; this binary only dispatches input
// and prints snapshots.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/industrialchat/chatclient/internal/api"
	"github.com/industrialchat/chatclient/internal/auth"
	"github.com/industrialchat/chatclient/internal/config"
	"github.com/industrialchat/chatclient/internal/controller"
	"github.com/industrialchat/chatclient/internal/model/chat"
	"github.com/industrialchat/chatclient/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	credPath := cfg.Client.CredentialPath
	if credPath == "" {
		credPath, err = auth.DefaultCredentialPath()
		if err != nil {
			log.Fatalf("failed to resolve credential path: %v", err)
		}
	}
	creds := auth.NewCredentialStore(credPath)

	client, err := api.New(api.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.RequestTimeout,
		Token:   creds.Token,
	})
	if err != nil {
		log.Fatalf("failed to build API client: %v", err)
	}

	authSvc := auth.NewService(client, creds)

	cmd := "chat"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()
	switch cmd {
	case "register":
		runRegister(ctx, authSvc)
	case "login":
		runLogin(ctx, authSvc)
	case "logout":
		if err := authSvc.Logout(); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	case "chat":
		runChat(ctx, client, creds)
	default:
		fmt.Fprintf(os.Stderr, "usage: chatctl [register|login|logout|chat]\n")
		os.Exit(2)
	}
}

func runRegister(ctx context.Context, svc *auth.Service) {
	in := bufio.NewReader(os.Stdin)
	username := promptLine(in, "username: ")
	email := promptLine(in, "email: ")
	password := promptLine(in, "password: ")

	if err := svc.Register(ctx, username, email, password); err != nil {
		var verr *auth.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fmt.Fprintln(os.Stderr, f.Message)
			}
			os.Exit(1)
		}
		log.Fatalf("registration failed: %v", err)
	}
	fmt.Println("registered; run `chatctl login`")
}

func runLogin(ctx context.Context, svc *auth.Service) {
	in := bufio.NewReader(os.Stdin)
	email := promptLine(in, "email: ")
	password := promptLine(in, "password: ")

	if _, err := svc.Login(ctx, email, password); err != nil {
		log.Fatalf("login failed: %v", err)
	}
	fmt.Println("logged in")
}

func runChat(ctx context.Context, client *api.Client, creds *auth.CredentialStore) {
	stored, err := creds.Load()
	if errors.Is(err, auth.ErrNotAuthenticated) {
		fmt.Fprintln(os.Stderr, "not logged in; run `chatctl login`")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("failed to load credentials: %v", err)
	}

	st := store.New()
	ctl := controller.New(client, st, stored.UserID)
	fetcher := controller.NewHistoryFetcher(client, stored.UserID)
	recorder := controller.NewRatingRecorder(client, st)

	if err := fetcher.Fetch(ctx); err != nil {
		fmt.Fprintln(os.Stderr, fetcher.Err())
	}
	printIndex(fetcher.Index())

	// Print each message as it lands in the store. A shrink or a changed
	// first message means the session switched; reprint from the top.
	printed := 0
	var head chat.Message
	unsubscribe := st.Subscribe(func() {
		msgs := st.Messages()
		if len(msgs) < printed || (printed > 0 && len(msgs) > 0 && msgs[0] != head) {
			printed = 0
			fmt.Println("---")
		}
		if len(msgs) > 0 {
			head = msgs[0]
		}
		for ; printed < len(msgs); printed++ {
			printMessage(msgs[printed])
		}
	})
	defer unsubscribe()

	fmt.Println(`type a message, or /history /open <n> /new /rate <id> <1|-1> /clear /quit`)
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := ctl.Send(ctx, line); err != nil {
				fmt.Fprintln(os.Stderr, ctl.Err())
			}
			continue
		}
		if !dispatch(ctx, line, ctl, fetcher, recorder, client, stored.UserID) {
			return
		}
	}
}

// dispatch handles one slash command; it reports false to quit.
func dispatch(ctx context.Context, line string, ctl *controller.Controller, fetcher *controller.HistoryFetcher, recorder *controller.RatingRecorder, client *api.Client, userID string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return false
	case "/history":
		if err := fetcher.Fetch(ctx); err != nil {
			fmt.Fprintln(os.Stderr, fetcher.Err())
			return true
		}
		printIndex(fetcher.Index())
	case "/open":
		if len(fields) != 2 {
			fmt.Fprintln(os.Stderr, "usage: /open <n>")
			return true
		}
		n, err := strconv.Atoi(fields[1])
		sessions := flatten(fetcher.Index())
		if err != nil || n < 1 || n > len(sessions) {
			fmt.Fprintf(os.Stderr, "no such session (1-%d)\n", len(sessions))
			return true
		}
		if err := ctl.UseSession(sessions[n-1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "/new":
		if err := ctl.NewSession(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "/rate":
		if len(fields) != 3 {
			fmt.Fprintln(os.Stderr, "usage: /rate <message-id> <1|-1>")
			return true
		}
		rating, err := strconv.Atoi(fields[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "rating must be 1 or -1")
			return true
		}
		if err := recorder.Rate(ctx, fields[1], rating); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case "/clear":
		if err := client.Clear(ctx, userID); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to clear chat history")
			return true
		}
		if err := fetcher.Fetch(ctx); err != nil {
			fmt.Fprintln(os.Stderr, fetcher.Err())
		}
		printIndex(fetcher.Index())
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", fields[0])
	}
	return true
}

func flatten(index chat.HistoryIndex) []chat.Session {
	out := make([]chat.Session, 0, len(index.Today)+len(index.Yesterday)+len(index.Older))
	out = append(out, index.Today...)
	out = append(out, index.Yesterday...)
	out = append(out, index.Older...)
	return out
}

func printIndex(index chat.HistoryIndex) {
	if index.Empty() {
		fmt.Println("no past conversations")
		return
	}

	n := 0
	printBucket := func(title string, sessions []chat.Session) {
		if len(sessions) == 0 {
			return
		}
		fmt.Printf("%s:\n", title)
		for _, sess := range sessions {
			n++
			fmt.Printf("  %2d. %s\n", n, sess.Preview)
		}
	}
	printBucket("Today", index.Today)
	printBucket("Yesterday", index.Yesterday)
	printBucket("Older", index.Older)
}

func printMessage(msg chat.Message) {
	who := "You"
	if msg.Sender == chat.SenderAssistant {
		who = "AI"
	}
	suffix := ""
	if msg.MessageID != "" && msg.Sender == chat.SenderAssistant {
		suffix = fmt.Sprintf("  [id %s]", msg.MessageID)
	}
	fmt.Printf("[%s] %s: %s%s\n", msg.Timestamp, who, msg.Text, suffix)
}

func promptLine(in *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
