package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/industrialchat/chatclient/internal/model/chat"
	"github.com/industrialchat/chatclient/pkg/utils"
)

// Server serves the backend wire contract.
type Server struct {
	mem *memory
	gen *Generator
}

// New builds a server around the given generator.
func New(gen *Generator) *Server {
	return &Server{mem: newMemory(), gen: gen}
}

// Router wires the routes the browser client expects. Chat routes require a
// bearer token from a prior login.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Route("/chat", func(cr chi.Router) {
		cr.Use(s.requireToken)
		cr.Post("/generate", s.handleGenerate)
		cr.Get("/history", s.handleHistory)
		cr.Delete("/clear", s.handleClear)
		cr.Post("/rate", s.handleRate)
	})

	return r
}

type ctxKey int

const userKey ctxKey = 0

func withUser(ctx context.Context, u *user) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func userFrom(ctx context.Context) *user {
	u, _ := ctx.Value(userKey).(*user)
	return u
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		u, found := s.mem.userByToken(token)
		if !found {
			utils.RespondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	u, err := s.mem.createUser(payload.Username, payload.Email, payload.Password)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "registered",
		"user_id": u.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.mem.authenticate(payload.Email, payload.Password)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"token":   u.Token,
		"user_id": u.ID,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt string `json:"prompt"`
		UserID string `json:"user_id"`
		ChatID string `json:"chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Prompt) == "" {
		utils.RespondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	u := userFrom(r.Context())

	var turns []storedTurn
	if payload.ChatID != "" {
		turns = s.mem.transcript(u.ID, payload.ChatID)
	}

	reply, err := s.gen.Reply(r.Context(), turns, payload.Prompt)
	if err != nil {
		log.Printf("[devserver] generation failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "generation failed")
		return
	}

	chatID, messageID, err := s.mem.appendExchange(u.ID, payload.ChatID, payload.Prompt, reply)
	if errors.Is(err, ErrChatNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"response":   chat.TextPayload{Text: reply},
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	if got := r.URL.Query().Get("user_id"); got != "" && got != u.ID {
		utils.RespondError(w, http.StatusForbidden, "user_id does not match token")
		return
	}

	payload := chat.HistoryPayload{
		Today:     map[string]chat.RawChat{},
		Yesterday: map[string]chat.RawChat{},
		Older:     map[string]chat.RawChat{},
	}

	now := s.mem.now()
	for _, c := range s.mem.chatsForUser(u.ID) {
		raw := chat.RawChat{
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
			Messages:  wireTurns(c.Turns),
		}
		switch bucketFor(c.CreatedAt, now) {
		case "today":
			payload.Today[c.ID] = raw
		case "yesterday":
			payload.Yesterday[c.ID] = raw
		default:
			payload.Older[c.ID] = raw
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"history": payload})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	removed := s.mem.clearChats(u.ID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "history cleared",
		"removed": removed,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MessageID string `json:"message_id"`
		Rating    int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.MessageID == "" {
		utils.RespondError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if payload.Rating != chat.RatingUp && payload.Rating != chat.RatingDown {
		utils.RespondError(w, http.StatusBadRequest, "rating must be -1 or 1")
		return
	}

	s.mem.rate(payload.MessageID, payload.Rating)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "rating recorded"})
}

// wireTurns converts stored turns to the wire shape: user turns carry a
// prompt, assistant turns a wrapped response, all ids under "_id".
func wireTurns(turns []storedTurn) []chat.RawTurn {
	out := make([]chat.RawTurn, 0, len(turns))
	for _, turn := range turns {
		raw := chat.RawTurn{
			SenderType: turn.SenderType,
			CreatedAt:  turn.CreatedAt.UTC().Format(time.RFC3339),
			LegacyID:   turn.ID,
		}
		if turn.SenderType == "user" {
			raw.Prompt = turn.Prompt
		} else {
			raw.Response = &chat.TextPayload{Text: turn.Response}
		}
		out = append(out, raw)
	}
	return out
}

// bucketFor classifies t against the server's local day boundary.
func bucketFor(t, now time.Time) string {
	year, month, day := now.Date()
	startOfToday := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	switch {
	case !t.Before(startOfToday):
		return "today"
	case !t.Before(startOfToday.AddDate(0, 0, -1)):
		return "yesterday"
	default:
		return "older"
	}
}
