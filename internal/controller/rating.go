package controller

import (
	"context"
	"errors"
	"log"

	"github.com/industrialchat/chatclient/internal/model/chat"
	"github.com/industrialchat/chatclient/internal/store"
)

// ErrInvalidRating means the judgment was neither +1 nor -1.
var ErrInvalidRating = errors.New("rating must be -1 or 1")

// RatingSink is the rate half of the API client.
type RatingSink interface {
	Rate(ctx context.Context, messageID string, rating int) error
}

// RatingRecorder sends thumb judgments on assistant messages. It is
// strictly best effort: backend rejections are logged and swallowed, never
// retried, and conversation content and order are never touched.
type RatingRecorder struct {
	sink  RatingSink
	store *store.Store
}

// NewRatingRecorder wires the recorder to the backend and the store it
// reflects ratings into.
func NewRatingRecorder(sink RatingSink, st *store.Store) *RatingRecorder {
	return &RatingRecorder{sink: sink, store: st}
}

// Rate records rating against the message with the given durable id. The
// matching local message, when present, reflects the rating immediately for
// visual feedback; a stale or unknown id skips that step.
func (r *RatingRecorder) Rate(ctx context.Context, messageID string, rating int) error {
	if rating != chat.RatingUp && rating != chat.RatingDown {
		return ErrInvalidRating
	}

	r.store.SetRating(messageID, rating)

	if err := r.sink.Rate(ctx, messageID, rating); err != nil {
		log.Printf("[rating] rate message=%s failed: %v", messageID, err)
	}
	return nil
}
