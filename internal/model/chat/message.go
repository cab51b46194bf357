package chat

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Rating values a user can attach to an assistant message.
const (
	RatingDown    = -1
	RatingUnrated = 0
	RatingUp      = 1
)

// Message is one rendered conversational turn. Once appended to a sequence
// it is never reordered; slice order is chronological order. MessageID stays
// empty until the backend has assigned a durable id.
type Message struct {
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
	MessageID string `json:"messageId,omitempty"`
	Rating    int    `json:"rating"`
}

// Rated reports whether the message has received a thumb judgment.
func (m Message) Rated() bool {
	return m.Rating != RatingUnrated
}
