package devserver

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/industrialchat/chatclient/internal/config"
)

const systemPrompt = "You are a helpful assistant for an industrial operations chat. Answer concisely."

// historyLimit caps how many prior turns are fed back into the model.
const historyLimit = 10

// Generator produces assistant replies. With an Ark model configured an
// eino chain does the work; otherwise a deterministic canned responder
// keeps the endpoint exercisable offline.
type Generator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// Canned returns a generator that only produces canned replies.
func Canned() *Generator {
	return &Generator{}
}

// NewGenerator builds a generator from the model configuration. A disabled
// configuration yields the canned generator, not an error.
func NewGenerator(ctx context.Context, cfg config.ModelConfig) (*Generator, error) {
	if !cfg.Enabled() {
		return Canned(), nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	return &Generator{chain: runnable}, nil
}

// ModelBacked reports whether replies come from a real model.
func (g *Generator) ModelBacked() bool {
	return g.chain != nil
}

// Reply generates the assistant turn for prompt given the chat's prior
// turns.
func (g *Generator) Reply(ctx context.Context, turns []storedTurn, promptText string) (string, error) {
	if g.chain == nil {
		return cannedReply(promptText), nil
	}

	msg, err := g.chain.Invoke(ctx, map[string]any{
		"history": historyMessages(turns),
		"query":   promptText,
	})
	if err != nil {
		return "", fmt.Errorf("run chat chain: %w", err)
	}
	return msg.Content, nil
}

func historyMessages(turns []storedTurn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.SenderType {
		case "user":
			history = append(history, schema.UserMessage(turn.Prompt))
		case "assistant":
			history = append(history, schema.AssistantMessage(turn.Response, nil))
		}
	}
	return history
}

func cannedReply(promptText string) string {
	return fmt.Sprintf("You asked: %q. Configure an Ark model to get real answers.", promptText)
}
