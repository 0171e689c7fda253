package courseguide

import (
	"context"
	"fmt"

	"github.com/yungbote/courseguide-backend/internal/modules/courseguide/prompts"
	"github.com/yungbote/courseguide-backend/internal/platform/openrouter"
)

// Completer returns the raw model text for one learning goal.
type Completer interface {
	Complete(ctx context.Context, goal string) (string, error)
}

// CompletionClient renders the course-guide prompt and sends it as a single
// system+user chat completion.
type CompletionClient struct {
	chat   openrouter.Client
	prompt *prompts.Template
}

func NewCompletionClient(chat openrouter.Client, prompt *prompts.Template) (*CompletionClient, error) {
	if chat == nil {
		return nil, fmt.Errorf("completion client: nil chat client")
	}
	if prompt == nil {
		return nil, fmt.Errorf("completion client: nil prompt")
	}
	return &CompletionClient{chat: chat, prompt: prompt}, nil
}

func (c *CompletionClient) Complete(ctx context.Context, goal string) (string, error) {
	system, user, err := c.prompt.Render(prompts.Input{Input: goal})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	messages := make([]openrouter.Message, 0, 2)
	if system != "" {
		messages = append(messages, openrouter.Message{Role: "system", Content: system})
	}
	messages = append(messages, openrouter.Message{Role: "user", Content: user})
	return c.chat.ChatCompletion(ctx, messages)
}
