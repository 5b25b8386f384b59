package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"
)

// answerPreamble keeps local-LLM answers short enough for the overlay.
const answerPreamble = "You are an in-game assistant answering questions " +
	"about the game the player is currently running. Answer concisely in a " +
	"few sentences, no markdown headings.\n\n"

// LLMClient answers queries with a local or API LLM instead of a dedicated
// agent service, wrapped in the same request/response contract.
type LLMClient struct {
	llm      llm.LLM
	provider string
}

// NewLLMClient builds a gollm-backed client. The provider's API key is read
// from its usual environment variable; ollama needs none.
func NewLLMClient(provider, model string) (*LLMClient, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetMaxTokens(400),
		gollm.SetTemperature(0.3),
	}
	if model != "" {
		opts = append(opts, gollm.SetModel(model))
	}

	client, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", provider, err)
	}
	return &LLMClient{llm: client, provider: provider}, nil
}

// Name returns the backend name.
func (c *LLMClient) Name() string {
	return "llm:" + c.provider
}

// Ask generates an answer and wraps it in the collaborator contract. The
// conversation id is echoed back; gollm holds no server-side state.
func (c *LLMClient) Ask(ctx context.Context, req *Request) (*Response, error) {
	var sb strings.Builder
	sb.WriteString(answerPreamble)
	sb.WriteString("Question: ")
	sb.WriteString(req.Query)
	for key, value := range req.Context {
		sb.WriteString("\n")
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(value)
	}

	prompt := gollm.NewPrompt(sb.String())
	answer, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Response{
		Response:       strings.TrimSpace(answer),
		ConversationID: req.ConversationID,
		Context:        req.Context,
	}, nil
}
