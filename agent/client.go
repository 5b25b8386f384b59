// Package agent talks to the AI collaborator that answers free-text game
// questions. The wire contract is fixed; transports are interchangeable
// behind Client.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RyanRen-Tamar/GameFloaty/models"
)

// ErrNoClient is returned by New when settings select no usable backend.
var ErrNoClient = errors.New("no agent backend configured")

// DefaultUserID identifies this install to the collaborator when settings
// do not override it.
const DefaultUserID = "gamefloaty-user"

// Request is the outbound collaborator contract. Context is omitted from
// the wire form when empty.
type Request struct {
	UserID         string            `json:"userId"`
	ConversationID string            `json:"conversationId"`
	Query          string            `json:"query"`
	Context        map[string]string `json:"context,omitempty"`
}

// Response is the inbound collaborator contract.
type Response struct {
	Response       string            `json:"response"`
	ConversationID string            `json:"conversationId"`
	Context        map[string]string `json:"context,omitempty"`
}

// Client asks the collaborator a single question. Implementations return an
// error for transport failures; error-shaped answer texts are the resolver's
// concern, not the client's.
type Client interface {
	Name() string
	Ask(ctx context.Context, req *Request) (*Response, error)
}

// New selects a backend from settings: a configured endpoint wins, then a
// local LLM provider. ErrNoClient when neither is set.
func New(cfg *models.AgentConfig) (Client, error) {
	if cfg == nil {
		return nil, ErrNoClient
	}
	if cfg.Endpoint != "" {
		return NewHTTPClient(cfg.Endpoint), nil
	}
	if cfg.Provider != "" {
		return NewLLMClient(cfg.Provider, cfg.Model)
	}
	return nil, ErrNoClient
}

// HTTPClient posts the request contract as JSON to an agent service.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the given endpoint URL.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the backend name.
func (c *HTTPClient) Name() string {
	return "http"
}

// Ask sends one request and decodes the response contract.
func (c *HTTPClient) Ask(ctx context.Context, req *Request) (*Response, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent error (%d): %s", resp.StatusCode, string(body))
	}

	out := &Response{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if out.ConversationID == "" {
		out.ConversationID = req.ConversationID
	}
	return out, nil
}
