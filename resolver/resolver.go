// Package resolver turns a matched game config plus prompt input into one
// tagged outcome: a destination URL, an agent answer, a classified failure,
// or a deliberate no-op. Callers switch on the tag; no error ever escapes
// Resolve.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RyanRen-Tamar/GameFloaty/agent"
	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/rs/zerolog"
)

// OutcomeKind tags what the resolver produced.
type OutcomeKind int

const (
	KindNavigate OutcomeKind = iota
	KindAnswer
	KindFailure
	KindNoOp
)

// String returns the kind name for logs.
func (k OutcomeKind) String() string {
	switch k {
	case KindNavigate:
		return "navigate"
	case KindAnswer:
		return "answer"
	case KindFailure:
		return "failure"
	default:
		return "noop"
	}
}

// FailKind classifies failure outcomes for presentation.
type FailKind int

const (
	FailMalformedURL FailKind = iota
	FailSerialization
	FailAgentCall
)

// String returns the failure class name.
func (k FailKind) String() string {
	switch k {
	case FailMalformedURL:
		return "malformed-url"
	case FailSerialization:
		return "serialization"
	default:
		return "agent-call"
	}
}

// Outcome is the single result of one resolve cycle.
type Outcome struct {
	Kind           OutcomeKind
	URL            string
	Answer         string
	ConversationID string
	FailKind       FailKind
	Message        string
}

// Navigate builds a navigation outcome.
func Navigate(target string) Outcome {
	return Outcome{Kind: KindNavigate, URL: target}
}

// Answer builds an agent-answer outcome.
func Answer(text, conversationID string) Outcome {
	return Outcome{Kind: KindAnswer, Answer: text, ConversationID: conversationID}
}

// Failure builds a classified failure outcome.
func Failure(kind FailKind, message string) Outcome {
	return Outcome{Kind: KindFailure, FailKind: kind, Message: message}
}

// NoOp builds a no-navigation outcome carrying a user-visible warning.
func NoOp(message string) Outcome {
	return Outcome{Kind: KindNoOp, Message: message}
}

// Input is the prompt resolution handed to Resolve. RepeatLast asks for the
// previously shown URL instead of a new query.
type Input struct {
	Text       string
	RepeatLast bool
}

// Legacy error prefixes still emitted by agent backends. Responses starting
// with one are failures, not answers.
var errorPrefixes = []struct {
	prefix string
	kind   FailKind
}{
	{"ADK Error:", FailAgentCall},
	{"JSON Error:", FailSerialization},
	{"Error:", FailAgentCall},
}

// DefaultAgentTimeout bounds one collaborator call.
const DefaultAgentTimeout = 30 * time.Second

// Resolver resolves queries for matched configs. It remembers the last
// successfully resolved URL for the repeat-last sentinel.
type Resolver struct {
	agent   agent.Client
	userID  string
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	lastURL string
}

// New creates a resolver. The agent client may be nil; agent-mode configs
// then produce failures rather than answers.
func New(client agent.Client, userID string, log zerolog.Logger) *Resolver {
	if userID == "" {
		userID = agent.DefaultUserID
	}
	return &Resolver{
		agent:   client,
		userID:  userID,
		timeout: DefaultAgentTimeout,
		log:     log,
	}
}

// SetAgent swaps the collaborator client (settings changes).
func (r *Resolver) SetAgent(client agent.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agent = client
}

// LastURL returns the most recently resolved destination, or "".
func (r *Resolver) LastURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastURL
}

// HasLast reports whether a repeat-last request can succeed.
func (r *Resolver) HasLast() bool {
	return r.LastURL() != ""
}

// Resolve produces exactly one outcome. It never panics and never returns
// an error; every internal failure is folded into a failure outcome.
func (r *Resolver) Resolve(ctx context.Context, cfg *models.GameConfig, in Input) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("resolver recovered")
			out = Failure(FailAgentCall, fmt.Sprintf("internal resolver error: %v", rec))
		}
	}()

	if in.RepeatLast {
		if last := r.LastURL(); last != "" {
			return Navigate(last)
		}
		return NoOp("nothing to reopen yet: no previous page this session")
	}

	switch cfg.ResolverMode() {
	case models.ModeAgent:
		return r.resolveAgent(ctx, cfg, in.Text)
	default:
		return r.resolveDirect(cfg, in.Text)
	}
}

// resolveDirect builds a wiki destination from the config's template.
func (r *Resolver) resolveDirect(cfg *models.GameConfig, text string) Outcome {
	if !cfg.Searching() {
		return r.navigate(cfg.BaseURL)
	}

	keyword := strings.TrimSpace(text)
	if keyword == "" {
		return r.navigate(cfg.BaseURL)
	}

	template := cfg.EffectiveTemplate()
	if id, ok := cfg.KeywordMap[keyword]; ok {
		return r.navigate(ExpandTemplate(template, cfg.BaseURL, url.QueryEscape(keyword), id))
	}
	return r.navigate(ExpandTemplate(template, cfg.BaseURL, url.QueryEscape(keyword), ""))
}

// resolveAgent runs one collaborator exchange with a fresh conversation.
func (r *Resolver) resolveAgent(ctx context.Context, cfg *models.GameConfig, text string) Outcome {
	r.mu.Lock()
	client := r.agent
	r.mu.Unlock()
	if client == nil {
		return Failure(FailAgentCall, "no agent backend configured; set one in Settings")
	}

	conv := models.NewConversationState(text)
	req := &agent.Request{
		UserID:         r.userID,
		ConversationID: conv.ConversationID,
		Query:          conv.Query,
		Context:        conv.Context,
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Debug().Str("conversation", conv.ConversationID).Str("backend", client.Name()).Msg("asking agent")
	resp, err := client.Ask(callCtx, req)
	if err != nil {
		return Failure(FailAgentCall, fmt.Sprintf("agent call failed: %v", err))
	}
	return classifyAgentText(resp.Response, resp.ConversationID)
}

// classifyAgentText maps a raw agent reply to an outcome. Empty replies and
// replies carrying a legacy error prefix are failures.
func classifyAgentText(text, conversationID string) Outcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Failure(FailAgentCall, "agent returned an empty response")
	}
	for _, p := range errorPrefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			return Failure(p.kind, trimmed)
		}
	}
	return Answer(trimmed, conversationID)
}

// navigate validates the destination and records it for repeat-last.
func (r *Resolver) navigate(raw string) Outcome {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Failure(FailMalformedURL, fmt.Sprintf("resolved destination is not an absolute URL: %q", raw))
	}
	r.mu.Lock()
	r.lastURL = raw
	r.mu.Unlock()
	return Navigate(raw)
}

// ExpandTemplate substitutes the {baseUrl}, {keyword} and {id} placeholders.
// The keyword must already be URL-escaped by the caller.
func ExpandTemplate(template, baseURL, keyword, id string) string {
	out := strings.ReplaceAll(template, "{baseUrl}", baseURL)
	out = strings.ReplaceAll(out, "{keyword}", keyword)
	out = strings.ReplaceAll(out, "{id}", id)
	return out
}
