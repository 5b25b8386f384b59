// Package prompt implements the query-prompt resolution state machine. The
// UI layer renders the input window; this package owns the transition rules
// so the Enter-submit versus focus-loss-cancel race has exactly one winner.
package prompt

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ResultKind tags how a prompt instance was resolved.
type ResultKind int

const (
	// Cancelled covers Escape, focus loss, dismissal, and blank submissions.
	Cancelled ResultKind = iota
	// Submitted carries the trimmed query text.
	Submitted
	// SubmittedLast is the repeat-last sentinel: reopen whatever was shown
	// previously instead of running a new query.
	SubmittedLast
)

// String returns the kind name for logs.
func (k ResultKind) String() string {
	switch k {
	case Submitted:
		return "submitted"
	case SubmittedLast:
		return "submitted-last"
	default:
		return "cancelled"
	}
}

// Result is the single outcome of one prompt instance.
type Result struct {
	Kind ResultKind
	Text string
}

// DefaultGraceDelay is how long a focus loss may linger before it cancels
// the prompt. Refocusing within the window disarms the cancellation, which
// keeps brief focus flickers (the window manager animating in, for one)
// from eating the prompt.
const DefaultGraceDelay = 200 * time.Millisecond

// Prompt is a one-shot resolution slot backing a single prompt window.
// All resolution paths funnel through the same guard: only the first
// transition out of the open state is honored, every later attempt is a
// no-op. A resolved prompt never un-resolves.
type Prompt struct {
	mu         sync.Mutex
	resolved   bool
	result     Result
	grace      *time.Timer
	graceDelay time.Duration
	done       chan struct{}
}

// New creates an open prompt. A zero grace delay selects DefaultGraceDelay.
func New(graceDelay time.Duration) *Prompt {
	if graceDelay <= 0 {
		graceDelay = DefaultGraceDelay
	}
	return &Prompt{
		graceDelay: graceDelay,
		done:       make(chan struct{}),
	}
}

// Submit resolves the prompt with the user's text. Blank or whitespace-only
// text resolves as Cancelled instead; callers never see empty submissions.
// Returns false when the prompt was already resolved.
func (p *Prompt) Submit(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return p.resolve(Result{Kind: Cancelled})
	}
	return p.resolve(Result{Kind: Submitted, Text: trimmed})
}

// SubmitLast resolves the prompt with the repeat-last sentinel.
func (p *Prompt) SubmitLast() bool {
	return p.resolve(Result{Kind: SubmittedLast})
}

// Cancel resolves the prompt as cancelled (Escape or explicit dismissal).
func (p *Prompt) Cancel() bool {
	return p.resolve(Result{Kind: Cancelled})
}

// FocusLost arms the grace timer; when it expires the prompt cancels. A
// second focus loss while armed does not restart the timer.
func (p *Prompt) FocusLost() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved || p.grace != nil {
		return
	}
	p.grace = time.AfterFunc(p.graceDelay, func() {
		p.resolve(Result{Kind: Cancelled})
	})
}

// FocusGained disarms a pending focus-loss cancellation.
func (p *Prompt) FocusGained() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grace != nil {
		p.grace.Stop()
		p.grace = nil
	}
}

// Done is closed once the prompt resolves.
func (p *Prompt) Done() <-chan struct{} {
	return p.done
}

// Resolved reports whether a transition already won.
func (p *Prompt) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Result returns the resolution. Only meaningful after Done is closed.
func (p *Prompt) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Await blocks until the prompt resolves. A cancelled context cancels the
// prompt, which still yields to any resolution that won first.
func (p *Prompt) Await(ctx context.Context) Result {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.Cancel()
		<-p.done
	}
	return p.Result()
}

func (p *Prompt) resolve(r Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return false
	}
	p.resolved = true
	p.result = r
	if p.grace != nil {
		p.grace.Stop()
		p.grace = nil
	}
	close(p.done)
	return true
}
