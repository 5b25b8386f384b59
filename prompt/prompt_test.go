package prompt_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RyanRen-Tamar/GameFloaty/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstTransitionWins(t *testing.T) {
	t.Run("SubmitThenCancel", func(t *testing.T) {
		p := prompt.New(0)
		assert.True(t, p.Submit("margit weakness"))
		assert.False(t, p.Cancel())
		assert.False(t, p.Submit("other"))

		r := p.Result()
		assert.Equal(t, prompt.Submitted, r.Kind)
		assert.Equal(t, "margit weakness", r.Text)
	})

	t.Run("CancelThenSubmit", func(t *testing.T) {
		p := prompt.New(0)
		assert.True(t, p.Cancel())
		assert.False(t, p.Submit("too late"))
		assert.Equal(t, prompt.Cancelled, p.Result().Kind)
	})

	t.Run("ConcurrentResolvers", func(t *testing.T) {
		p := prompt.New(0)

		const attempts = 32
		var wg sync.WaitGroup
		wins := make(chan bool, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if n%2 == 0 {
					wins <- p.Submit("query")
				} else {
					wins <- p.Cancel()
				}
			}(i)
		}
		wg.Wait()
		close(wins)

		var winners int
		for won := range wins {
			if won {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestBlankSubmissionCancels(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		p := prompt.New(0)
		assert.True(t, p.Submit(text))
		assert.Equal(t, prompt.Cancelled, p.Result().Kind, "text %q", text)
	}
}

func TestSubmitTrimsText(t *testing.T) {
	p := prompt.New(0)
	p.Submit("  transport belt  ")
	assert.Equal(t, "transport belt", p.Result().Text)
}

func TestSubmitLast(t *testing.T) {
	p := prompt.New(0)
	assert.True(t, p.SubmitLast())
	r := p.Result()
	assert.Equal(t, prompt.SubmittedLast, r.Kind)
	assert.Empty(t, r.Text)
}

func TestFocusLossGrace(t *testing.T) {
	t.Run("ExpiryCancels", func(t *testing.T) {
		p := prompt.New(20 * time.Millisecond)
		p.FocusLost()

		select {
		case <-p.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("prompt did not cancel after grace expiry")
		}
		assert.Equal(t, prompt.Cancelled, p.Result().Kind)
	})

	t.Run("RefocusDisarms", func(t *testing.T) {
		p := prompt.New(30 * time.Millisecond)
		p.FocusLost()
		p.FocusGained()

		select {
		case <-p.Done():
			t.Fatal("prompt cancelled despite refocus")
		case <-time.After(150 * time.Millisecond):
		}

		assert.True(t, p.Submit("still alive"))
		assert.Equal(t, prompt.Submitted, p.Result().Kind)
	})

	t.Run("SubmitBeatsPendingGrace", func(t *testing.T) {
		p := prompt.New(25 * time.Millisecond)
		p.FocusLost()
		require.True(t, p.Submit("enter pressed"))

		// Give the stale timer a chance to fire; it must be a no-op.
		time.Sleep(80 * time.Millisecond)
		r := p.Result()
		assert.Equal(t, prompt.Submitted, r.Kind)
		assert.Equal(t, "enter pressed", r.Text)
	})

	t.Run("SecondFocusLossDoesNotRestart", func(t *testing.T) {
		p := prompt.New(40 * time.Millisecond)
		p.FocusLost()
		time.Sleep(25 * time.Millisecond)
		p.FocusLost()

		// The original deadline stands, so cancellation lands well before
		// a restarted timer would fire.
		select {
		case <-p.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("prompt did not cancel")
		}
	})
}

func TestAwait(t *testing.T) {
	t.Run("DeliversSubmission", func(t *testing.T) {
		p := prompt.New(0)
		go func() {
			time.Sleep(10 * time.Millisecond)
			p.Submit("answer")
		}()

		r := p.Await(context.Background())
		assert.Equal(t, prompt.Submitted, r.Kind)
		assert.Equal(t, "answer", r.Text)
	})

	t.Run("ContextCancelCancelsPrompt", func(t *testing.T) {
		p := prompt.New(0)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		r := p.Await(ctx)
		assert.Equal(t, prompt.Cancelled, r.Kind)
		assert.True(t, p.Resolved())
	})
}
