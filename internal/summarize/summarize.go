// Package summarize produces the free-text architectural summary of a Repo IR
// through an LLM provider. Every failure degrades to a sentinel string.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/ranking"
)

// ErrAPIKeyNotSet is returned by NewClient when the provider key is empty.
var ErrAPIKeyNotSet = errors.New("api key not set")

// Skipped is the summary of a run that did not ask for one.
const Skipped = "(LLM summary skipped)"

// Unavailable is the summary when the provider's key is missing.
func Unavailable(envKey string) string {
	return fmt.Sprintf("(LLM summary unavailable - %s not set)", envKey)
}

// Failed is the summary when the provider call failed.
func Failed(err error) string {
	return fmt.Sprintf("(LLM summary failed: %v)", err)
}

// Defaults.
const (
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTries  = 3
)

// Options configures a Summarizer.
type Options struct {
	Provider  Provider
	Model     string
	MaxTokens int
	Timeout   time.Duration
	MaxTries  uint
	Budget    ranking.Budget
	Logger    *slog.Logger

	// Getenv looks up API keys; os.Getenv when nil.
	Getenv func(string) string
	// NewClient builds the provider client; the package NewClient when nil.
	NewClient func(ctx context.Context, p Provider, apiKey, model string, maxTokens int) (Client, error)
}

// Summarizer calls one provider with a bounded timeout and retry policy.
type Summarizer struct {
	opts    Options
	backoff func() backoff.BackOff
}

// New returns a Summarizer with defaults filled in.
func New(opts Options) *Summarizer {
	if opts.Provider == "" {
		opts.Provider = Anthropic
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = DefaultMaxTries
	}
	if opts.Budget == (ranking.Budget{}) {
		opts.Budget = ranking.DefaultBudget
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.NewClient == nil {
		opts.NewClient = NewClient
	}
	return &Summarizer{
		opts:    opts,
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Summarize returns the summary for ir. A missing key yields the unavailable
// sentinel and a nil error; a provider failure yields the failed sentinel and
// the error so the caller can record it.
func (s *Summarizer) Summarize(ctx context.Context, ir *model.RepoIR) (string, error) {
	p := s.opts.Provider
	if p == None {
		return Skipped, nil
	}

	envKey := p.EnvKey()
	if envKey == "" {
		err := fmt.Errorf("unknown provider %q", p)
		return Failed(err), err
	}
	client, err := s.opts.NewClient(ctx, p, s.opts.Getenv(envKey), s.opts.Model, s.opts.MaxTokens)
	if errors.Is(err, ErrAPIKeyNotSet) {
		s.opts.Logger.Warn("summary provider key not set", "provider", p, "env", envKey)
		return Unavailable(envKey), nil
	}
	if err != nil {
		return Failed(err), err
	}

	prompt, err := BuildPrompt(ir, s.opts.Budget)
	if err != nil {
		return Failed(err), err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		return client.Complete(ctx, SystemPrompt, prompt)
	},
		backoff.WithBackOff(s.backoff()),
		backoff.WithMaxTries(s.opts.MaxTries),
		backoff.WithMaxElapsedTime(s.opts.Timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.opts.Logger.Warn("summary request failed, retrying", "provider", p, "error", err, "backoff", next)
		}),
	)
	if err != nil {
		s.opts.Logger.Error("summary request failed", "provider", p, "attempts", attempt, "error", err)
		return Failed(err), err
	}
	return text, nil
}
