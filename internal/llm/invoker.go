// Package llm submits rendered prompts to a streaming text-generation
// service and assembles the streamed tokens into the final text.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lox/crimelens/internal/apperr"
)

// Invoker runs one generation per call: it opens a stream, consumes it in
// order and cleans the result. It holds no per-request state and is safe for
// concurrent use.
type Invoker struct {
	streamer Streamer
	timeout  time.Duration
	log      *zap.Logger
}

// NewInvoker wraps streamer. A zero timeout leaves the caller's deadline in
// charge.
func NewInvoker(streamer Streamer, timeout time.Duration, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{streamer: streamer, timeout: timeout, log: log}
}

// Generate returns the full generated text for prompt. Any failure, including
// one in the middle of the stream, is an UpstreamError and no partial text is
// returned.
func (inv *Invoker) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}
	p = p.Normalize()

	start := time.Now()
	stream, err := inv.streamer.Stream(ctx, prompt, p)
	if err != nil {
		return "", apperr.Upstream("open stream", err)
	}
	defer stream.Close()

	text, err := Collect(stream)
	if err != nil {
		return "", apperr.Upstream("generate", err)
	}

	text = Clean(text, p.StripMarkup)
	inv.log.Debug("generation complete",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("output_chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return text, nil
}
