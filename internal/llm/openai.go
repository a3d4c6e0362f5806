package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	DefaultModel   = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DefaultBaseURL = "https://api-inference.huggingface.co/models/" + DefaultModel + "/v1/"
)

// OpenAIConfig configures OpenAIStreamer.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAIStreamer streams completions from an OpenAI-compatible endpoint,
// such as a Hugging Face Text Generation Inference deployment. The prompt is
// sent verbatim to the completions route so the tagged envelope reaches the
// model untouched.
type OpenAIStreamer struct {
	client openai.Client
	model  string
}

// NewOpenAIStreamer creates a streamer. The API key is required.
func NewOpenAIStreamer(cfg OpenAIConfig) (*OpenAIStreamer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		// Failures surface to the caller as-is.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIStreamer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Stream starts a streaming completion. Connection and protocol errors are
// reported through the returned stream.
func (s *OpenAIStreamer) Stream(ctx context.Context, prompt string, p Params) (TokenStream, error) {
	p = p.Normalize()
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(s.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(p.MaxNewTokens)),
		Temperature: openai.Float(p.Temperature),
		TopP:        openai.Float(p.TopP),
		Seed:        openai.Int(p.Seed),
	}

	stream := s.client.Completions.NewStreaming(ctx, params,
		option.WithJSONSet("repetition_penalty", p.RepetitionPenalty),
		option.WithJSONSet("do_sample", p.DoSample),
	)
	return &completionStream{stream: stream}, nil
}

type completionStream struct {
	stream  *ssestream.Stream[openai.Completion]
	pending []string
	final   *Event
}

func (c *completionStream) Recv() Event {
	for len(c.pending) == 0 {
		if c.final != nil {
			return *c.final
		}
		if !c.stream.Next() {
			ev := End()
			if err := c.stream.Err(); err != nil {
				ev = Failure(err)
			}
			c.final = &ev
			return ev
		}
		for _, choice := range c.stream.Current().Choices {
			if choice.Text != "" {
				c.pending = append(c.pending, choice.Text)
			}
		}
	}
	text := c.pending[0]
	c.pending = c.pending[1:]
	return Token(text)
}

func (c *completionStream) Close() error {
	return c.stream.Close()
}

// EchoStreamer streams the prompt back word by word without contacting any
// service. It serves dry-run mode.
type EchoStreamer struct{}

func (EchoStreamer) Stream(ctx context.Context, prompt string, p Params) (TokenStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.SplitAfter(prompt, " ")
	events := make([]Event, 0, len(words)+1)
	for _, w := range words {
		if w != "" {
			events = append(events, Token(w))
		}
	}
	events = append(events, End())
	return NewSliceStream(events...), nil
}
