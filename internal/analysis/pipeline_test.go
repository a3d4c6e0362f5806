package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/llm"
	"github.com/lox/crimelens/internal/prompt"
)

type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	params  []llm.Params
	err     error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, p llm.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.params = append(s.params, p)
	if s.err != nil {
		return "", s.err
	}
	return prompt, nil
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func TestRun_EchoesRenderedPrompt(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, nil, nil)

	got, err := p.Run(context.Background(), Request{
		Kind:         prompt.KindSpatial,
		AnalysisText: "go",
		District:     "X",
		Unit:         "Y",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "<s>[SYS] "))
	assert.Contains(t, got, "in the X district and Y police station")
	assert.True(t, strings.HasSuffix(got, "The data is as follows:\n\ngo [/INST]"))

	require.Equal(t, 1, gen.calls())
	assert.Equal(t, 0.3, gen.params[0].Temperature)
	assert.True(t, gen.params[0].StripMarkup)
}

func TestRun_BlankTextNeverGenerates(t *testing.T) {
	for _, kind := range prompt.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			gen := &stubGenerator{}
			p := NewPipeline(gen, nil, nil)
			_, err := p.Run(context.Background(), Request{Kind: kind, AnalysisText: "  \n", District: "X"})

			var cerr *apperr.ClientInputError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "Analysis text is required", cerr.Error())
			assert.Zero(t, gen.calls())
		})
	}
}

func TestRun_UpstreamFailure(t *testing.T) {
	gen := &stubGenerator{err: apperr.Upstream("generate", errors.New("503 loading"))}
	p := NewPipeline(gen, nil, nil)

	_, err := p.Run(context.Background(), Request{Kind: prompt.KindDeployment, AnalysisText: "data"})
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))
}

func TestRun_UnknownKind(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, nil, nil)
	_, err := p.Run(context.Background(), Request{Kind: "weather", AnalysisText: "data"})
	require.Error(t, err)
	assert.False(t, apperr.IsClientInput(err))
	assert.Zero(t, gen.calls())
}

func TestParams(t *testing.T) {
	temp, topP, tokens := 0.9, 0.5, 64
	overrides := &Overrides{Temperature: &temp, TopP: &topP, MaxNewTokens: &tokens}

	custom := llm.DefaultParams()
	custom.Temperature = 0.7
	p := NewPipeline(&stubGenerator{}, map[prompt.Kind]llm.Params{prompt.KindBeatwise: custom}, nil)

	tests := []struct {
		name string
		req  Request
		want llm.Params
	}{
		{
			name: "profile override from file",
			req:  Request{Kind: prompt.KindBeatwise},
			want: custom,
		},
		{
			name: "overrides ignored outside general",
			req:  Request{Kind: prompt.KindPrediction, Overrides: overrides},
			want: llm.DefaultParams(),
		},
		{
			name: "general honours overrides",
			req:  Request{Kind: prompt.KindGeneral, Overrides: overrides},
			want: llm.Params{
				Temperature:       0.9,
				TopP:              0.5,
				MaxNewTokens:      64,
				RepetitionPenalty: llm.DefaultRepetitionPenalty,
				Seed:              llm.DefaultSeed,
				DoSample:          true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Params(tt.req))
		})
	}
}

func TestParams_OverridesAreNormalized(t *testing.T) {
	zero, tokens := 0.0, 0
	p := NewPipeline(&stubGenerator{}, nil, nil)
	got := p.Params(Request{Kind: prompt.KindGeneral, Overrides: &Overrides{Temperature: &zero, MaxNewTokens: &tokens}})
	assert.Equal(t, llm.MinTemperature, got.Temperature)
	assert.Equal(t, llm.DefaultMaxNewTokens, got.MaxNewTokens)
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()
	require.Len(t, profiles, len(prompt.Kinds))
	for _, kind := range prompt.Kinds {
		p := profiles[kind]
		assert.Equal(t, llm.DefaultTopP, p.TopP, kind)
		assert.Equal(t, int64(llm.DefaultSeed), p.Seed, kind)
		assert.True(t, p.DoSample, kind)
	}
	assert.Equal(t, 512, profiles[prompt.KindGeneral].MaxNewTokens)
	assert.Equal(t, 1024, profiles[prompt.KindPrediction].MaxNewTokens)
	assert.Equal(t, 0.5, profiles[prompt.KindBeatwise].Temperature)
}
