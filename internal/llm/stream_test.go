package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lox/crimelens/internal/apperr"
)

func TestCollect_ConcatenatesInOrder(t *testing.T) {
	s := NewSliceStream(Token("Thefts "), Token("peak "), Token("at "), Token("night."), End())
	got, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Thefts peak at night.", got)
}

func TestCollect_ErrorDiscardsPartialText(t *testing.T) {
	cause := errors.New("connection reset")
	s := NewSliceStream(Token("partial "), Token("answer"), Failure(cause), Token("never read"))
	got, err := Collect(s)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, cause)
}

func TestCollect_EmptyStream(t *testing.T) {
	_, err := Collect(NewSliceStream(End()))
	assert.ErrorIs(t, err, ErrEmptyStream)
}

func TestSliceStream_TerminalEventsAreSticky(t *testing.T) {
	cause := errors.New("boom")
	s := NewSliceStream(Token("a"), Failure(cause))
	assert.Equal(t, Token("a"), s.Recv())
	for i := 0; i < 3; i++ {
		ev := s.Recv()
		assert.Equal(t, EventError, ev.Kind)
		assert.ErrorIs(t, ev.Err, cause)
	}

	done := NewSliceStream(Token("a"))
	done.Recv()
	assert.Equal(t, EventEnd, done.Recv().Kind)
	assert.Equal(t, EventEnd, done.Recv().Kind)

	require.NoError(t, done.Close())
	assert.Equal(t, EventError, done.Recv().Kind)
}

func TestClean(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		stripMarkup bool
		want        string
	}{
		{"end marker always removed", "Done.</s>", false, "Done."},
		{"emphasis kept", "**Key** finding</s>", false, "**Key** finding"},
		{"emphasis stripped", "**Key** finding</s>", true, "Key finding"},
		{"nothing to strip", "plain", true, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in, tt.stripMarkup))
		})
	}
}

func TestParams_Normalize(t *testing.T) {
	p := Params{Temperature: 0, TopP: 1.5, RepetitionPenalty: 0.5, MaxNewTokens: 0}.Normalize()
	assert.Equal(t, MinTemperature, p.Temperature)
	assert.Equal(t, 1.0, p.TopP)
	assert.Equal(t, 1.0, p.RepetitionPenalty)
	assert.Equal(t, DefaultMaxNewTokens, p.MaxNewTokens)

	p = Params{Temperature: 0.3, TopP: -1, RepetitionPenalty: 1.2, MaxNewTokens: 512}.Normalize()
	assert.Equal(t, 0.3, p.Temperature)
	assert.Equal(t, DefaultTopP, p.TopP)
	assert.Equal(t, 1.2, p.RepetitionPenalty)
	assert.Equal(t, 512, p.MaxNewTokens)
}

// Keep-alive connections left by the httptest servers in openai_test.go are
// not owned by the invoker.
var leakOpts = []goleak.Option{
	goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
}

type fakeStreamer struct {
	mu      sync.Mutex
	prompts []string
	params  []Params
	events  []Event
	openErr error
}

func (f *fakeStreamer) Stream(ctx context.Context, prompt string, p Params) (TokenStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, p)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return NewSliceStream(f.events...), nil
}

func TestInvoker_Generate(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	fs := &fakeStreamer{events: []Event{Token("**Hot"), Token("spot**"), Token(" near market</s>"), End()}}
	inv := NewInvoker(fs, time.Second, nil)

	got, err := inv.Generate(context.Background(), "prompt", Params{Temperature: 0, StripMarkup: true})
	require.NoError(t, err)
	assert.Equal(t, "Hotspot near market", got)
	require.Len(t, fs.params, 1)
	assert.Equal(t, MinTemperature, fs.params[0].Temperature, "params must be normalized before streaming")
}

func TestInvoker_UpstreamErrors(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	open := NewInvoker(&fakeStreamer{openErr: errors.New("dial tcp: refused")}, time.Second, nil)
	_, err := open.Generate(context.Background(), "prompt", DefaultParams())
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))

	mid := NewInvoker(&fakeStreamer{events: []Event{Token("half"), Failure(errors.New("overloaded"))}}, time.Second, nil)
	got, err := mid.Generate(context.Background(), "prompt", DefaultParams())
	require.Error(t, err)
	assert.Empty(t, got)
	assert.True(t, apperr.IsUpstream(err))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestEchoStreamer(t *testing.T) {
	inv := NewInvoker(EchoStreamer{}, 0, nil)
	got, err := inv.Generate(context.Background(), "<s>[SYS] a b [/SYS]", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "<s>[SYS] a b [/SYS]", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = inv.Generate(ctx, "x", DefaultParams())
	assert.True(t, apperr.IsUpstream(err))
}
