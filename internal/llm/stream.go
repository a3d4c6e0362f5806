package llm

import (
	"context"
	"errors"
	"strings"
)

// EventKind tags an Event.
type EventKind int

const (
	EventToken EventKind = iota
	EventEnd
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventToken:
		return "token"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item of a token stream: a text fragment, the end of the
// stream, or the error that terminated it.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

func Token(text string) Event { return Event{Kind: EventToken, Text: text} }
func End() Event              { return Event{Kind: EventEnd} }
func Failure(err error) Event { return Event{Kind: EventError, Err: err} }

// TokenStream yields events in emission order. After EventEnd or
// EventError every further Recv returns the same terminal event.
type TokenStream interface {
	Recv() Event
	Close() error
}

// Streamer opens a token stream for a rendered prompt.
type Streamer interface {
	Stream(ctx context.Context, prompt string, p Params) (TokenStream, error)
}

// ErrEmptyStream is returned by Collect when the stream ended without
// producing any text.
var ErrEmptyStream = errors.New("stream produced no text")

// Collect drains s and concatenates the token fragments in the order they
// arrived. An error event discards whatever was accumulated.
func Collect(s TokenStream) (string, error) {
	var b strings.Builder
	for {
		ev := s.Recv()
		switch ev.Kind {
		case EventToken:
			b.WriteString(ev.Text)
		case EventEnd:
			if b.Len() == 0 {
				return "", ErrEmptyStream
			}
			return b.String(), nil
		case EventError:
			if ev.Err == nil {
				return "", errors.New("stream failed")
			}
			return "", ev.Err
		default:
			return "", errors.New("stream returned unknown event " + ev.Kind.String())
		}
	}
}

const (
	endOfSequence = "</s>"
	emphasis      = "**"
)

// Clean removes the end-of-sequence marker the model may emit as text and,
// when stripMarkup is set, markdown emphasis delimiters.
func Clean(text string, stripMarkup bool) string {
	text = strings.ReplaceAll(text, endOfSequence, "")
	if stripMarkup {
		text = strings.ReplaceAll(text, emphasis, "")
	}
	return text
}

// SliceStream replays a fixed sequence of events. It backs the dry-run
// streamer and tests.
type SliceStream struct {
	events []Event
	pos    int
	closed bool
}

func NewSliceStream(events ...Event) *SliceStream {
	return &SliceStream{events: events}
}

func (s *SliceStream) Recv() Event {
	if s.closed {
		return Failure(errors.New("stream closed"))
	}
	if s.pos >= len(s.events) {
		return End()
	}
	ev := s.events[s.pos]
	// Terminal events are sticky: pos stays on them.
	if ev.Kind == EventToken {
		s.pos++
	}
	return ev
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
