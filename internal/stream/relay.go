package stream

import (
	"context"
	"io"
	"iter"
	"net/http"
	"strings"
)

// State is the terminal state of a relay.
type State int

const (
	StateCompleted State = iota
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result reports how a relay ended. Persisted and PersistErr make the
// best-effort terminal write observable to callers and tests instead of
// disappearing into a log line.
type Result struct {
	State      State
	Text       string
	Persisted  bool
	PersistErr error
	StreamErr  error
}

// PersistFunc durably stores the accumulated assistant reply.
type PersistFunc func(ctx context.Context, text string) error

// Relay forwards each fragment to w in arrival order while accumulating the
// full text. Both sinks see a fragment before the next one is pulled. If w
// implements http.Flusher, every fragment is flushed so the client renders
// partial output as it arrives.
//
// A relay that exhausts the fragment sequence completes and performs exactly
// one persist call; persistence failure does not retract delivered bytes. A
// relay interrupted by cancellation or a stream error performs no persist
// call at all.
func Relay(ctx context.Context, w io.Writer, fragments iter.Seq2[string, error], persist PersistFunc) Result {
	flusher, _ := w.(http.Flusher)
	var acc strings.Builder

	for frag, err := range fragments {
		if err != nil {
			if ctx.Err() != nil {
				return Result{State: StateCancelled, Text: acc.String(), StreamErr: ctx.Err()}
			}
			return Result{State: StateFailed, Text: acc.String(), StreamErr: err}
		}

		if ctx.Err() != nil {
			return Result{State: StateCancelled, Text: acc.String(), StreamErr: ctx.Err()}
		}

		if _, werr := io.WriteString(w, frag); werr != nil {
			// The outbound consumer is gone; treat it like a disconnect.
			return Result{State: StateCancelled, Text: acc.String(), StreamErr: werr}
		}
		if flusher != nil {
			flusher.Flush()
		}
		acc.WriteString(frag)
	}

	if ctx.Err() != nil {
		return Result{State: StateCancelled, Text: acc.String(), StreamErr: ctx.Err()}
	}

	res := Result{State: StateCompleted, Text: acc.String()}
	if persist != nil {
		// The client may disconnect between the sentinel and the insert;
		// the completed reply is stored regardless.
		if perr := persist(context.WithoutCancel(ctx), res.Text); perr != nil {
			res.PersistErr = perr
		} else {
			res.Persisted = true
		}
	}
	return res
}
