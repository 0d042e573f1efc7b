package reducer

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/roach88/redg/internal/action"
)

// Case is the state transform attached to a handled or matched action.
// Build cases with Empty or WithPayload.
type Case[S any] interface {
	apply(state S, payload any, withPayload bool) S
}

type emptyCase[S any] func(S) S

func (f emptyCase[S]) apply(state S, _ any, _ bool) S {
	return f(state)
}

type payloadCase[S, P any] func(S, P) S

func (f payloadCase[S, P]) apply(state S, payload any, withPayload bool) S {
	var p P
	if withPayload && payload != nil {
		typed, ok := payload.(P)
		if !ok {
			panic(&PayloadTypeError{Want: reflect.TypeFor[P]().String(), Got: fmt.Sprintf("%T", payload)})
		}
		p = typed
	}
	return f(state, p)
}

// Empty is a case that only looks at the state. Any payload is ignored.
func Empty[S any](fn func(S) S) Case[S] {
	return emptyCase[S](fn)
}

// WithPayload is a case that receives the action payload. For actions
// without payload fn receives P's zero value. A payload that is not a P
// panics with a *PayloadTypeError.
func WithPayload[S, P any](fn func(S, P) S) Case[S] {
	return payloadCase[S, P](fn)
}

// PayloadTypeError is the panic value raised when a payload does not have
// the type a WithPayload case expects.
type PayloadTypeError struct {
	Want string
	Got  string
}

func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("reducer: payload of type %s is not %s", e.Got, e.Want)
}

type matcher[S any] struct {
	pred Predicate
	c    Case[S]
}

// Slice collects handlers for one slice of state. It is only valid inside
// the build function passed to SliceReducer.
type Slice[S any] struct {
	handlers map[string]Handler[S]
	matchers []matcher[S]
	def      Handler[S]
	logger   *slog.Logger
}

type sliceConfig struct {
	logger *slog.Logger
}

// SliceOption configures SliceReducer.
type SliceOption func(*sliceConfig)

// WithLogger sets the logger that reports replaced Handle and Default
// registrations (debug level). Defaults to slog.Default().
func WithLogger(l *slog.Logger) SliceOption {
	return func(c *sliceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Handle registers c for actions of creator's type. When the creator carries
// payload the action payload is unwrapped for c; otherwise c sees the state
// only. A second registration for the same type replaces the first.
func (s *Slice[S]) Handle(creator action.Descriptor, c Case[S]) *Slice[S] {
	actionType := creator.Type()
	if _, exists := s.handlers[actionType]; exists {
		s.logger.Debug("slice handler replaced", "type", actionType)
	}

	if creator.HasPayload() {
		s.handlers[actionType] = func(state S, a action.Action) S {
			return c.apply(state, a.PayloadValue(), true)
		}
	} else {
		s.handlers[actionType] = func(state S, _ action.Action) S {
			return c.apply(state, nil, false)
		}
	}
	return s
}

// Default sets the handler for actions no Handle registration matches.
// Only the last call takes effect.
func (s *Slice[S]) Default(h Handler[S]) *Slice[S] {
	if s.def != nil {
		s.logger.Debug("slice default handler replaced")
	}
	s.def = h
	return s
}

// Match appends a matcher. Matchers run after the primary dispatch for every
// action, handled or not, in registration order; each sees the previous
// matcher's result. A matcher whose predicate is false leaves state as is.
func (s *Slice[S]) Match(pred Predicate, c Case[S]) *Slice[S] {
	s.matchers = append(s.matchers, matcher[S]{pred: pred, c: c})
	return s
}

// SliceReducer returns a function that runs build exactly once against a
// fresh Slice and produces the reducer:
//
//	reducer(state, a) = fold(matchers, primary(state, a))
//
// where primary is CreateReducer(initState) over the registered handlers and
// default. The Slice is discarded once build returns.
func SliceReducer[S any](initState S, opts ...SliceOption) func(build func(s *Slice[S])) Func[S] {
	cfg := sliceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(build func(s *Slice[S])) Func[S] {
		s := &Slice[S]{handlers: make(map[string]Handler[S]), logger: cfg.logger}
		build(s)

		primary := CreateReducer(initState)(s.handlers, s.def)
		matchers := slices.Clone(s.matchers)

		return func(state *S, a action.Action) S {
			next := primary(state, a)
			for _, m := range matchers {
				if m.pred(a) {
					next = m.c.apply(next, a.PayloadValue(), a.HasPayload())
				}
			}
			return next
		}
	}
}
