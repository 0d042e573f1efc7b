package harness

// TraceEvent is one dispatch attempt. Committed dispatches carry the seq the
// engine stamped; rejected ones carry Seq 0 and the error text.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Ref        string `json:"ref"`
	Type       string `json:"type,omitempty"`
	Payload    any    `json:"payload,omitempty"`
	HasPayload bool   `json:"has_payload"`
	Error      string `json:"error,omitempty"`
}

// Committed reports whether the engine accepted the dispatch.
func (e TraceEvent) Committed() bool {
	return e.Error == ""
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Session string       `json:"session"`
	Trace   []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// State is the final root state, slice name -> slice state.
	State     map[string]any `json:"state"`
	StateHash string         `json:"state_hash"`
}

// NewResult creates a passing result with empty collections.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  map[string]any{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Committed returns the trace events the engine accepted, in seq order.
func (r *Result) Committed() []TraceEvent {
	out := make([]TraceEvent, 0, len(r.Trace))
	for _, ev := range r.Trace {
		if ev.Committed() {
			out = append(out, ev)
		}
	}
	return out
}
