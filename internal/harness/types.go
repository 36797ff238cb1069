package harness

import "github.com/roach88/dual/internal/store"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Token is the query token the search ran under.
	Token string `json:"token,omitempty"`

	// Fingerprint and SQL describe the compiled query. Empty when the
	// query was rejected.
	Fingerprint string `json:"fingerprint,omitempty"`
	SQL         string `json:"sql,omitempty"`

	// Deterministic is false for queries using random ordering or the
	// current time.
	Deterministic bool `json:"deterministic"`

	// Tracks are the matched rows in result order.
	Tracks []store.Track `json:"tracks"`

	// ErrorCode and ErrorMessage are set when the query was rejected
	// with a syntax or semantic error.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors lists failed assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Tracks: []store.Track{},
		Errors: []string{},
	}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Paths returns the path of every matched track in result order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		paths[i] = t.Path
	}
	return paths
}
