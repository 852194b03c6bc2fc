package harness

// Stats summarizes the program a scenario built.
type Stats struct {
	RootKind     string   `json:"root_kind"`
	RootType     string   `json:"root_type"`
	NodeCount    int      `json:"node_count"`
	Fingerprint  string   `json:"fingerprint"`
	ForwardDecls []string `json:"forward_decls"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Stats describes the built program.
	Stats Stats `json:"stats"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// XML is the serialized program without source positions, used for
	// golden comparison.
	XML []byte `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Stats:  Stats{ForwardDecls: []string{}},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
