package fixture

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for fixture loading.
const (
	ErrCodeRead       = "F001" // fixture file could not be read
	ErrCodeCUE        = "F002" // CUE syntax or evaluation error
	ErrCodeSchema     = "F003" // missing or mistyped field
	ErrCodeOperator   = "F004" // unknown or ambiguous expression operator
	ErrCodeUnresolved = "F005" // ref or invoke names nothing in scope
	ErrCodeType       = "F006" // malformed type string
	ErrCodeContract   = "F007" // the node factory rejected the expression
)

// LoadError represents an error that occurred while turning a fixture into
// a graph. Pos is the CUE position of the offending value when known.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// formatCUEError converts a CUE error into a LoadError carrying the
// position of its first error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeCUE, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: ErrCodeCUE, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
