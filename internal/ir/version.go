package ir

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version constants for the notation and the tool.
const (
	// NotationVersion is written on every serialized Program.
	NotationVersion = "1.0.0"

	// NotationConstraint is the range of notation versions a reader accepts.
	NotationConstraint = "^1"

	// ToolVersion is the qgraph release.
	ToolVersion = "0.1.0"
)

// CheckNotationVersion reports an error if v is not a notation version this
// build can read.
func CheckNotationVersion(v string) error {
	c, err := semver.NewConstraint(NotationConstraint)
	if err != nil {
		return fmt.Errorf("notation constraint %q: %w", NotationConstraint, err)
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("notation version %q: %w", v, err)
	}
	if !c.Check(ver) {
		return fmt.Errorf("notation version %s does not satisfy %s", ver, NotationConstraint)
	}
	return nil
}
