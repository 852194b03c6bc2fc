package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a fixture and the properties its program must have.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the CUE file describing the program.
	// Relative paths are resolved from the scenario file location.
	Fixture string `yaml:"fixture"`

	// Mode selects how the pattern factory builds the fixture: "normal"
	// folds at construction time, "debug" builds every node as written.
	// Empty means normal.
	Mode string `yaml:"mode,omitempty"`

	// Assertions validate the built program.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of the built program.
type Assertion struct {
	// Type specifies the assertion type:
	// - "root_kind": root node kind equals Kind
	// - "root_type": root type renders as XMLType
	// - "node_count": node count equals Count, or is at least Min
	// - "forward_decls": forward declarations match Count or IDs
	// - "round_trip": store save/load/rewrite is lossless
	// - "valid": structural validation passes
	Type string `yaml:"type"`

	// Kind is the expected node kind name (used by root_kind).
	Kind string `yaml:"kind,omitempty"`

	// XMLType is the expected type (used by root_type).
	XMLType string `yaml:"xml_type,omitempty"`

	// Count is an exact expected number (used by node_count, forward_decls).
	Count *int `yaml:"count,omitempty"`

	// Min is a lower bound (used by node_count).
	Min int `yaml:"min,omitempty"`

	// IDs is the expected forward declaration order (used by forward_decls).
	IDs []string `yaml:"ids,omitempty"`
}

// Mode values.
const (
	ModeNormal = "normal"
	ModeDebug  = "debug"
)

// Assertion type constants.
const (
	AssertRootKind     = "root_kind"
	AssertRootType     = "root_type"
	AssertNodeCount    = "node_count"
	AssertForwardDecls = "forward_decls"
	AssertRoundTrip    = "round_trip"
	AssertValid        = "valid"
)

// FixtureNotFoundError is returned when a scenario names a fixture file
// that doesn't exist.
type FixtureNotFoundError struct {
	Scenario     string
	FixturePath  string
	ResolvedPath string
}

// Error implements the error interface.
func (e *FixtureNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references fixture %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.FixturePath,
		e.ResolvedPath,
	)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving the fixture path against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve fixture path relative to base path BEFORE validation
	declared := scenario.Fixture
	if declared != "" && !filepath.IsAbs(declared) && basePath != "" {
		scenario.Fixture = filepath.Join(basePath, declared)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if _, err := os.Stat(scenario.Fixture); os.IsNotExist(err) {
		return nil, &FixtureNotFoundError{
			Scenario:     scenario.Name,
			FixturePath:  declared,
			ResolvedPath: scenario.Fixture,
		}
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}

	switch s.Mode {
	case "", ModeNormal, ModeDebug:
	default:
		return fmt.Errorf("unknown mode %q: must be %q or %q", s.Mode, ModeNormal, ModeDebug)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRootKind:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for root_kind", index)
		}
	case AssertRootType:
		if a.XMLType == "" {
			return fmt.Errorf("assertions[%d]: xml_type is required for root_type", index)
		}
	case AssertNodeCount:
		if a.Count == nil && a.Min <= 0 {
			return fmt.Errorf("assertions[%d]: count or min is required for node_count", index)
		}
	case AssertForwardDecls:
		if a.Count == nil && a.IDs == nil {
			return fmt.Errorf("assertions[%d]: count or ids is required for forward_decls", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for forward_decls", index)
		}
	case AssertRoundTrip, AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
