package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Results  []ScenarioOutcome `json:"results"`
	Failures []string          `json:"failures,omitempty"`
}

// ScenarioOutcome is the result of one scenario file in a suite.
type ScenarioOutcome struct {
	Path   string  `json:"path"`
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Pass reports whether the scenario loaded, ran and passed.
func (o ScenarioOutcome) Pass() bool {
	return o.Error == "" && o.Result != nil && o.Result.Pass
}

// FindScenarios returns the .yaml and .yml files under dir, in lexical
// order. A non-empty filter is matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// RunSuite loads and runs every scenario under dir.
// Load and execution failures are recorded per scenario; the returned error
// is reserved for problems walking dir.
func (h *Harness) RunSuite(ctx context.Context, dir, filter string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir, filter)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Results: make([]ScenarioOutcome, 0, len(paths))}
	for _, path := range paths {
		outcome := h.runFile(ctx, path)
		suite.Total++
		if outcome.Pass() {
			suite.Passed++
		} else {
			suite.Failed++
			suite.Failures = append(suite.Failures, describeFailure(outcome))
		}
		suite.Results = append(suite.Results, outcome)
	}
	return suite, nil
}

func (h *Harness) runFile(ctx context.Context, path string) ScenarioOutcome {
	outcome := ScenarioOutcome{Path: path, Name: filepath.Base(path)}

	scenario, err := LoadScenario(path)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to load scenario: %v", err)
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := h.Run(ctx, scenario)
	if err != nil {
		outcome.Error = fmt.Sprintf("scenario execution failed: %v", err)
		return outcome
	}
	outcome.Result = result
	return outcome
}

func describeFailure(o ScenarioOutcome) string {
	if o.Error != "" {
		return fmt.Sprintf("%s: %s", o.Name, o.Error)
	}
	return fmt.Sprintf("%s: %s", o.Name, strings.Join(o.Result.Errors, "; "))
}
