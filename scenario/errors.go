package scenario

import (
	"fmt"
	"strings"
)

// AbortError reports a run stopped by a fatal transport or protocol failure.
type AbortError struct {
	Scenario string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted in %v: %v", e.Scenario, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// UnknownScenarioError reports selected names that are not in the catalog.
type UnknownScenarioError struct {
	Names []string
}

func (e *UnknownScenarioError) Error() string {
	return "unknown scenario: " + strings.Join(e.Names, ", ")
}
