package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/mcp-harness/report"
)

// Run phases reported by FatalError
const (
	PhaseService    = "service"
	PhaseBridge     = "bridge"
	PhaseInitialize = "initialize"
	PhaseScenario   = "scenario"
)

// ConfigError reports invalid options. No bridge is started.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// FatalError reports a run aborted in the given phase.
type FatalError struct {
	Phase  string
	Stderr []string
	Err    error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%v: %v", e.Phase, e.Err)
	if len(e.Stderr) > 0 {
		msg += "; bridge stderr: " + strings.Join(e.Stderr, " | ")
	}
	return msg
}

func (e *FatalError) Unwrap() error { return e.Err }

// ExitCode maps a run result to the process exit status.
func ExitCode(aReport *report.Report, err error) int {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return report.ExitConfigError
	}
	var fatalErr *FatalError
	if errors.As(err, &fatalErr) {
		return report.ExitAborted
	}
	if aReport == nil {
		if err != nil {
			return report.ExitAborted
		}
		return report.ExitOK
	}
	return aReport.ExitCode()
}
