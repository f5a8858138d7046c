package report

import "strings"

// Outcome is the result class of one scenario.
type Outcome string

const (
	Pass  Outcome = "pass"
	Fail  Outcome = "fail"
	Error Outcome = "error"
	Skip  Outcome = "skip"
)

// Label returns the fixed width label used in text output.
func (o Outcome) Label() string {
	return strings.ToUpper(string(o))
}

// Exit codes
const (
	ExitOK          = 0
	ExitFailures    = 1
	ExitConfigError = 2
	ExitAborted     = 3
)
