package bridge

import (
	"fmt"
	"strings"
)

// StartupError reports a bridge that could not be spawned or died during warm-up.
type StartupError struct {
	Command string
	Stderr  []string
	Err     error
}

func (e *StartupError) Error() string {
	msg := fmt.Sprintf("failed to start bridge %v: %v", e.Command, e.Err)
	if len(e.Stderr) > 0 {
		msg += "; stderr: " + strings.Join(e.Stderr, " | ")
	}
	return msg
}

func (e *StartupError) Unwrap() error { return e.Err }
