package harness

// State is a step of the run lifecycle.
type State int

const (
	NotStarted State = iota
	BackendChecked
	BridgeStarted
	Initialized
	RunningScenarios
	TornDown
	Reported
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case BackendChecked:
		return "backend_checked"
	case BridgeStarted:
		return "bridge_started"
	case Initialized:
		return "initialized"
	case RunningScenarios:
		return "running_scenarios"
	case TornDown:
		return "torn_down"
	case Reported:
		return "reported"
	}
	return "unknown"
}
