package session

// State is the phase of a download attempt
type State int32

const (
	Idle State = iota
	Authenticating
	Fetching
	Reconstructing
	Delivering
	Done
	Failed
)

var stateNames = [...]string{
	Idle:           "idle",
	Authenticating: "authenticating",
	Fetching:       "fetching",
	Reconstructing: "reconstructing",
	Delivering:     "delivering",
	Done:           "done",
	Failed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
