package call

// State is a step of the per-call state machine. Closed and Faulted are
// terminal; Faulted is reachable from every non-terminal state.
type State uint32

const (
	StateIdle State = iota
	StateOpen
	StateLowering
	StateInvoking
	StateLifting
	StateClosed
	StateFaulted
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateOpen:     "open",
	StateLowering: "lowering",
	StateInvoking: "invoking",
	StateLifting:  "lifting",
	StateClosed:   "closed",
	StateFaulted:  "faulted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s ends a call.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFaulted
}

// next reports whether the machine may move from s to to.
func (s State) next(to State) bool {
	if s.Terminal() || s == StateIdle {
		return to == StateOpen
	}
	if to == StateFaulted {
		return true
	}
	return to == s+1
}
