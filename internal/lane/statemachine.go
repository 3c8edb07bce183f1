package lane

import (
	"fmt"
	"time"
)

// State is a demand lane's lifecycle state. Lanes move through a strict
// DAG: detected -> pending -> {activated|lost}, activated -> fulfilling,
// fulfilling -> {closed|lost}. Closed and lost are terminal.
type State string

const (
	StateDetected   State = "detected"
	StatePending    State = "pending"
	StateActivated  State = "activated"
	StateFulfilling State = "fulfilling"
	StateClosed     State = "closed"
	StateLost       State = "lost"
)

// Action names a transition out of a lane state.
type Action string

const (
	ActionValidate Action = "validate"
	ActionActivate Action = "activate"
	ActionReject   Action = "reject"
	ActionAllocate Action = "allocate"
	ActionComplete Action = "complete"
	ActionFail     Action = "fail"
)

// Actor identifies who drove a transition.
type Actor string

const (
	ActorSystem   Actor = "system"
	ActorAdmin    Actor = "admin"
	ActorSupplier Actor = "supplier"
)

// ErrTerminalState is returned when any transition is attempted out of
// closed or lost. Terminal states never behave as silent no-ops; a
// caller holding a dead lane should alert, not retry.
type ErrTerminalState struct {
	State State
}

func (e *ErrTerminalState) Error() string {
	return fmt.Sprintf("lane state %q is terminal, no transitions allowed", e.State)
}

var transitions = map[State]map[Action]State{
	StateDetected: {
		ActionValidate: StatePending,
	},
	StatePending: {
		ActionActivate: StateActivated,
		ActionReject:   StateLost,
	},
	StateActivated: {
		ActionAllocate: StateFulfilling,
	},
	StateFulfilling: {
		ActionComplete: StateClosed,
		ActionFail:     StateLost,
	},
	StateClosed: {},
	StateLost:   {},
}

// IsTerminalState reports whether a lane state admits no further transitions.
func IsTerminalState(s State) bool {
	return s == StateClosed || s == StateLost
}

// CanTransitionFrom reports whether any transition is allowed out of s.
func CanTransitionFrom(s State) bool {
	return !IsTerminalState(s)
}

// NextState resolves the target state for an action. A terminal current
// state is an error regardless of the action. A non-terminal state with
// no such action returns ok=false with no error; that is routine
// control flow, distinct from a dead lane.
func NextState(current State, action Action) (State, bool, error) {
	if IsTerminalState(current) {
		return "", false, &ErrTerminalState{State: current}
	}

	actions, known := transitions[current]
	if !known {
		return "", false, fmt.Errorf("unknown lane state %q", current)
	}

	next, ok := actions[action]
	if !ok {
		return "", false, nil
	}
	return next, true, nil
}

// IsValidTransition reports whether some action leads from current to next.
func IsValidTransition(current, next State) bool {
	if IsTerminalState(current) {
		return false
	}
	for _, target := range transitions[current] {
		if target == next {
			return true
		}
	}
	return false
}

// TransitionEvent is the immutable audit record of one lane transition.
// One event per transition, append-only, never batched.
type TransitionEvent struct {
	Country    string         `json:"country" db:"country"`
	Category   string         `json:"category" db:"category"`
	FromState  State          `json:"from_state" db:"from_state"`
	ToState    State          `json:"to_state" db:"to_state"`
	Actor      Actor          `json:"actor" db:"actor"`
	OccurredAt time.Time      `json:"occurred_at" db:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BuildTransitionEvent constructs the audit record for a transition,
// stamped with the current time.
func BuildTransitionEvent(country, category string, from, to State, actor Actor, metadata map[string]any) TransitionEvent {
	return TransitionEvent{
		Country:    country,
		Category:   category,
		FromState:  from,
		ToState:    to,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Metadata:   metadata,
	}
}
