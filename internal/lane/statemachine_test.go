package lane

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStateHappyPath(t *testing.T) {
	cases := []struct {
		from   State
		action Action
		to     State
	}{
		{StateDetected, ActionValidate, StatePending},
		{StatePending, ActionActivate, StateActivated},
		{StatePending, ActionReject, StateLost},
		{StateActivated, ActionAllocate, StateFulfilling},
		{StateFulfilling, ActionComplete, StateClosed},
		{StateFulfilling, ActionFail, StateLost},
	}

	for _, tc := range cases {
		next, ok, err := NextState(tc.from, tc.action)
		require.NoError(t, err, "%s.%s", tc.from, tc.action)
		assert.True(t, ok)
		assert.Equal(t, tc.to, next)
	}
}

func TestNextStateUndefinedAction(t *testing.T) {
	// Illegal action from a live state is routine, not an error.
	next, ok, err := NextState(StateDetected, ActionComplete)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, State(""), next)
}

func TestNextStateUnknownState(t *testing.T) {
	_, _, err := NextState(State("limbo"), ActionValidate)
	assert.Error(t, err)
}

func TestTerminalStateLockout(t *testing.T) {
	actions := []Action{ActionValidate, ActionActivate, ActionReject, ActionAllocate, ActionComplete, ActionFail}

	for _, terminal := range []State{StateClosed, StateLost} {
		assert.True(t, IsTerminalState(terminal))
		assert.False(t, CanTransitionFrom(terminal))

		for _, action := range actions {
			_, _, err := NextState(terminal, action)
			var terr *ErrTerminalState
			require.ErrorAs(t, err, &terr, "%s.%s must fail", terminal, action)
			assert.Equal(t, terminal, terr.State)
		}

		for _, next := range []State{StateDetected, StatePending, StateActivated, StateFulfilling, StateClosed, StateLost} {
			assert.False(t, IsValidTransition(terminal, next))
		}
	}
}

func TestTransitionTableExhaustive(t *testing.T) {
	valid := map[State]bool{
		StateDetected: true, StatePending: true, StateActivated: true,
		StateFulfilling: true, StateClosed: true, StateLost: true,
	}

	for from, actions := range transitions {
		assert.True(t, valid[from], "unknown source state %q", from)
		if !IsTerminalState(from) {
			assert.NotEmpty(t, actions, "non-terminal state %q has no outgoing transitions", from)
		}
		for action, to := range actions {
			assert.True(t, valid[to], "transition %s.%s targets unknown state %q", from, action, to)
			assert.True(t, IsValidTransition(from, to))
		}
	}
}

func TestIsValidTransition(t *testing.T) {
	assert.True(t, IsValidTransition(StatePending, StateActivated))
	assert.True(t, IsValidTransition(StatePending, StateLost))
	assert.False(t, IsValidTransition(StatePending, StateClosed))
	assert.False(t, IsValidTransition(StateDetected, StateActivated))
}

func TestBuildTransitionEvent(t *testing.T) {
	before := time.Now().UTC()
	ev := BuildTransitionEvent("IN", "steel", StatePending, StateActivated, ActorAdmin, map[string]any{"note": "manual review"})
	after := time.Now().UTC()

	assert.Equal(t, "IN", ev.Country)
	assert.Equal(t, "steel", ev.Category)
	assert.Equal(t, StatePending, ev.FromState)
	assert.Equal(t, StateActivated, ev.ToState)
	assert.Equal(t, ActorAdmin, ev.Actor)
	assert.Equal(t, "manual review", ev.Metadata["note"])
	assert.False(t, ev.OccurredAt.Before(before))
	assert.False(t, ev.OccurredAt.After(after))
}
