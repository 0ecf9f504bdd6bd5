package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineStartsIdle(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	sm := newStateMachine(withStateMachineClock(func() time.Time { return now }))

	state, changedAt := sm.state()
	assert.Equal(t, StateIdle, state)
	assert.Equal(t, now, changedAt)
}

func TestStateMachineLoginPath(t *testing.T) {
	sm := newStateMachine()

	from, err := sm.transition(StateLoading)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, from)

	from, err = sm.transition(StateMember)
	require.NoError(t, err)
	assert.Equal(t, StateLoading, from)

	state, _ := sm.state()
	assert.Equal(t, StateMember, state)
}

func TestStateMachineAuthenticatedStatesRequireLoading(t *testing.T) {
	cases := []struct {
		name  string
		setup []AuthState
		to    AuthState
	}{
		{"idle to member", nil, StateMember},
		{"idle to admin", nil, StateAdmin},
		{"anonymous to member", []AuthState{StateLoading, StateAnonymous}, StateMember},
		{"anonymous to admin", []AuthState{StateLoading, StateAnonymous}, StateAdmin},
		{"member to admin", []AuthState{StateLoading, StateMember}, StateAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sm := newStateMachine()
			for _, s := range tc.setup {
				_, err := sm.transition(s)
				require.NoError(t, err)
			}

			before, _ := sm.state()
			from, err := sm.transition(tc.to)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, from)

			state, _ := sm.state()
			assert.Equal(t, before, state, "failed transition must not move the machine")
		})
	}
}

func TestStateMachineEveryStateMayDropToAnonymous(t *testing.T) {
	paths := [][]AuthState{
		{},
		{StateLoading},
		{StateLoading, StateMember},
		{StateLoading, StateAdmin},
	}

	for _, setup := range paths {
		sm := newStateMachine()
		for _, s := range setup {
			_, err := sm.transition(s)
			require.NoError(t, err)
		}

		_, err := sm.transition(StateAnonymous)
		require.NoError(t, err)

		state, _ := sm.state()
		assert.Equal(t, StateAnonymous, state)
	}
}

func TestStateMachineSameStateIsNoop(t *testing.T) {
	instants := []time.Time{
		time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 14, 9, 5, 0, 0, time.UTC),
		time.Date(2026, 2, 14, 9, 10, 0, 0, time.UTC),
	}
	idx := 0
	sm := newStateMachine(withStateMachineClock(func() time.Time {
		now := instants[idx%len(instants)]
		idx++
		return now
	}))

	_, err := sm.transition(StateLoading)
	require.NoError(t, err)
	_, enteredAt := sm.state()

	from, err := sm.transition(StateLoading)
	require.NoError(t, err)
	assert.Equal(t, StateLoading, from)

	_, changedAt := sm.state()
	assert.Equal(t, enteredAt, changedAt, "same-state transition must not bump the timestamp")
}

func TestStateMachineRejectsEmptyTarget(t *testing.T) {
	sm := newStateMachine()
	_, err := sm.transition("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAuthStatePredicates(t *testing.T) {
	assert.True(t, StateMember.IsAuthenticated())
	assert.True(t, StateAdmin.IsAuthenticated())
	assert.False(t, StateIdle.IsAuthenticated())
	assert.False(t, StateLoading.IsAuthenticated())
	assert.False(t, StateAnonymous.IsAuthenticated())

	assert.True(t, StateIdle.IsLoading())
	assert.True(t, StateLoading.IsLoading())
	assert.False(t, StateAnonymous.IsLoading())
	assert.False(t, StateMember.IsLoading())
}

func TestAuthStateRoleMapping(t *testing.T) {
	role, ok := StateMember.SessionRole()
	require.True(t, ok)
	assert.Equal(t, RoleMember, role)

	role, ok = StateAdmin.SessionRole()
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = StateAnonymous.SessionRole()
	assert.False(t, ok)

	state, ok := stateForRole(RoleAdmin)
	require.True(t, ok)
	assert.Equal(t, StateAdmin, state)

	_, ok = stateForRole(Role("ghost"))
	assert.False(t, ok)
}
