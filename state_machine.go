package portal

import (
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_SESSION_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested session state change is
// not allowed.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// AuthState is one node of the session lifecycle graph.
type AuthState string

const (
	// StateIdle is the state before the first bootstrap.
	StateIdle AuthState = "idle"
	// StateLoading covers bootstrap and explicit revalidation.
	StateLoading AuthState = "loading"
	// StateAnonymous is the logged-out state.
	StateAnonymous AuthState = "anonymous"
	// StateMember is an authenticated member session.
	StateMember AuthState = "member"
	// StateAdmin is an authenticated admin session.
	StateAdmin AuthState = "admin"
)

// IsAuthenticated reports whether the state carries a live session.
func (s AuthState) IsAuthenticated() bool {
	return s == StateMember || s == StateAdmin
}

// IsLoading reports whether a bootstrap or revalidation is in progress.
func (s AuthState) IsLoading() bool {
	return s == StateIdle || s == StateLoading
}

// SessionRole maps an authenticated state to its role.
func (s AuthState) SessionRole() (Role, bool) {
	switch s {
	case StateMember:
		return RoleMember, true
	case StateAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// stateForRole maps a role to its authenticated state.
func stateForRole(role Role) (AuthState, bool) {
	switch role {
	case RoleMember:
		return StateMember, true
	case RoleAdmin:
		return StateAdmin, true
	default:
		return "", false
	}
}

// stateMachine guards the session lifecycle graph. Every state may drop to
// anonymous (logout, expiry); authenticated states are only ever entered
// from loading, because login always revalidates before trusting a session.
type stateMachine struct {
	mu          sync.Mutex
	current     AuthState
	changedAt   time.Time
	transitions map[AuthState]map[AuthState]struct{}
	now         func() time.Time
}

type stateMachineOption func(*stateMachine)

// withStateMachineClock injects a custom clock (useful for tests).
func withStateMachineClock(clock func() time.Time) stateMachineOption {
	return func(sm *stateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

func newStateMachine(opts ...stateMachineOption) *stateMachine {
	sm := &stateMachine{
		current: StateIdle,
		transitions: map[AuthState]map[AuthState]struct{}{
			StateIdle: {
				StateLoading:   {},
				StateAnonymous: {},
			},
			StateLoading: {
				StateAnonymous: {},
				StateMember:    {},
				StateAdmin:     {},
			},
			StateAnonymous: {
				StateLoading: {},
			},
			StateMember: {
				StateLoading:   {},
				StateAnonymous: {},
			},
			StateAdmin: {
				StateLoading:   {},
				StateAnonymous: {},
			},
		},
		now: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	sm.changedAt = sm.now()
	return sm
}

// state returns the current node and when it was entered.
func (sm *stateMachine) state() (AuthState, time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current, sm.changedAt
}

// transition moves to the target state. Moving to the current state is a
// no-op; anything outside the graph returns ErrInvalidTransition.
func (sm *stateMachine) transition(target AuthState) (AuthState, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.current
	if target == "" {
		return from, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target state is empty",
		})
	}
	if from == target {
		return from, nil
	}

	if !sm.canTransition(from, target) {
		return from, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(target),
		})
	}

	sm.current = target
	sm.changedAt = sm.now()
	return from, nil
}

func (sm *stateMachine) canTransition(from, to AuthState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
