package portal

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/tokenstore"
)

// Snapshot is one observation of the session. Subscribers receive a
// snapshot on every state change.
type Snapshot struct {
	State           AuthState
	User            *User
	Role            Role
	IsAuthenticated bool
	Loading         bool
	ChangedAt       time.Time
}

// Session is the process-wide auth state. It owns the in-memory user and
// role; the token store owns the persisted bundle. Only Session actions
// mutate the state, and members and admins share the one session slot, so
// logging in as one actor kind replaces the other.
type Session struct {
	auth    *AuthService
	tokens  *tokenstore.Store
	machine *stateMachine
	logger  Logger
	now     func() time.Time

	mu   sync.RWMutex
	user *User
	role Role

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithSessionLogger overrides the session logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionClock injects a time source (useful for tests).
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession builds a session manager over the auth service and token
// store. The session starts idle; call Revalidate to bootstrap it from
// whatever the slot holds.
func NewSession(auth *AuthService, tokens *tokenstore.Store, opts ...SessionOption) *Session {
	s := &Session{
		auth:   auth,
		tokens: tokens,
		logger: defLogger{},
		now:    time.Now,
		subs:   map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.machine = newStateMachine(withStateMachineClock(s.now))
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() AuthState {
	state, _ := s.machine.state()
	return state
}

// Snapshot returns the current session observation.
func (s *Session) Snapshot() Snapshot {
	state, changedAt := s.machine.state()

	s.mu.RLock()
	user, role := s.user, s.role
	s.mu.RUnlock()

	return Snapshot{
		State:           state,
		User:            user,
		Role:            role,
		IsAuthenticated: state.IsAuthenticated(),
		Loading:         state.IsLoading(),
		ChangedAt:       changedAt,
	}
}

// User returns the authenticated user, if any.
func (s *Session) User() (*User, bool) {
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil {
		return nil, false
	}
	return snap.User, true
}

// Role returns the authenticated role, if any.
func (s *Session) Role() (Role, bool) {
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.Role == "" {
		return "", false
	}
	return snap.Role, true
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// Loading reports whether a bootstrap or revalidation is in progress.
func (s *Session) Loading() bool {
	return s.State().IsLoading()
}

// AccessToken exposes the persisted token, when one exists.
func (s *Session) AccessToken(ctx context.Context) (string, bool) {
	return s.tokens.AccessToken(ctx)
}

// Subscribe registers a listener invoked on every state change. The
// returned function removes it.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Revalidate bootstraps the session from the persisted token:
//
//  1. A missing or expired token is refreshed through the admin then the
//     member refresh endpoint; the refresh cookie decides which succeeds.
//  2. If neither refresh works, the session drops to anonymous.
//  3. Otherwise the token's role claim picks the who-am-I endpoint and its
//     payload becomes the live user.
//
// Ending up anonymous is a normal outcome, not an error; the returned
// error is reserved for context cancellation.
func (s *Session) Revalidate(ctx context.Context) error {
	s.toLoading()

	token, ok := s.tokens.AccessToken(ctx)
	if !ok || tokenstore.IsExpired(token, s.now()) {
		refreshed, err := s.refreshAnyRole(ctx)
		if err != nil {
			s.logger.Debug("session bootstrap found no refreshable session: %v", err)
			s.anonymize(ctx, true)
			return ctx.Err()
		}
		token = refreshed
	}

	claims := tokenstore.Decode(token)
	if claims == nil {
		s.anonymize(ctx, true)
		return ctx.Err()
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		s.logger.Warn("%v: %q", ErrUnknownRole, claims.Role)
		s.anonymize(ctx, true)
		return ctx.Err()
	}

	user, err := s.whoami(ctx, role)
	if err != nil {
		s.logger.Debug("session bootstrap whoami failed: %v", err)
		s.anonymize(ctx, true)
		return ctx.Err()
	}

	s.authenticate(user, role)
	return nil
}

// LoginMember authenticates a member and revalidates, so the session user
// is the live who-am-I payload rather than the login response.
func (s *Session) LoginMember(ctx context.Context, input MemberLoginInput) (*User, error) {
	if _, err := s.auth.LoginMember(ctx, input); err != nil {
		return nil, err
	}
	return s.establish(ctx)
}

// LoginAdmin authenticates an admin and revalidates.
func (s *Session) LoginAdmin(ctx context.Context, input AdminLoginInput) (*User, error) {
	if _, err := s.auth.LoginAdmin(ctx, input); err != nil {
		return nil, err
	}
	return s.establish(ctx)
}

// RegisterAdmin creates an admin account and revalidates, mirroring the
// login flow.
func (s *Session) RegisterAdmin(ctx context.Context, input AdminRegisterInput) (*User, error) {
	if _, err := s.auth.RegisterAdmin(ctx, input); err != nil {
		return nil, err
	}
	return s.establish(ctx)
}

func (s *Session) establish(ctx context.Context) (*User, error) {
	if err := s.Revalidate(ctx); err != nil {
		return nil, err
	}
	user, ok := s.User()
	if !ok {
		return nil, goerrors.Wrap(ErrNotAuthenticated, goerrors.CategoryAuth, "login did not produce a live session").
			WithCode(goerrors.CodeUnauthorized)
	}
	return user, nil
}

// LogoutMember ends a member session. The server call is best-effort:
// local state is cleared no matter what.
func (s *Session) LogoutMember(ctx context.Context) error {
	return s.logout(ctx, RoleMember)
}

// LogoutAdmin ends an admin session.
func (s *Session) LogoutAdmin(ctx context.Context) error {
	return s.logout(ctx, RoleAdmin)
}

// Logout ends whatever session is active. Logging out an anonymous session
// is a local no-op.
func (s *Session) Logout(ctx context.Context) error {
	role, ok := s.Role()
	if !ok {
		s.anonymize(ctx, true)
		return nil
	}
	return s.logout(ctx, role)
}

func (s *Session) logout(ctx context.Context, role Role) error {
	defer s.anonymize(ctx, true)

	if !s.IsAuthenticated() {
		return nil
	}

	var err error
	if role == RoleAdmin {
		err = s.auth.LogoutAdmin(ctx)
	} else {
		err = s.auth.LogoutMember(ctx)
	}
	if err != nil {
		s.logger.Warn("logout request failed, clearing local session anyway: %v", err)
	}
	return nil
}

// expire drops the session to anonymous after a background refresh
// failure. The transport layer already cleared the token slot.
func (s *Session) expire() {
	s.anonymize(context.Background(), false)
}

func (s *Session) refreshAnyRole(ctx context.Context) (string, error) {
	token, err := s.auth.RefreshAdmin(ctx)
	if err == nil {
		return token, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	return s.auth.RefreshMember(ctx)
}

func (s *Session) whoami(ctx context.Context, role Role) (*User, error) {
	if role == RoleAdmin {
		return s.auth.AdminMe(ctx)
	}
	return s.auth.MemberMe(ctx)
}

func (s *Session) toLoading() {
	from, err := s.machine.transition(StateLoading)
	if err != nil {
		s.logger.Error("session state error: %v", err)
		return
	}
	if from != StateLoading {
		s.notify()
	}
}

func (s *Session) authenticate(user *User, role Role) {
	target, ok := stateForRole(role)
	if !ok {
		s.anonymize(context.Background(), true)
		return
	}

	s.mu.Lock()
	s.user = user
	s.role = role
	s.mu.Unlock()

	from, err := s.machine.transition(target)
	if err != nil {
		s.logger.Error("session state error: %v", err)
		s.mu.Lock()
		s.user = nil
		s.role = ""
		s.mu.Unlock()
		return
	}
	if from != target {
		s.notify()
	}
}

// anonymize clears token, user, and state as one step, so observers never
// see a half-cleared session.
func (s *Session) anonymize(ctx context.Context, clearToken bool) {
	if clearToken {
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear token slot: %v", err)
		}
	}

	from, err := s.machine.transition(StateAnonymous)
	if err != nil {
		s.logger.Error("session state error: %v", err)
		return
	}

	s.mu.Lock()
	s.user = nil
	s.role = ""
	s.mu.Unlock()

	if from != StateAnonymous {
		s.notify()
	}
}

func (s *Session) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	listeners := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
