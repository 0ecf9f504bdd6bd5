package portal

import (
	"context"
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/tokenstore"
	"github.com/syntaxclub/go-portal/transport"
)

const (
	pathMemberLogin   = "/api/v1/members/login"
	pathMemberLogout  = "/api/v1/members/logout"
	pathMemberMe      = "/api/v1/members/me"
	pathMemberRefresh = "/api/v1/members/refresh"
	pathAdminLogin    = "/api/v1/admin/login"
	pathAdminLogout   = "/api/v1/admin/logout"
	pathAdminMe       = "/api/v1/admin/me"
	pathAdminRefresh  = "/api/v1/admin/refresh"
	pathAdminRegister = "/api/v1/admin/register"
)

// AuthService wraps the authentication endpoints for both actor kinds.
// Successful logins and refreshes persist the access token; the refresh
// cookie itself is owned by the server and rides in the shared cookie jar.
type AuthService struct {
	api    *transport.Clients
	tokens *tokenstore.Store
	logger Logger
}

// AuthServiceOption customizes the service.
type AuthServiceOption func(*AuthService)

// WithAuthLogger overrides the service logger.
func WithAuthLogger(logger Logger) AuthServiceOption {
	return func(s *AuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAuthService builds the auth surface on the shared clients.
func NewAuthService(api *transport.Clients, tokens *tokenstore.Store, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		api:    api,
		tokens: tokens,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// MemberLoginInput carries member credentials. The identifier resolves to
// email or institutionalId on the wire.
type MemberLoginInput struct {
	Identifier Credential
	Password   string
}

// Validate checks the payload before transmission.
func (in MemberLoginInput) Validate() error {
	if err := in.Identifier.Validate(); err != nil {
		return validation.Errors{"identifier": err}
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Password, validation.Required),
	)
}

// AdminLoginInput carries admin credentials.
type AdminLoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload before transmission.
func (in AdminLoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

// AdminRegisterInput carries the admin sign-up payload. The admin secret is
// checked server-side; the client only requires its presence.
type AdminRegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"adminSecret"`
}

// Validate checks the payload before transmission.
func (in AdminRegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&in.AdminSecret, validation.Required),
	)
}

// AuthResult is what a login or registration resolves to. The user comes
// straight from the login response and may be partial; Session.Revalidate
// replaces it with the live who-am-I payload.
type AuthResult struct {
	AccessToken string
	User        *User
}

// authPayload tolerates the auth response spellings across handler
// generations: accessToken vs token, user vs member vs admin.
type authPayload struct {
	AccessToken string `json:"accessToken,omitempty"`
	Token       string `json:"token,omitempty"`
	User        *User  `json:"user,omitempty"`
	Member      *User  `json:"member,omitempty"`
	Admin       *User  `json:"admin,omitempty"`
}

func (p authPayload) accessToken() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.Token
}

func (p authPayload) actor() *User {
	for _, u := range []*User{p.User, p.Member, p.Admin} {
		if u != nil {
			return u
		}
	}
	return nil
}

// LoginMember authenticates a member and persists the access token.
func (s *AuthService) LoginMember(ctx context.Context, input MemberLoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err, "invalid member login payload")
	}

	payload := map[string]string{"password": input.Password}
	field, value := input.Identifier.wireField()
	payload[field] = value

	return s.login(ctx, pathMemberLogin, payload, "login failed")
}

// LoginAdmin authenticates an admin and persists the access token.
func (s *AuthService) LoginAdmin(ctx context.Context, input AdminLoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err, "invalid admin login payload")
	}
	return s.login(ctx, pathAdminLogin, input, "admin login failed")
}

// RegisterAdmin creates an admin account. The server logs the new admin in,
// so the returned access token is persisted like a login.
func (s *AuthService) RegisterAdmin(ctx context.Context, input AdminRegisterInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err, "invalid admin registration payload")
	}
	return s.login(ctx, pathAdminRegister, input, "admin registration failed")
}

func (s *AuthService) login(ctx context.Context, path string, payload any, fallback string) (*AuthResult, error) {
	var out authPayload
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     transport.JSON(payload),
		Fallback: fallback,
	}
	if err := s.api.Public.Do(ctx, req, &out); err != nil {
		return nil, err
	}

	token := out.accessToken()
	if token == "" {
		return nil, goerrors.New("auth response carried no access token", goerrors.CategoryInternal).
			WithTextCode(transport.TextCodeServerError).
			WithMetadata(map[string]any{"path": path})
	}
	if err := s.tokens.SetToken(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Debug("authenticated against %s", path)
	return &AuthResult{AccessToken: token, User: out.actor()}, nil
}

// LogoutMember ends the member session server-side and clears the local
// slot. The slot is cleared even when the server call fails.
func (s *AuthService) LogoutMember(ctx context.Context) error {
	return s.logout(ctx, pathMemberLogout)
}

// LogoutAdmin ends the admin session server-side and clears the local slot.
func (s *AuthService) LogoutAdmin(ctx context.Context) error {
	return s.logout(ctx, pathAdminLogout)
}

func (s *AuthService) logout(ctx context.Context, path string) error {
	err := s.api.Auth.Do(ctx, transport.Request{
		Method:   http.MethodPost,
		Path:     path,
		Fallback: "logout failed",
	}, nil)

	if clearErr := s.tokens.Clear(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// RefreshAdmin rotates the access token through the admin refresh endpoint.
// The call relies on the refresh cookie alone, so it runs on the public
// client.
func (s *AuthService) RefreshAdmin(ctx context.Context) (string, error) {
	return s.refresh(ctx, pathAdminRefresh)
}

// RefreshMember rotates the access token through the member refresh
// endpoint.
func (s *AuthService) RefreshMember(ctx context.Context) (string, error) {
	return s.refresh(ctx, pathMemberRefresh)
}

func (s *AuthService) refresh(ctx context.Context, path string) (string, error) {
	var out authPayload
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     path,
		Fallback: "could not refresh session",
	}
	if err := s.api.Public.Do(ctx, req, &out); err != nil {
		return "", err
	}

	token := out.accessToken()
	if token == "" {
		return "", goerrors.New("refresh response carried no access token", goerrors.CategoryAuth).
			WithTextCode(transport.TextCodeSessionExpired).
			WithCode(goerrors.CodeUnauthorized)
	}
	if err := s.tokens.SetToken(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// MemberMe fetches the current member profile.
func (s *AuthService) MemberMe(ctx context.Context) (*User, error) {
	return s.me(ctx, pathMemberMe)
}

// AdminMe fetches the current admin profile.
func (s *AuthService) AdminMe(ctx context.Context) (*User, error) {
	return s.me(ctx, pathAdminMe)
}

func (s *AuthService) me(ctx context.Context, path string) (*User, error) {
	var raw json.RawMessage
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     path,
		Fallback: "could not load profile",
	}
	if err := s.api.Auth.Do(ctx, req, &raw); err != nil {
		return nil, err
	}

	user := decodeUserPayload(raw)
	if user == nil {
		return nil, goerrors.New("profile response carried no user", goerrors.CategoryInternal).
			WithTextCode(transport.TextCodeServerError).
			WithMetadata(map[string]any{"path": path})
	}
	return user, nil
}

// decodeUserPayload accepts both the wrapped ({user|member|admin: {...}})
// and the bare user payload shapes.
func decodeUserPayload(raw json.RawMessage) *User {
	if len(raw) == 0 {
		return nil
	}

	var wrap authPayload
	if err := json.Unmarshal(raw, &wrap); err == nil {
		if u := wrap.actor(); u != nil && (u.ID != "" || u.Email != "") {
			return u
		}
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil
	}
	if user.ID == "" && user.Email == "" {
		return nil
	}
	return &user
}

func invalidInput(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(transport.TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}
