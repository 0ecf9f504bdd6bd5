// Package members exposes the public member directory and the
// profile and administration endpoints behind it.
package members

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/members"

// defaultPhoneRegion resolves national numbers entered without a
// country prefix.
const defaultPhoneRegion = "IN"

// Member lifecycle statuses used by the admin surface.
const (
	StatusActive  = "active"
	StatusBanned  = "banned"
	StatusRemoved = "removed"
)

// Member is a club member as served by the directory endpoints.
type Member struct {
	ID              string            `json:"_id,omitempty"`
	Name            string            `json:"name,omitempty"`
	Username        string            `json:"username,omitempty"`
	Email           string            `json:"email,omitempty"`
	InstitutionalID string            `json:"institutionalId,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	ProfilePicture  string            `json:"profilePicture,omitempty"`
	Resume          string            `json:"resume,omitempty"`
	Designation     string            `json:"designation,omitempty"`
	Department      string            `json:"department,omitempty"`
	Socials         map[string]string `json:"socials,omitempty"`
	IsLeader        bool              `json:"isLeader,omitempty"`
	Status          string            `json:"status,omitempty"`
	EmailVerified   bool              `json:"isEmailVerified,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
}

// Service talks to the members endpoints.
type Service struct {
	api *transport.Clients
}

// NewService returns a members service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{api: api}
}

// ProfileInput is the self-service profile patch.
type ProfileInput struct {
	Name        string            `json:"name,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Designation string            `json:"designation,omitempty"`
	Department  string            `json:"department,omitempty"`
	Socials     map[string]string `json:"socials,omitempty"`
}

func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Length(2, 100)),
		validation.Field(&in.Phone, validation.By(validPhone)),
	)
}

// AdminInput is the privileged member patch.
type AdminInput struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	InstitutionalID string `json:"institutionalId,omitempty"`
	Designation     string `json:"designation,omitempty"`
	IsLeader        *bool  `json:"isLeader,omitempty"`
	Status          string `json:"status,omitempty"`
}

func (in AdminInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, is.Email),
		validation.Field(&in.Status, validation.In(StatusActive, StatusBanned, StatusRemoved)),
	)
}

// ResetInput confirms a password reset started by email.
type ResetInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (in ResetInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
	)
}

// List returns a page of the public member directory.
func (s *Service) List(ctx context.Context, params paginate.ListParams) (paginate.Page[Member], error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath,
		Query:    params.Query(),
		Fallback: "could not load members",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Member]{}, err
	}
	return paginate.Normalize[Member](raw)
}

// Leaders returns the current leadership roster.
func (s *Service) Leaders(ctx context.Context) ([]Member, error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/leaders",
		Fallback: "could not load leaders",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return nil, err
	}
	page, err := paginate.Normalize[Member](raw)
	if err != nil {
		return nil, err
	}
	return page.Docs, nil
}

// UpdateSelf patches the signed-in member's profile. The phone number
// is rewritten in E.164 so the directory stores one format regardless
// of how the member typed it.
func (s *Service) UpdateSelf(ctx context.Context, input ProfileInput) (*Member, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	input.Phone = normalizePhone(input.Phone)
	return s.patch(ctx, basePath+"/me", transport.JSON(input), "could not update profile")
}

// UploadProfilePicture replaces the signed-in member's avatar.
func (s *Service) UploadProfilePicture(ctx context.Context, filename string, content []byte) (*Member, error) {
	if len(content) == 0 {
		return nil, goerrors.New("profile picture content is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	form := transport.NewFormData().SetFile("profilePicture", filename, content)
	return s.patch(ctx, basePath+"/me/profile-picture", form, "could not upload profile picture")
}

// UploadResume replaces the signed-in member's resume document.
func (s *Service) UploadResume(ctx context.Context, filename string, content []byte) (*Member, error) {
	if len(content) == 0 {
		return nil, goerrors.New("resume content is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	form := transport.NewFormData().SetFile("resume", filename, content)
	return s.patch(ctx, basePath+"/me/resume", form, "could not upload resume")
}

// AdminUpdate patches any member record.
func (s *Service) AdminUpdate(ctx context.Context, id string, input AdminInput) (*Member, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	return s.patch(ctx, memberPath(id), transport.JSON(input), "could not update member")
}

// Ban suspends a member account.
func (s *Service) Ban(ctx context.Context, id string) (*Member, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.patch(ctx, memberPath(id, "ban"), nil, "could not ban member")
}

// Unban lifts a suspension.
func (s *Service) Unban(ctx context.Context, id string) (*Member, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.patch(ctx, memberPath(id, "unban"), nil, "could not unban member")
}

// MarkRemoved flags an account as an alumnus or dropout without
// deleting its history.
func (s *Service) MarkRemoved(ctx context.Context, id string) (*Member, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.patch(ctx, memberPath(id, "remove"), nil, "could not mark member removed")
}

// RequestPasswordReset emails a reset token to the member.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return invalidInput(err)
	}
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath + "/password-reset/request",
		Body:     transport.JSON(map[string]string{"email": email}),
		Fallback: "could not request a password reset",
	}
	var ack transport.Ack
	return s.api.Public.Do(ctx, req, &ack)
}

// ConfirmPasswordReset redeems a reset token for a new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, input ResetInput) error {
	if err := input.Validate(); err != nil {
		return invalidInput(err)
	}
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath + "/password-reset/confirm",
		Body:     transport.JSON(input),
		Fallback: "could not reset the password",
	}
	var ack transport.Ack
	return s.api.Public.Do(ctx, req, &ack)
}

func (s *Service) patch(ctx context.Context, path string, body transport.Body, fallback string) (*Member, error) {
	var member Member
	req := transport.Request{
		Method:   http.MethodPatch,
		Path:     path,
		Body:     body,
		Fallback: fallback,
	}
	if err := s.api.Auth.Do(ctx, req, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func memberPath(id string, segments ...string) string {
	path := basePath + "/" + url.PathEscape(id)
	for _, seg := range segments {
		path += "/" + seg
	}
	return path
}

func validPhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, defaultPhoneRegion)
	if err != nil {
		return errors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

func normalizePhone(s string) string {
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, defaultPhoneRegion)
	if err != nil {
		return s
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func requireID(id string) error {
	if id == "" {
		return goerrors.New("member id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func invalidInput(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid member input").
		WithTextCode(transport.TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}
