// Package contacts handles the public contact form, its local draft
// autosave, and the admin inbox behind it.
package contacts

import (
	"context"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/time/rate"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/contact"

// submitCooldown is the minimum wait between two accepted submissions
// from this client.
const submitCooldown = 20 * time.Second

// Message statuses used by the admin inbox.
const (
	StatusPending  = "pending"
	StatusRead     = "read"
	StatusResolved = "resolved"
)

// Message is a contact form submission as stored by the server.
type Message struct {
	ID        string     `json:"_id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Stats summarizes the admin inbox.
type Stats struct {
	Total    int            `json:"total,omitempty"`
	Pending  int            `json:"pending,omitempty"`
	Resolved int            `json:"resolved,omitempty"`
	ByStatus map[string]int `json:"byStatus,omitempty"`
}

// SubmitInput is the public contact form payload. Website is the
// honeypot field: it never reaches the wire, and a non-empty value
// short-circuits the submission.
type SubmitInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`

	Website string `json:"-"`
}

func (in SubmitInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Message, validation.Required, validation.Length(1, 5000)),
	)
}

// Draft converts the form into its persisted draft shape, dropping the
// honeypot.
func (in SubmitInput) Draft() Draft {
	return Draft{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Message: in.Message,
	}
}

// Service talks to the contact endpoints.
type Service struct {
	api     *transport.Clients
	limiter *rate.Limiter
}

// NewService returns a contacts service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(submitCooldown), 1),
	}
}

// Submit sends the contact form on the public client. Submissions are
// throttled to one per cooldown window; only accepted submissions
// consume the window. A tripped honeypot reports success without
// touching the server.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (transport.Ack, error) {
	if err := input.Validate(); err != nil {
		return transport.Ack{}, invalidInput(err)
	}

	if input.Website != "" {
		return transport.Ack{Success: true, Message: "message received"}, nil
	}

	res := s.limiter.Reserve()
	if !res.OK() || res.Delay() > 0 {
		res.Cancel()
		return transport.Ack{}, goerrors.New("please wait before sending another message", goerrors.CategoryRateLimit).
			WithTextCode(transport.TextCodeRateLimited).
			WithCode(http.StatusTooManyRequests)
	}

	var ack transport.Ack
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath,
		Body:     transport.JSON(input),
		Fallback: "could not send your message",
	}
	if err := s.api.Public.Do(ctx, req, &ack); err != nil {
		res.Cancel()
		return transport.Ack{}, err
	}
	return ack, nil
}

// List returns a page of inbox messages.
func (s *Service) List(ctx context.Context, params paginate.ListParams) (paginate.Page[Message], error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath,
		Query:    params.Query(),
		Fallback: "could not load messages",
	}
	raw, err := s.api.Auth.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Message]{}, err
	}
	return paginate.Normalize[Message](raw)
}

// ByID fetches one inbox message.
func (s *Service) ByID(ctx context.Context, id string) (*Message, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var msg Message
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     messagePath(id),
		Fallback: "could not load the message",
	}
	if err := s.api.Auth.Do(ctx, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateStatus moves a message through the inbox workflow.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Message, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Validate(status, validation.Required, validation.In(StatusPending, StatusRead, StatusResolved)); err != nil {
		return nil, invalidInput(err)
	}
	var msg Message
	req := transport.Request{
		Method:   http.MethodPatch,
		Path:     messagePath(id, "status"),
		Body:     transport.JSON(map[string]string{"status": status}),
		Fallback: "could not update the message",
	}
	if err := s.api.Auth.Do(ctx, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete removes one message.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	req := transport.Request{
		Method:   http.MethodDelete,
		Path:     messagePath(id),
		Fallback: "could not delete the message",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}

// BulkDelete removes several messages in one call.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return goerrors.New("at least one message id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath + "/bulk-delete",
		Body:     transport.JSON(map[string]any{"ids": ids}),
		Fallback: "could not delete messages",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}

// GetStats returns inbox counters for the admin dashboard.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/stats",
		Fallback: "could not load inbox stats",
	}
	if err := s.api.Auth.Do(ctx, req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func messagePath(id string, segments ...string) string {
	path := basePath + "/" + url.PathEscape(id)
	for _, seg := range segments {
		path += "/" + seg
	}
	return path
}

func requireID(id string) error {
	if id == "" {
		return goerrors.New("message id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func invalidInput(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid contact input").
		WithTextCode(transport.TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}
