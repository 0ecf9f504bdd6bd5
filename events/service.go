package events

import (
	"context"
	"net/http"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/events"

// Service talks to the events endpoints. Reads go through the public
// client, management calls through the authenticated one.
type Service struct {
	api *transport.Clients
}

// NewService returns an events service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{api: api}
}

// Input is the create and update payload for an event. Update calls
// may leave fields empty to keep the stored value.
type Input struct {
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	EventDate    *Date         `json:"eventDate,omitempty"`
	Venue        string        `json:"venue,omitempty"`
	Speakers     []Speaker     `json:"speakers,omitempty"`
	Partners     []Partner     `json:"partners,omitempty"`
	CoOrganizers []Partner     `json:"coOrganizers,omitempty"`
	Resources    []Resource    `json:"resources,omitempty"`
	Registration *Registration `json:"registration,omitempty"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&in.Description, validation.Length(0, 5000)),
	)
}

// ByID fetches a single event. Missing events map to a not found
// error.
func (s *Service) ByID(ctx context.Context, id string) (*Event, error) {
	if id == "" {
		return nil, goerrors.New("event id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	var event Event
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/" + url.PathEscape(id),
		Fallback: "could not load event",
	}
	if err := s.api.Public.Do(ctx, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns a page of events in the canonical envelope.
func (s *Service) List(ctx context.Context, params paginate.ListParams) (paginate.Page[Event], error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath,
		Query:    params.Query(),
		Fallback: "could not load events",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Event]{}, err
	}
	return paginate.Normalize[Event](raw)
}

// Create registers a new event.
func (s *Service) Create(ctx context.Context, input Input) (*Event, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	var event Event
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath,
		Body:     transport.JSON(input),
		Fallback: "could not create event",
	}
	if err := s.api.Auth.Do(ctx, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Update applies a partial update to an event.
func (s *Service) Update(ctx context.Context, id string, input Input) (*Event, error) {
	if id == "" {
		return nil, goerrors.New("event id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	var event Event
	req := transport.Request{
		Method:   http.MethodPatch,
		Path:     basePath + "/" + url.PathEscape(id),
		Body:     transport.JSON(input),
		Fallback: "could not update event",
	}
	if err := s.api.Auth.Do(ctx, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return goerrors.New("event id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	req := transport.Request{
		Method:   http.MethodDelete,
		Path:     basePath + "/" + url.PathEscape(id),
		Fallback: "could not delete event",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}

func invalidInput(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid event input").
		WithTextCode(transport.TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}
