// Package socials serves the public social feed and its admin
// management calls.
package socials

import (
	"context"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/events"
	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/socials"

// Post is a curated social media highlight.
type Post struct {
	ID        string        `json:"_id,omitempty"`
	Title     string        `json:"title,omitempty"`
	Caption   string        `json:"caption,omitempty"`
	Platform  string        `json:"platform,omitempty"`
	Link      string        `json:"link,omitempty"`
	Image     *events.Media `json:"image,omitempty"`
	PostedAt  *events.Date  `json:"postedAt,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
}

// Service talks to the socials endpoints.
type Service struct {
	api *transport.Clients
}

// NewService returns a socials service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{api: api}
}

// CreateInput is the admin payload for a new post. The image travels
// as a multipart upload next to the text fields.
type CreateInput struct {
	Title    string
	Caption  string
	Platform string
	Link     string

	ImageName    string
	ImageContent []byte
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Link, is.URL),
	)
}

// List returns a page of the public feed.
func (s *Service) List(ctx context.Context, params paginate.ListParams) (paginate.Page[Post], error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath,
		Query:    params.Query(),
		Fallback: "could not load the social feed",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Post]{}, err
	}
	return paginate.Normalize[Post](raw)
}

// ByID fetches one post.
func (s *Service) ByID(ctx context.Context, id string) (*Post, error) {
	if id == "" {
		return nil, goerrors.New("post id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	var post Post
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/" + url.PathEscape(id),
		Fallback: "could not load the post",
	}
	if err := s.api.Public.Do(ctx, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create publishes a post with its image.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Post, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid social post").
			WithTextCode(transport.TextCodeValidationFailed).
			WithCode(goerrors.CodeBadRequest)
	}

	form := transport.NewFormData().
		Set("title", input.Title).
		Set("caption", input.Caption).
		Set("platform", input.Platform).
		Set("link", input.Link)
	if len(input.ImageContent) > 0 {
		form.SetFile("image", input.ImageName, input.ImageContent)
	}

	var post Post
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     basePath,
		Body:     form,
		Fallback: "could not publish the post",
	}
	if err := s.api.Auth.Do(ctx, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return goerrors.New("post id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	req := transport.Request{
		Method:   http.MethodDelete,
		Path:     basePath + "/" + url.PathEscape(id),
		Fallback: "could not delete the post",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}
