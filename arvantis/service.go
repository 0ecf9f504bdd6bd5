package arvantis

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/arvantis"

// Service talks to the arvantis endpoints.
type Service struct {
	api *transport.Clients
}

// NewService returns an arvantis service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{api: api}
}

// Landing fetches the fest promoted on the landing page, normalized
// per NormalizeLanding. A (nil, nil) result means no edition is live.
func (s *Service) Landing(ctx context.Context) (*Fest, error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/landing",
		Fallback: "could not load the landing fest",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return nil, err
	}
	return NormalizeLanding(raw)
}

// List returns a page of fest editions.
func (s *Service) List(ctx context.Context, params paginate.ListParams) (paginate.Page[Fest], error) {
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath,
		Query:    params.Query(),
		Fallback: "could not load fests",
	}
	raw, err := s.api.Public.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Fest]{}, err
	}
	return paginate.Normalize[Fest](raw)
}

// Details fetches one edition by slug or year string.
func (s *Service) Details(ctx context.Context, identifier string) (*Fest, error) {
	if identifier == "" {
		return nil, goerrors.New("fest identifier is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	var fest Fest
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/" + url.PathEscape(identifier),
		Fallback: "could not load fest details",
	}
	if err := s.api.Public.Do(ctx, req, &fest); err != nil {
		return nil, err
	}
	return &fest, nil
}

// DetailsByYear fetches one edition by year.
func (s *Service) DetailsByYear(ctx context.Context, year int) (*Fest, error) {
	return s.Details(ctx, strconv.Itoa(year))
}
