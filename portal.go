package portal

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/arvantis"
	"github.com/syntaxclub/go-portal/contacts"
	"github.com/syntaxclub/go-portal/events"
	"github.com/syntaxclub/go-portal/members"
	"github.com/syntaxclub/go-portal/query"
	"github.com/syntaxclub/go-portal/socials"
	"github.com/syntaxclub/go-portal/storage"
	"github.com/syntaxclub/go-portal/tickets"
	"github.com/syntaxclub/go-portal/tokenstore"
	"github.com/syntaxclub/go-portal/transport"
)

// Portal bundles the full client: transport, token store, session and
// one service per resource group. Build one with New and share it; all
// parts are safe for concurrent use.
type Portal struct {
	cfg    Config
	logger Logger

	API     *transport.Clients
	Tokens  *tokenstore.Store
	Auth    *AuthService
	Session *Session
	Queries *query.Client

	Arvantis *arvantis.Service
	Events   *events.Service
	Members  *members.Service
	Tickets  *tickets.Service
	Contacts *contacts.Service
	Socials  *socials.Service

	// ContactDraft autosaves the public contact form between visits.
	ContactDraft *contacts.DraftAutosaver
}

type portalOptions struct {
	logger   Logger
	store    storage.Storage
	http     *http.Client
	notifier query.Notifier
}

// Option configures New.
type Option func(*portalOptions)

// WithLogger routes portal logs to the given logger. Without it the
// portal logs to stdout when Config.Debug is set and stays silent
// otherwise.
func WithLogger(logger Logger) Option {
	return func(o *portalOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStorage overrides the persistence backend for tokens and drafts.
// Without it state lands in a JSON document under the user config
// directory.
func WithStorage(store storage.Storage) Option {
	return func(o *portalOptions) {
		if store != nil {
			o.store = store
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client, typically for
// tests or custom proxies.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *portalOptions) {
		if hc != nil {
			o.http = hc
		}
	}
}

// WithNotifier routes mutation toasts from the query layer to the
// given notifier.
func WithNotifier(n query.Notifier) Option {
	return func(o *portalOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// New wires a Portal against the API named by cfg. A background
// refresh failure drops the session to anonymous automatically.
func New(cfg Config, opts ...Option) (*Portal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid portal configuration").
			WithTextCode(transport.TextCodeValidationFailed).
			WithCode(goerrors.CodeBadRequest)
	}

	o := portalOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		if cfg.Debug {
			o.logger = defLogger{}
		} else {
			o.logger = noopLogger{}
		}
	}

	store := o.store
	if store == nil {
		store = storage.NewFileStore(cfg.StoragePath)
	}
	tokens := tokenstore.NewStore(store)

	topts := []transport.Option{
		transport.WithBaseURL(cfg.BaseURL),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithTokenStore(tokens),
	}
	if cfg.Timeout > 0 {
		topts = append(topts, transport.WithTimeout(cfg.Timeout))
	}
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}

	api, err := transport.New(topts...)
	if err != nil {
		return nil, err
	}

	auth := NewAuthService(api, tokens, WithAuthLogger(o.logger))
	session := NewSession(auth, tokens, WithSessionLogger(o.logger))
	api.OnSessionExpired(session.expire)

	var qopts []query.Option
	if o.notifier != nil {
		qopts = append(qopts, query.WithNotifier(o.notifier))
	}

	return &Portal{
		cfg:     cfg,
		logger:  o.logger,
		API:     api,
		Tokens:  tokens,
		Auth:    auth,
		Session: session,
		Queries: query.New(qopts...),

		Arvantis: arvantis.NewService(api),
		Events:   events.NewService(api),
		Members:  members.NewService(api),
		Tickets:  tickets.NewService(api),
		Contacts: contacts.NewService(api),
		Socials:  socials.NewService(api),

		ContactDraft: contacts.NewDraftAutosaver(store),
	}, nil
}

// Config returns the configuration the portal was built with.
func (p *Portal) Config() Config {
	return p.cfg
}
