package auth

import (
	"context"
	"log"
	"time"

	"golang.org/x/oauth2"

	"github.com/csipacific/dashboard/internal/registry"
	"github.com/csipacific/dashboard/internal/storage"
)

// sessionTTL bounds how long a browser session stays valid.
const sessionTTL = 24 * time.Hour

// identityClient resolves the signed-in user from the registry.
type identityClient interface {
	Me(ctx context.Context, token string) (registry.Identity, error)
}

// stateStore persists pending OAuth states and sessions.
type stateStore interface {
	storage.LoginStateStore
	storage.SessionStore
}

// Service wires the OAuth login flow to session storage.
type Service struct {
	cfg      Config
	oauthCfg *oauth2.Config
	store    stateStore
	identity identityClient
	logger   *log.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOAuthConfig overrides the derived oauth2 configuration, mainly so tests
// can point the endpoints at a local server.
func WithOAuthConfig(cfg *oauth2.Config) ServiceOption {
	return func(s *Service) {
		if cfg != nil {
			s.oauthCfg = cfg
		}
	}
}

// NewService builds the login service from a validated configuration.
func NewService(cfg Config, store stateStore, identity identityClient, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		cfg:      cfg,
		oauthCfg: cfg.OAuth2(),
		store:    store,
		identity: identity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}
