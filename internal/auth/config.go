// Package auth implements the OAuth2 login flow against the registry's
// authorization server and the browser sessions minted from it.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Config carries the OAuth client registration. The variable names match the
// registration issued by the registry operations team.
type Config struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	AppURL       string `env:"APP_URL"`
	SiteURL      string `env:"SITE_URL" envDefault:"https://apps.csipacific.ca"`
	// SecretKey signs OAuth state tokens.
	SecretKey string `env:"SECRET_KEY"`
}

// callbackPath is where the authorization server redirects back to.
const callbackPath = "/auth/callback"

// Validate checks that the registration is complete.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("CLIENT_SECRET is required")
	}
	if strings.TrimSpace(c.AppURL) == "" {
		return fmt.Errorf("APP_URL is required")
	}
	if strings.TrimSpace(c.SiteURL) == "" {
		return fmt.Errorf("SITE_URL is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	return nil
}

// site returns the auth server base URL without a trailing slash.
func (c Config) site() string {
	return strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
}

// RedirectURL is the absolute callback URL registered with the auth server.
func (c Config) RedirectURL() string {
	return strings.TrimRight(strings.TrimSpace(c.AppURL), "/") + callbackPath
}

// OAuth2 builds the authorization-code flow configuration. The token endpoint
// keeps its trailing slash; the auth server 404s without it.
func (c Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		RedirectURL:  c.RedirectURL(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.site() + "/o/authorize",
			TokenURL:  c.site() + "/o/token/",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
