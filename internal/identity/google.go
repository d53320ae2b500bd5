package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

var _ domain.CredentialProvider = (*GoogleCredentials)(nil)

// CodePrompt shows authURL to the user and returns the authorization code
// they bring back.
type CodePrompt func(ctx context.Context, authURL string) (string, error)

// GoogleOption configures GoogleCredentials.
type GoogleOption func(*GoogleCredentials)

// WithEndpoint replaces Google's OAuth endpoints.
func WithEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(g *GoogleCredentials) { g.cfg.Endpoint = ep }
}

// GoogleCredentials obtains Google ID tokens with the OAuth 2.0
// authorization-code flow. The caller's nonce is sent as the OpenID
// "nonce" parameter, so Google embeds it in the issued ID token.
type GoogleCredentials struct {
	cfg    oauth2.Config
	prompt CodePrompt
	log    *logger.Logger
}

// NewGoogleCredentials creates a credential source for an OAuth client.
func NewGoogleCredentials(clientID, clientSecret, redirectURL string, prompt CodePrompt, log *logger.Logger, opts ...GoogleOption) *GoogleCredentials {
	g := &GoogleCredentials{
		cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		prompt: prompt,
		log:    log,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// GetCredential runs one authorization round trip and returns the ID token.
func (g *GoogleCredentials) GetCredential(ctx context.Context, req domain.CredentialRequest) (*domain.Credential, error) {
	cfg := g.cfg
	if req.ClientID != "" {
		cfg.ClientID = req.ClientID
	}
	if cfg.ClientID == "" {
		return nil, errors.New("google: no client id configured")
	}

	state := uuid.NewString()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("nonce", req.Nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	code, err := g.prompt(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if code == "" {
		return nil, errors.New("google: sign-in cancelled")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("google: token response has no id_token")
	}

	g.log.Debug("google: obtained id token")
	return &domain.Credential{
		Type: domain.TypeGoogleIDToken,
		Data: map[string]string{"id_token": idToken},
	}, nil
}
