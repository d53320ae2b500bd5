// Package auth wraps the identity provider for the UI: sign-in with Google
// or email, registration, sign-out, and a live session stream.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// Repository performs the sign-in flows against an identity provider.
type Repository struct {
	identity    domain.IdentityProvider
	credentials domain.CredentialProvider
	clientID    string
	log         *logger.Logger
	newNonce    func() string
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithNonceSource overrides the raw nonce generator.
func WithNonceSource(fn func() string) RepositoryOption {
	return func(r *Repository) {
		r.newNonce = fn
	}
}

// NewRepository creates a repository. credentials may be nil when Google
// sign-in is not configured.
func NewRepository(identity domain.IdentityProvider, credentials domain.CredentialProvider, clientID string, log *logger.Logger, opts ...RepositoryOption) *Repository {
	r := &Repository{
		identity:    identity,
		credentials: credentials,
		clientID:    clientID,
		log:         log,
		newNonce:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentUser returns the signed-in user, or nil.
func (r *Repository) CurrentUser() *domain.User { return r.identity.CurrentUser() }

// IsSignedIn reports whether a user is signed in.
func (r *Repository) IsSignedIn() bool { return r.identity.CurrentUser() != nil }

// Subscribe forwards provider session changes to fn.
func (r *Repository) Subscribe(fn func(*domain.User)) func() { return r.identity.Subscribe(fn) }

// SignInWithGoogle asks the credential provider for a Google ID token bound
// to a fresh nonce, checks the credential's type and nonce, and exchanges
// the token with the identity provider.
func (r *Repository) SignInWithGoogle(ctx context.Context) (*domain.User, error) {
	if r.credentials == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrNotImplemented)
	}

	hashed := HashNonce(r.newNonce())
	cred, err := r.credentials.GetCredential(ctx, domain.CredentialRequest{
		ClientID: r.clientID,
		Nonce:    hashed,
	})
	if err != nil {
		return nil, fmt.Errorf("getting credential: %w", err)
	}
	if cred.Type != domain.TypeGoogleIDToken {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnexpectedCredential, cred.Type)
	}

	idToken := cred.Data["id_token"]
	if idToken == "" {
		return nil, fmt.Errorf("%w: missing id token", domain.ErrUnexpectedCredential)
	}
	if err := verifyNonce(idToken, hashed); err != nil {
		return nil, err
	}

	user, err := r.identity.SignInWithCredential(ctx, idToken)
	if err != nil {
		return nil, err
	}
	r.log.Info("signed in %s with google", user.Email)
	return user, nil
}

// SignInWithEmail signs in with a password.
func (r *Repository) SignInWithEmail(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := r.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r.log.Info("signed in %s", user.Email)
	return user, nil
}

// Register creates an account and signs it in.
func (r *Repository) Register(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := r.identity.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r.log.Info("registered %s", user.Email)
	return user, nil
}

// SignOut clears the provider session.
func (r *Repository) SignOut() {
	r.identity.SignOut()
	r.log.Info("signed out")
}

// HashNonce returns the hex SHA-256 of raw, the form bound into the token.
func HashNonce(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// verifyNonce checks the token's nonce claim. The signature is checked by
// the identity provider during the exchange, so the token is parsed
// unverified here.
func verifyNonce(idToken, want string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return fmt.Errorf("%w: parsing id token: %w", domain.ErrUnexpectedCredential, err)
	}
	got, _ := claims["nonce"].(string)
	if got != want {
		return domain.ErrNonceMismatch
	}
	return nil
}
