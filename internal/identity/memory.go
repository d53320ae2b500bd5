package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

var _ domain.IdentityProvider = (*Memory)(nil)

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = errors.New("the email or password is incorrect")

// Memory is an in-process identity provider for offline runs and tests.
// Accounts live only as long as the process.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]memoryAccount // keyed by lower-cased email
	hub      *sessionHub
	log      *logger.Logger
}

type memoryAccount struct {
	password string
	user     domain.User
}

// NewMemory creates an empty provider with nobody signed in.
func NewMemory(log *logger.Logger) *Memory {
	return &Memory{
		accounts: make(map[string]memoryAccount),
		hub:      newSessionHub(nil),
		log:      log,
	}
}

// CurrentUser returns the signed-in user, or nil.
func (m *Memory) CurrentUser() *domain.User { return m.hub.current() }

// Subscribe registers fn for session changes and calls it once right away.
func (m *Memory) Subscribe(fn func(*domain.User)) func() { return m.hub.subscribe(fn) }

// SignInWithCredential trusts the token's email and sub claims. The token
// is not verified.
func (m *Memory) SignInWithCredential(ctx context.Context, idToken string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("identity: parsing id token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, fmt.Errorf("identity: id token has no subject")
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	user := &domain.User{
		UID:         "google:" + sub,
		Email:       email,
		DisplayName: name,
		PhotoURL:    picture,
		IDToken:     idToken,
	}
	m.hub.set(user)
	return user, nil
}

// SignInWithPassword signs in an account created with CreateAccount.
func (m *Memory) SignInWithPassword(ctx context.Context, email, password string) (*domain.User, error) {
	m.mu.Lock()
	acct, ok := m.accounts[strings.ToLower(email)]
	m.mu.Unlock()
	if !ok || acct.password != password {
		return nil, ErrInvalidCredentials
	}
	user := acct.user
	m.hub.set(&user)
	return &user, nil
}

// CreateAccount registers email and signs it in.
func (m *Memory) CreateAccount(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	key := strings.ToLower(email)
	m.mu.Lock()
	if _, exists := m.accounts[key]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("identity: %s: %w", email, domain.ErrAlreadyExists)
	}
	acct := memoryAccount{
		password: password,
		user:     domain.User{UID: uuid.NewString(), Email: email},
	}
	m.accounts[key] = acct
	m.mu.Unlock()

	m.log.Debug("created account %s", email)
	user := acct.user
	m.hub.set(&user)
	return &user, nil
}

// SignOut clears the current user.
func (m *Memory) SignOut() { m.hub.set(nil) }
