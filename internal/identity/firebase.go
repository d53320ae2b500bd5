package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// DefaultFirebaseBaseURL is the Identity Toolkit v1 REST root.
const DefaultFirebaseBaseURL = "https://identitytoolkit.googleapis.com/v1"

var _ domain.IdentityProvider = (*Firebase)(nil)

// ── Wire types ───────────────────────────────────────────────────

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type idpRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnIdpCredential bool   `json:"returnIdpCredential"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// friendlyErrors maps Identity Toolkit error codes to user-facing text.
var friendlyErrors = map[string]string{
	"EMAIL_NOT_FOUND":             "no account exists for this email",
	"INVALID_PASSWORD":            "the password is incorrect",
	"INVALID_LOGIN_CREDENTIALS":   "the email or password is incorrect",
	"USER_DISABLED":               "this account has been disabled",
	"EMAIL_EXISTS":                "an account already exists for this email",
	"INVALID_EMAIL":               "the email address is badly formatted",
	"WEAK_PASSWORD":               "the password must be at least 6 characters",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too many attempts, try again later",
	"INVALID_IDP_RESPONSE":        "the identity provider rejected the credential",
}

// ProviderError is a rejection reported by the identity backend.
type ProviderError struct {
	Status int
	Code   string
}

func (e *ProviderError) Error() string {
	if msg, ok := friendlyErrors[e.Code]; ok {
		return msg
	}
	// Some codes carry a detail suffix: "WEAK_PASSWORD : Password should be ...".
	for code, msg := range friendlyErrors {
		if strings.HasPrefix(e.Code, code+" ") {
			return msg
		}
	}
	return fmt.Sprintf("identity: %s (status %d)", e.Code, e.Status)
}

// ── Provider ─────────────────────────────────────────────────────

// FirebaseOption configures the Firebase provider.
type FirebaseOption func(*Firebase)

// WithBaseURL points the provider at another Identity Toolkit root.
func WithBaseURL(u string) FirebaseOption {
	return func(f *Firebase) { f.baseURL = u }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) FirebaseOption {
	return func(f *Firebase) { f.http.Timeout = d }
}

// WithSessionFile persists the signed-in user at path so later runs start
// signed in.
func WithSessionFile(path string) FirebaseOption {
	return func(f *Firebase) { f.sessionFile = path }
}

// Firebase talks to the Firebase Identity Toolkit REST API.
type Firebase struct {
	baseURL     string
	apiKey      string
	sessionFile string
	http        *http.Client
	hub         *sessionHub
	log         *logger.Logger
}

// NewFirebase creates a provider for the project that owns apiKey.
func NewFirebase(apiKey string, log *logger.Logger, opts ...FirebaseOption) *Firebase {
	f := &Firebase{
		baseURL: DefaultFirebaseBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(f)
	}
	f.hub = newSessionHub(f.loadSession())
	return f
}

// CurrentUser returns the signed-in user, or nil.
func (f *Firebase) CurrentUser() *domain.User { return f.hub.current() }

// Subscribe registers fn for session changes and calls it once right away.
func (f *Firebase) Subscribe(fn func(*domain.User)) func() { return f.hub.subscribe(fn) }

// SignInWithCredential exchanges a Google ID token for a Firebase session.
func (f *Firebase) SignInWithCredential(ctx context.Context, idToken string) (*domain.User, error) {
	return f.authenticate(ctx, "accounts:signInWithIdp", idpRequest{
		PostBody:            url.Values{"id_token": {idToken}, "providerId": {"google.com"}}.Encode(),
		RequestURI:          "http://localhost",
		ReturnIdpCredential: true,
		ReturnSecureToken:   true,
	})
}

// SignInWithPassword signs in an existing email account.
func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (*domain.User, error) {
	return f.authenticate(ctx, "accounts:signInWithPassword", passwordRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	})
}

// CreateAccount registers a new email account and signs it in.
func (f *Firebase) CreateAccount(ctx context.Context, email, password string) (*domain.User, error) {
	return f.authenticate(ctx, "accounts:signUp", passwordRequest{
		Email: email, Password: password, ReturnSecureToken: true,
	})
}

// SignOut forgets the local session. Firebase ID tokens are stateless, so
// there is nothing to revoke remotely.
func (f *Firebase) SignOut() {
	if f.sessionFile != "" {
		if err := os.Remove(f.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("removing session file: %v", err)
		}
	}
	f.hub.set(nil)
}

func (f *Firebase) authenticate(ctx context.Context, method string, body any) (*domain.User, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal payload: %w", err)
	}

	endpoint := f.baseURL + "/" + method + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("identity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	f.log.Debug("identity: POST %s", method)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("identity: read response: %w", err)
	}
	f.log.Debug("identity: %s -> %d in %s", method, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &ProviderError{Status: resp.StatusCode, Code: apiErr.Error.Message}
		}
		return nil, fmt.Errorf("identity: API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var ar authResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return nil, fmt.Errorf("identity: decode response: %w", err)
	}
	if ar.LocalID == "" {
		return nil, fmt.Errorf("identity: response has no user id")
	}

	user := &domain.User{
		UID:          ar.LocalID,
		Email:        ar.Email,
		DisplayName:  ar.DisplayName,
		PhotoURL:     ar.PhotoURL,
		IDToken:      ar.IDToken,
		RefreshToken: ar.RefreshToken,
	}
	f.saveSession(user)
	f.hub.set(user)
	return user, nil
}

func (f *Firebase) loadSession() *domain.User {
	if f.sessionFile == "" {
		return nil
	}
	data, err := os.ReadFile(f.sessionFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("reading session file: %v", err)
		}
		return nil
	}
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil || user.UID == "" {
		f.log.Warn("ignoring corrupt session file %s", f.sessionFile)
		return nil
	}
	return &user
}

func (f *Firebase) saveSession(user *domain.User) {
	if f.sessionFile == "" {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		f.log.Warn("encoding session: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(f.sessionFile), 0o700); err != nil {
		f.log.Warn("creating session dir: %v", err)
		return
	}
	if err := os.WriteFile(f.sessionFile, data, 0o600); err != nil {
		f.log.Warn("writing session file: %v", err)
	}
}
