package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

func quietLog() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

type fakeToolkit struct {
	mu       sync.Mutex
	requests map[string]map[string]any
}

func newFakeToolkit(t *testing.T) (*fakeToolkit, *httptest.Server) {
	t.Helper()
	fk := &fakeToolkit{requests: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"API key not valid."}}`))
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		method := strings.TrimPrefix(r.URL.Path, "/")
		fk.mu.Lock()
		fk.requests[method] = body
		fk.mu.Unlock()

		switch {
		case method == "accounts:signInWithPassword" && body["password"] == "secret":
			w.Write([]byte(`{"localId":"uid-1","email":"cook@example.com","idToken":"tok","refreshToken":"ref"}`))
		case method == "accounts:signInWithPassword":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
		case method == "accounts:signUp" && body["email"] == "taken@example.com":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_EXISTS"}}`))
		case method == "accounts:signUp":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`))
		case method == "accounts:signInWithIdp":
			w.Write([]byte(`{"localId":"uid-g","email":"g@example.com","displayName":"G","photoUrl":"https://p/g.png","idToken":"tok-g"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return fk, srv
}

func TestFirebasePasswordSignIn(t *testing.T) {
	_, srv := newFakeToolkit(t)
	fb := NewFirebase("api-key", quietLog(), WithBaseURL(srv.URL))

	var seen []*domain.User
	cancel := fb.Subscribe(func(u *domain.User) { seen = append(seen, u) })
	defer cancel()

	user, err := fb.SignInWithPassword(context.Background(), "cook@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "ref", user.RefreshToken)
	assert.Equal(t, user, fb.CurrentUser())

	fb.SignOut()
	assert.Nil(t, fb.CurrentUser())
	require.Len(t, seen, 3)
	assert.Nil(t, seen[0])
	assert.Equal(t, "uid-1", seen[1].UID)
	assert.Nil(t, seen[2])
}

func TestFirebaseErrorsAreReadable(t *testing.T) {
	_, srv := newFakeToolkit(t)
	fb := NewFirebase("api-key", quietLog(), WithBaseURL(srv.URL))
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"wrong password", func() error {
			_, err := fb.SignInWithPassword(ctx, "cook@example.com", "nope")
			return err
		}, "the email or password is incorrect"},
		{"email taken", func() error {
			_, err := fb.CreateAccount(ctx, "taken@example.com", "secret")
			return err
		}, "an account already exists for this email"},
		{"weak password with detail", func() error {
			_, err := fb.CreateAccount(ctx, "new@example.com", "123")
			return err
		}, "the password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.want, err.Error())
			assert.Nil(t, fb.CurrentUser())
		})
	}

	bad := NewFirebase("wrong-key", quietLog(), WithBaseURL(srv.URL))
	_, err := bad.SignInWithPassword(ctx, "cook@example.com", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestFirebaseIdpSendsToken(t *testing.T) {
	fk, srv := newFakeToolkit(t)
	fb := NewFirebase("api-key", quietLog(), WithBaseURL(srv.URL))

	user, err := fb.SignInWithCredential(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "https://p/g.png", user.PhotoURL)

	fk.mu.Lock()
	body := fk.requests["accounts:signInWithIdp"]
	fk.mu.Unlock()
	post, err := url.ParseQuery(body["postBody"].(string))
	require.NoError(t, err)
	assert.Equal(t, "google-id-token", post.Get("id_token"))
	assert.Equal(t, "google.com", post.Get("providerId"))
}

func TestFirebaseSessionFile(t *testing.T) {
	_, srv := newFakeToolkit(t)
	path := filepath.Join(t.TempDir(), "session", "user.json")

	fb := NewFirebase("api-key", quietLog(), WithBaseURL(srv.URL), WithSessionFile(path))
	_, err := fb.SignInWithPassword(context.Background(), "cook@example.com", "secret")
	require.NoError(t, err)

	again := NewFirebase("api-key", quietLog(), WithBaseURL(srv.URL), WithSessionFile(path))
	require.NotNil(t, again.CurrentUser())
	assert.Equal(t, "uid-1", again.CurrentUser().UID)

	again.SignOut()
	third := NewFirebase("api-key", quietLog(), WithSessionFile(path))
	assert.Nil(t, third.CurrentUser())
}

func TestMemoryProvider(t *testing.T) {
	m := NewMemory(quietLog())
	ctx := context.Background()

	_, err := m.SignInWithPassword(ctx, "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	created, err := m.CreateAccount(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, created, m.CurrentUser())

	_, err = m.CreateAccount(ctx, "A@example.com", "other")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	m.SignOut()
	assert.Nil(t, m.CurrentUser())

	user, err := m.SignInWithPassword(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.UID, user.UID)

	tok := signedToken(t, jwt.MapClaims{"sub": "123", "email": "g@example.com", "name": "Gee"})
	guser, err := m.SignInWithCredential(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "google:123", guser.UID)
	assert.Equal(t, "Gee", guser.DisplayName)

	_, err = m.SignInWithCredential(ctx, "not-a-jwt")
	assert.Error(t, err)
}

func TestGoogleCredentials(t *testing.T) {
	idToken := signedToken(t, jwt.MapClaims{"sub": "1", "nonce": "hashed-nonce"})
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("code") != "the-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	defer tokenSrv.Close()

	var shownURL string
	prompt := func(_ context.Context, authURL string) (string, error) {
		shownURL = authURL
		return "the-code", nil
	}
	g := NewGoogleCredentials("client-id", "secret", "http://localhost/callback", prompt, quietLog(),
		WithEndpoint(oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: tokenSrv.URL}))

	cred, err := g.GetCredential(context.Background(), domain.CredentialRequest{Nonce: "hashed-nonce"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeGoogleIDToken, cred.Type)
	assert.Equal(t, idToken, cred.Data["id_token"])

	u, err := url.Parse(shownURL)
	require.NoError(t, err)
	assert.Equal(t, "hashed-nonce", u.Query().Get("nonce"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "openid")

	cancelled := NewGoogleCredentials("client-id", "secret", "", func(context.Context, string) (string, error) {
		return "", nil
	}, quietLog(), WithEndpoint(oauth2.Endpoint{TokenURL: tokenSrv.URL}))
	_, err = cancelled.GetCredential(context.Background(), domain.CredentialRequest{Nonce: "n"})
	assert.ErrorContains(t, err, "cancelled")
}
