package domain

// User is the identity the provider reports after sign-in.
type User struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
}

// AuthStatus tracks where the auth flow currently is.
type AuthStatus int

const (
	AuthLoading AuthStatus = iota
	AuthUnauthenticated
	AuthAuthenticated
	AuthError
)

// String returns a human-readable auth status.
func (s AuthStatus) String() string {
	switch s {
	case AuthLoading:
		return "loading"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAuthenticated:
		return "authenticated"
	case AuthError:
		return "error"
	default:
		return "unknown"
	}
}

// AuthSession is the UI-facing auth state. User is set only when
// Authenticated; Message only when Error.
type AuthSession struct {
	Status  AuthStatus
	User    *User
	Message string
}

// LoadingSession returns the Loading state.
func LoadingSession() AuthSession { return AuthSession{Status: AuthLoading} }

// SignedOutSession returns the Unauthenticated state.
func SignedOutSession() AuthSession { return AuthSession{Status: AuthUnauthenticated} }

// SignedInSession returns the Authenticated state for user.
func SignedInSession(user *User) AuthSession {
	return AuthSession{Status: AuthAuthenticated, User: user}
}

// ErrorSession returns the Error state carrying message.
func ErrorSession(message string) AuthSession {
	return AuthSession{Status: AuthError, Message: message}
}

// CredentialType identifies the kind of credential a CredentialProvider
// returned.
type CredentialType string

// TypeGoogleIDToken is the only federated credential culina accepts.
const TypeGoogleIDToken CredentialType = "com.google.android.libraries.identity.googleid.TYPE_GOOGLE_ID_TOKEN_CREDENTIAL"

// CredentialRequest asks a CredentialProvider for a federated credential.
// Nonce is the hashed nonce to bind into the issued token.
type CredentialRequest struct {
	ClientID string
	Nonce    string
}

// Credential is what the credential provider hands back.
type Credential struct {
	Type CredentialType
	Data map[string]string // "id_token" for TypeGoogleIDToken
}
