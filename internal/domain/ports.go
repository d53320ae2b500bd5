package domain

import "context"

// Stream is a hot, latest-value-only view onto changing state. Subscribers
// get the current value first and afterwards only the newest value.
type Stream[T any] interface {
	Get() T
	Subscribe() (<-chan T, func())
}

// Catalog is the remote read-only recipe catalog. Implementations are
// expected to be fail-soft: network and decode failures come back as empty
// results (or ErrNotFound for single lookups). Callers still treat any
// returned error as an empty result.
type Catalog interface {
	SearchByName(ctx context.Context, query string) ([]Recipe, error)
	FilterByIngredient(ctx context.Context, ingredient string) ([]Recipe, error)
	FilterByCategory(ctx context.Context, category string) ([]Recipe, error)
	LookupByID(ctx context.Context, id string) (*Recipe, error)
	Random(ctx context.Context) (*Recipe, error)
	Categories(ctx context.Context) ([]Category, error)
}

// FavoriteStore persists favorite snapshots keyed by recipe ID.
type FavoriteStore interface {
	// SaveFavorite inserts or replaces the snapshot with the same ID.
	SaveFavorite(ctx context.Context, fav Favorite) error
	// DeleteFavorite removes the snapshot. Missing IDs are not an error.
	DeleteFavorite(ctx context.Context, id string) error
	IsFavorite(ctx context.Context, id string) (bool, error)
	ListFavorites(ctx context.Context) ([]Favorite, error)
	Favorites() Stream[[]Favorite]
}

// UserRecipeStore persists user-authored recipes under store-assigned IDs.
type UserRecipeStore interface {
	InsertUserRecipe(ctx context.Context, fields UserRecipeFields) (UserRecipe, error)
	// UpdateUserRecipe replaces every field except LocalID. Returns
	// ErrNotFound when no row has that LocalID.
	UpdateUserRecipe(ctx context.Context, recipe UserRecipe) error
	// DeleteUserRecipe removes the row. Missing IDs are not an error.
	DeleteUserRecipe(ctx context.Context, localID int64) error
	// GetUserRecipe returns ErrNotFound when absent.
	GetUserRecipe(ctx context.Context, localID int64) (*UserRecipe, error)
	ListUserRecipes(ctx context.Context) ([]UserRecipe, error)
	UserRecipes() Stream[[]UserRecipe]
}

// Store is the local persistent store: favorites plus user recipes.
// Implementations can be in-memory, SQLite, or any other backend.
type Store interface {
	FavoriteStore
	UserRecipeStore
	Close() error
}

// IdentityProvider is the backend that owns accounts and sessions.
type IdentityProvider interface {
	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *User
	// Subscribe registers fn for every session change and returns an
	// unsubscribe func. fn is called once immediately with CurrentUser().
	Subscribe(fn func(*User)) func()
	SignInWithCredential(ctx context.Context, idToken string) (*User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*User, error)
	CreateAccount(ctx context.Context, email, password string) (*User, error)
	SignOut()
}

// CredentialProvider obtains a federated credential from the platform.
type CredentialProvider interface {
	GetCredential(ctx context.Context, req CredentialRequest) (*Credential, error)
}

// RecipeImporter turns a web page into a user recipe payload.
type RecipeImporter interface {
	Import(ctx context.Context, pageURL string) (UserRecipeFields, error)
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or a terminal UI.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
