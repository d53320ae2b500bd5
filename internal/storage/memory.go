package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/observe"
)

// Compile-time interface check.
var _ domain.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store with the same semantics as SQLiteStore.
// Safe for concurrent access. Used by --offline runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	favs        map[string]domain.Favorite
	recipes     map[int64]domain.UserRecipe
	lastID      int64
	closed      bool
	favorites   *observe.Value[[]domain.Favorite]
	userRecipes *observe.Value[[]domain.UserRecipe]
	log         *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		favs:        make(map[string]domain.Favorite),
		recipes:     make(map[int64]domain.UserRecipe),
		favorites:   observe.NewValue[[]domain.Favorite](nil),
		userRecipes: observe.NewValue[[]domain.UserRecipe](nil),
		log:         log,
	}
}

// SaveFavorite inserts fav or overwrites the one with the same ID.
func (s *MemoryStore) SaveFavorite(ctx context.Context, fav domain.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	if fav.SavedAt.IsZero() {
		fav.SavedAt = time.Now()
	}
	s.log.Debug("saving favorite %s (%q)", fav.ID, fav.Title)
	s.favs[fav.ID] = fav
	s.favorites.Set(s.favoritesLocked())
	return nil
}

// DeleteFavorite removes a favorite by ID. Missing IDs are ignored.
func (s *MemoryStore) DeleteFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	delete(s.favs, id)
	s.log.Debug("deleted favorite %s", id)
	s.favorites.Set(s.favoritesLocked())
	return nil
}

// IsFavorite reports whether id is saved.
func (s *MemoryStore) IsFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, domain.ErrStoreClosed
	}
	_, ok := s.favs[id]
	return ok, nil
}

// ListFavorites returns all favorites, newest first.
func (s *MemoryStore) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	return s.favoritesLocked(), nil
}

// Favorites is the live favorites stream.
func (s *MemoryStore) Favorites() domain.Stream[[]domain.Favorite] { return s.favorites }

// InsertUserRecipe assigns the next LocalID and stores the recipe.
func (s *MemoryStore) InsertUserRecipe(ctx context.Context, fields domain.UserRecipeFields) (domain.UserRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.UserRecipe{}, domain.ErrStoreClosed
	}

	s.lastID++
	now := time.Now()
	rec := domain.UserRecipe{
		LocalID:      s.lastID,
		Title:        fields.Title,
		Category:     fields.Category,
		Area:         fields.Area,
		Instructions: fields.Instructions,
		ThumbnailURI: fields.ThumbnailURI,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.recipes[rec.LocalID] = rec
	s.log.Debug("inserted user recipe %d (%q)", rec.LocalID, rec.Title)
	s.userRecipes.Set(s.userRecipesLocked())
	return rec, nil
}

// UpdateUserRecipe overwrites the stored recipe. CreatedAt is kept.
func (s *MemoryStore) UpdateUserRecipe(ctx context.Context, rec domain.UserRecipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	old, ok := s.recipes[rec.LocalID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.CreatedAt = old.CreatedAt
	rec.UpdatedAt = time.Now()
	s.recipes[rec.LocalID] = rec
	s.log.Debug("updated user recipe %d", rec.LocalID)
	s.userRecipes.Set(s.userRecipesLocked())
	return nil
}

// DeleteUserRecipe removes the recipe. Missing IDs are ignored.
func (s *MemoryStore) DeleteUserRecipe(ctx context.Context, localID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	delete(s.recipes, localID)
	s.log.Debug("deleted user recipe %d", localID)
	s.userRecipes.Set(s.userRecipesLocked())
	return nil
}

// GetUserRecipe retrieves a recipe by LocalID.
func (s *MemoryStore) GetUserRecipe(ctx context.Context, localID int64) (*domain.UserRecipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	rec, ok := s.recipes[localID]
	if !ok {
		s.log.Debug("user recipe not found: %d", localID)
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListUserRecipes returns all user recipes, newest first.
func (s *MemoryStore) ListUserRecipes(ctx context.Context) ([]domain.UserRecipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	return s.userRecipesLocked(), nil
}

// UserRecipes is the live user-recipe stream.
func (s *MemoryStore) UserRecipes() domain.Stream[[]domain.UserRecipe] { return s.userRecipes }

// Close ends both streams.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.favorites.Close()
	s.userRecipes.Close()
	return nil
}

func (s *MemoryStore) favoritesLocked() []domain.Favorite {
	out := make([]domain.Favorite, 0, len(s.favs))
	for _, f := range s.favs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) userRecipesLocked() []domain.UserRecipe {
	out := make([]domain.UserRecipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID > out[j].LocalID })
	return out
}
