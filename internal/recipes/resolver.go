// Package recipes unifies catalog and user-authored recipes behind one ID
// namespace. A bare ID is a catalog ID; "user_<n>" is a local recipe.
package recipes

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

// DefaultFavoriteTitle is used when a favorited recipe has no name.
const DefaultFavoriteTitle = "No Title"

// Resolver answers "give me recipe X regardless of origin".
type Resolver struct {
	catalog domain.Catalog
	store   domain.Store
	log     *logger.Logger
}

// NewResolver creates a resolver over the given catalog and local store.
func NewResolver(catalog domain.Catalog, store domain.Store, log *logger.Logger) *Resolver {
	return &Resolver{catalog: catalog, store: store, log: log}
}

// Resolve looks id up in whichever source owns it. Every failure comes back
// wrapping domain.ErrNotFound; Resolve never panics on bad input.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.Recipe, error) {
	localID, isUser, err := domain.ParseUserRecipeID(id)
	if err != nil {
		r.log.Warn("resolve %q: %v", id, err)
		return nil, notFound(id, err)
	}

	if isUser {
		rec, err := r.store.GetUserRecipe(ctx, localID)
		if err != nil {
			r.log.Debug("resolve %q: %v", id, err)
			return nil, notFound(id, err)
		}
		recipe := ToUnified(*rec)
		return &recipe, nil
	}

	recipe, err := r.catalog.LookupByID(ctx, id)
	if err != nil {
		r.log.Debug("resolve %q: %v", id, err)
		return nil, notFound(id, err)
	}
	if recipe == nil {
		return nil, notFound(id, nil)
	}
	return recipe, nil
}

// IsFavorite reports whether id is saved. Store failures read as false.
func (r *Resolver) IsFavorite(ctx context.Context, id string) bool {
	ok, err := r.store.IsFavorite(ctx, id)
	if err != nil {
		r.log.Warn("favorite check for %s failed: %v", id, err)
		return false
	}
	return ok
}

// ToUnified maps a user recipe into the shared Recipe shape.
func ToUnified(u domain.UserRecipe) domain.Recipe {
	return domain.Recipe{
		ID:           u.UnifiedID(),
		Name:         u.Title,
		Category:     u.Category,
		Area:         u.Area,
		Instructions: u.Instructions,
		ThumbnailURL: u.ThumbnailURI,
	}
}

// FavoriteFromRecipe snapshots the recipe's current fields.
func FavoriteFromRecipe(r domain.Recipe) domain.Favorite {
	title := r.Name
	if title == "" {
		title = DefaultFavoriteTitle
	}
	return domain.Favorite{
		ID:           r.ID,
		Title:        title,
		ThumbnailURL: r.ThumbnailURL,
		Category:     r.Category,
		Area:         r.Area,
		Instructions: r.Instructions,
	}
}

// RecipeFromFavorite rebuilds a viewable recipe from a stored snapshot, for
// when the source is gone.
func RecipeFromFavorite(f domain.Favorite) domain.Recipe {
	return domain.Recipe{
		ID:           f.ID,
		Name:         f.Title,
		Category:     f.Category,
		Area:         f.Area,
		Instructions: f.Instructions,
		ThumbnailURL: f.ThumbnailURL,
	}
}

func notFound(id string, cause error) error {
	if cause == nil {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	if errors.Is(cause, domain.ErrNotFound) {
		return fmt.Errorf("recipe %s: %w", id, cause)
	}
	return fmt.Errorf("recipe %s: %w: %w", id, domain.ErrNotFound, cause)
}
