package engine

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/recipes"
)

// IsFavorite reports whether id is saved. Store failures read as false.
func (e *Engine) IsFavorite(ctx context.Context, id string) bool {
	return e.resolver.IsFavorite(ctx, id)
}

// AddFavoriteFromRecipe snapshots recipe into the favorites. Saving the
// same ID again replaces the earlier snapshot.
func (e *Engine) AddFavoriteFromRecipe(recipe domain.Recipe) {
	fav := recipes.FavoriteFromRecipe(recipe)
	e.spawn("add-favorite", func(ctx context.Context) {
		if err := e.store.SaveFavorite(ctx, fav); err != nil {
			e.log.Error("saving favorite %s: %v", fav.ID, err)
			return
		}
		e.log.Info("favorited %s (%q)", fav.ID, fav.Title)
	})
}

// RemoveFavorite deletes the favorite with id, if any.
func (e *Engine) RemoveFavorite(id string) {
	e.spawn("remove-favorite", func(ctx context.Context) {
		if err := e.store.DeleteFavorite(ctx, id); err != nil {
			e.log.Error("removing favorite %s: %v", id, err)
			return
		}
		e.log.Info("unfavorited %s", id)
	})
}

// AddUserRecipe stores a new user recipe. The store assigns its ID.
func (e *Engine) AddUserRecipe(fields domain.UserRecipeFields) {
	e.spawn("add-user-recipe", func(ctx context.Context) {
		e.insertUserRecipe(ctx, fields)
	})
}

// UpdateUserRecipe replaces every field of rec except its LocalID.
func (e *Engine) UpdateUserRecipe(rec domain.UserRecipe) {
	e.spawn("update-user-recipe", func(ctx context.Context) {
		if err := e.store.UpdateUserRecipe(ctx, rec); err != nil {
			e.log.Error("updating user recipe %d: %v", rec.LocalID, err)
			return
		}
		e.log.Info("updated user recipe %d (%q)", rec.LocalID, rec.Title)
	})
}

// DeleteUserRecipe removes rec from the store.
func (e *Engine) DeleteUserRecipe(rec domain.UserRecipe) {
	e.spawn("delete-user-recipe", func(ctx context.Context) {
		if err := e.store.DeleteUserRecipe(ctx, rec.LocalID); err != nil {
			e.log.Error("deleting user recipe %d: %v", rec.LocalID, err)
			return
		}
		e.log.Info("deleted user recipe %d", rec.LocalID)
	})
}

// ImportUserRecipe fetches pageURL, extracts a recipe from it and stores
// it as a user recipe.
func (e *Engine) ImportUserRecipe(pageURL string) {
	if e.importer == nil {
		e.log.Warn("import %s: %v", pageURL, fmt.Errorf("no importer configured: %w", domain.ErrNotImplemented))
		return
	}
	e.spawn("import", func(ctx context.Context) {
		done := e.beginLoading()
		defer done()

		qctx, cancel := e.queryContext(ctx)
		defer cancel()

		fields, err := e.importer.Import(qctx, pageURL)
		if err != nil {
			e.log.Warn("import %s: %v", pageURL, err)
			return
		}
		e.insertUserRecipe(ctx, fields)
	})
}

func (e *Engine) insertUserRecipe(ctx context.Context, fields domain.UserRecipeFields) {
	rec, err := e.store.InsertUserRecipe(ctx, fields)
	if err != nil {
		e.log.Error("adding user recipe %q: %v", fields.Title, err)
		return
	}
	e.log.Info("added user recipe %s (%q)", rec.UnifiedID(), rec.Title)
}
