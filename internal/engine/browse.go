package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/recipes"
)

type listQuery func(ctx context.Context) ([]domain.Recipe, error)

// Start performs the initial load: default meals and categories, fetched
// concurrently. It blocks until both have published and only returns an
// error if ctx is cancelled first.
func (e *Engine) Start(ctx context.Context) error {
	gen := e.searchGen.Add(1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.loadDefaultMeals(gctx, gen)
		return gctx.Err()
	})
	g.Go(func() error {
		e.loadCategories(gctx)
		return gctx.Err()
	})
	return g.Wait()
}

// Search replaces the results with catalog meals whose name matches query.
func (e *Engine) Search(query string) {
	e.runSearch("search", func(ctx context.Context) ([]domain.Recipe, error) {
		return e.catalog.SearchByName(ctx, query)
	})
}

// SearchByIngredient replaces the results with meals using ingredient.
func (e *Engine) SearchByIngredient(ingredient string) {
	e.runSearch("search-ingredient", func(ctx context.Context) ([]domain.Recipe, error) {
		return e.catalog.FilterByIngredient(ctx, ingredient)
	})
}

// SearchByCategory replaces the results with meals in category.
func (e *Engine) SearchByCategory(category string) {
	e.runSearch("search-category", func(ctx context.Context) ([]domain.Recipe, error) {
		return e.catalog.FilterByCategory(ctx, category)
	})
}

// LoadDefaultMeals fills the results from the first fallback category that
// has any meals, capped at the default limit.
func (e *Engine) LoadDefaultMeals() {
	gen := e.searchGen.Add(1)
	e.spawn("default-meals", func(ctx context.Context) {
		e.loadDefaultMeals(ctx, gen)
	})
}

// LoadCategories refreshes the category list.
func (e *Engine) LoadCategories() {
	e.spawn("categories", e.loadCategories)
}

// LoadRecipeDetails resolves id from whichever source owns it and selects
// it. When the source no longer has it but it is a favorite, the saved
// snapshot is shown instead. Any other failure clears the selection.
func (e *Engine) LoadRecipeDetails(id string) {
	gen := e.detailGen.Add(1)
	e.spawn("details", func(ctx context.Context) {
		done := e.beginLoading()
		defer done()

		qctx, cancel := e.queryContext(ctx)
		defer cancel()

		recipe, err := e.resolver.Resolve(qctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			recipe = e.favoriteSnapshot(qctx, id)
		}
		if err != nil && recipe == nil {
			e.log.Info("recipe %s unavailable: %v", id, err)
		}
		e.publishSelected(gen, recipe)
	})
}

// favoriteSnapshot rebuilds id from its stored favorite, or returns nil.
func (e *Engine) favoriteSnapshot(ctx context.Context, id string) *domain.Recipe {
	favs, err := e.store.ListFavorites(ctx)
	if err != nil {
		e.log.Warn("favorite fallback for %s: %v", id, err)
		return nil
	}
	for _, f := range favs {
		if f.ID == id {
			e.log.Info("recipe %s gone from its source; showing saved favorite", id)
			r := recipes.RecipeFromFavorite(f)
			return &r
		}
	}
	return nil
}

// LoadRandomMeal selects one random catalog meal.
func (e *Engine) LoadRandomMeal() {
	gen := e.detailGen.Add(1)
	e.spawn("random", func(ctx context.Context) {
		done := e.beginLoading()
		defer done()

		qctx, cancel := e.queryContext(ctx)
		defer cancel()

		recipe, err := e.catalog.Random(qctx)
		if err != nil {
			e.log.Warn("random meal: %v", err)
			recipe = nil
		}
		e.publishSelected(gen, recipe)
	})
}

// ClearSelection drops the selected recipe.
func (e *Engine) ClearSelection() {
	e.publishSelected(e.detailGen.Add(1), nil)
}

func (e *Engine) runSearch(name string, query listQuery) {
	gen := e.searchGen.Add(1)
	e.spawn(name, func(ctx context.Context) {
		done := e.beginLoading()
		defer done()

		e.publishResults(gen, e.fetch(ctx, name, query))
	})
}

func (e *Engine) loadDefaultMeals(ctx context.Context, gen uint64) {
	done := e.beginLoading()
	defer done()

	for _, cat := range e.defaultCategories {
		if ctx.Err() != nil {
			return
		}
		meals := e.fetch(ctx, "category "+cat, func(ctx context.Context) ([]domain.Recipe, error) {
			return e.catalog.FilterByCategory(ctx, cat)
		})
		if len(meals) == 0 {
			e.log.Debug("default category %s is empty, trying next", cat)
			continue
		}
		if len(meals) > e.defaultLimit {
			meals = meals[:e.defaultLimit]
		}
		e.log.Info("loaded %d default meals from %s", len(meals), cat)
		e.publishResults(gen, meals)
		return
	}

	e.log.Warn("no default meals in any of %v", e.defaultCategories)
	e.publishResults(gen, []domain.Recipe{})
}

func (e *Engine) loadCategories(ctx context.Context) {
	qctx, cancel := e.queryContext(ctx)
	defer cancel()

	cats, err := e.catalog.Categories(qctx)
	if err != nil {
		e.log.Warn("loading categories: %v", err)
		cats = nil
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	if !e.alive() {
		return
	}
	e.Categories.Set(cats)
}

// fetch runs query under the per-query timeout. Errors and panics in the
// catalog become an empty result.
func (e *Engine) fetch(ctx context.Context, name string, query listQuery) (meals []domain.Recipe) {
	qctx, cancel := e.queryContext(ctx)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("%s panicked: %v", name, r)
			meals = []domain.Recipe{}
		}
	}()

	meals, err := query(qctx)
	if err != nil {
		e.log.Warn("%s failed: %v", name, err)
		return []domain.Recipe{}
	}
	if meals == nil {
		meals = []domain.Recipe{}
	}
	return meals
}

func (e *Engine) publishResults(gen uint64, meals []domain.Recipe) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	if !e.alive() {
		return
	}
	if gen != e.searchGen.Load() {
		e.log.Debug("discarding stale results (gen %d)", gen)
		return
	}
	e.SearchResults.Set(meals)
}

func (e *Engine) publishSelected(gen uint64, recipe *domain.Recipe) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	if !e.alive() {
		return
	}
	if gen != e.detailGen.Load() {
		e.log.Debug("discarding stale selection (gen %d)", gen)
		return
	}
	e.SelectedRecipe.Set(recipe)
}
