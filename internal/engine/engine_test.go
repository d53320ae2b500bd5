package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/culina/internal/catalog"
	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/storage"
)

// stubCatalog answers from function fields; nil fields give empty results.
type stubCatalog struct {
	mu         sync.Mutex
	categories []string // FilterByCategory calls, in order

	search   func(ctx context.Context, q string) ([]domain.Recipe, error)
	category map[string][]domain.Recipe
}

func (c *stubCatalog) SearchByName(ctx context.Context, q string) ([]domain.Recipe, error) {
	if c.search == nil {
		return nil, nil
	}
	return c.search(ctx, q)
}

func (c *stubCatalog) FilterByIngredient(ctx context.Context, i string) ([]domain.Recipe, error) {
	return c.SearchByName(ctx, i)
}

func (c *stubCatalog) FilterByCategory(_ context.Context, name string) ([]domain.Recipe, error) {
	c.mu.Lock()
	c.categories = append(c.categories, name)
	c.mu.Unlock()
	return c.category[name], nil
}

func (c *stubCatalog) LookupByID(context.Context, string) (*domain.Recipe, error) {
	return nil, domain.ErrNotFound
}

func (c *stubCatalog) Random(context.Context) (*domain.Recipe, error) {
	return nil, domain.ErrNotFound
}

func (c *stubCatalog) Categories(context.Context) ([]domain.Category, error) {
	return nil, errors.New("offline")
}

func (c *stubCatalog) calledCategories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.categories...)
}

func meals(prefix string, n int) []domain.Recipe {
	out := make([]domain.Recipe, n)
	for i := range out {
		out[i] = domain.Recipe{ID: fmt.Sprintf("%s-%d", prefix, i), Name: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

func setupEngine(t *testing.T, cat domain.Catalog, opts ...Option) *Engine {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	if cat == nil {
		cat = catalog.NewMemory(log)
	}
	store := storage.NewMemoryStore(log)
	eng := New(cat, store, log, opts...)
	t.Cleanup(func() {
		eng.Close()
		store.Close()
	})
	return eng
}

func TestLoadDefaultMealsFallsThroughEmptyCategories(t *testing.T) {
	chicken := meals("chicken", 12)
	cat := &stubCatalog{category: map[string][]domain.Recipe{
		"Seafood": {},
		"Chicken": chicken,
		"Beef":    meals("beef", 3),
	}}
	eng := setupEngine(t, cat)

	eng.LoadDefaultMeals()
	eng.Wait()

	assert.Equal(t, chicken[:10], eng.SearchResults.Get())
	assert.Equal(t, []string{"Seafood", "Chicken"}, cat.calledCategories())
	assert.False(t, eng.Loading.Get())
}

func TestLoadDefaultMealsAllEmpty(t *testing.T) {
	cat := &stubCatalog{}
	eng := setupEngine(t, cat, WithDefaultCategories([]string{"A", "B"}), WithDefaultLimit(3))

	eng.SearchResults.Set(meals("stale", 2))
	eng.LoadDefaultMeals()
	eng.Wait()

	got := eng.SearchResults.Get()
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []string{"A", "B"}, cat.calledCategories())
}

func TestLoadingResetsOnEveryExitPath(t *testing.T) {
	tests := []struct {
		name   string
		search func(ctx context.Context, q string) ([]domain.Recipe, error)
		want   int
	}{
		{"success", func(context.Context, string) ([]domain.Recipe, error) { return meals("m", 2), nil }, 2},
		{"error", func(context.Context, string) ([]domain.Recipe, error) { return nil, errors.New("502") }, 0},
		{"panic", func(context.Context, string) ([]domain.Recipe, error) { panic("client bug") }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := setupEngine(t, &stubCatalog{search: tt.search})
			eng.SearchResults.Set(meals("old", 5))

			eng.Search("anything")
			eng.Wait()
			assert.False(t, eng.Loading.Get())
			assert.Len(t, eng.SearchResults.Get(), tt.want)

			eng.SearchByIngredient("anything")
			eng.Wait()
			assert.False(t, eng.Loading.Get())
		})
	}
}

func TestLoadingIsTrueWhileQueryRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	eng := setupEngine(t, &stubCatalog{search: func(context.Context, string) ([]domain.Recipe, error) {
		close(started)
		<-release
		return nil, nil
	}})

	eng.Search("slow")
	<-started
	assert.True(t, eng.Loading.Get())
	close(release)
	eng.Wait()
	assert.False(t, eng.Loading.Get())
}

func TestStaleSearchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	eng := setupEngine(t, &stubCatalog{search: func(_ context.Context, q string) ([]domain.Recipe, error) {
		if q == "first" {
			close(firstStarted)
			<-release
			return meals("first", 3), nil
		}
		return meals("second", 1), nil
	}})

	eng.Search("first")
	<-firstStarted
	eng.Search("second")

	require.Eventually(t, func() bool {
		return len(eng.SearchResults.Get()) == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	eng.Wait()
	assert.Equal(t, meals("second", 1), eng.SearchResults.Get())
}

func TestQueryTimeoutReleasesLoading(t *testing.T) {
	eng := setupEngine(t, &stubCatalog{search: func(ctx context.Context, _ string) ([]domain.Recipe, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}, WithQueryTimeout(20*time.Millisecond))

	eng.Search("hangs")
	eng.Wait()
	assert.False(t, eng.Loading.Get())
	assert.Empty(t, eng.SearchResults.Get())
}

func TestNonPositiveQueryTimeoutIsUnbounded(t *testing.T) {
	for _, d := range []time.Duration{0, -1} {
		t.Run(d.String(), func(t *testing.T) {
			deadlines := make(chan bool, 1)
			eng := setupEngine(t, &stubCatalog{search: func(ctx context.Context, _ string) ([]domain.Recipe, error) {
				_, ok := ctx.Deadline()
				deadlines <- ok
				return meals("soup", 1), nil
			}}, WithQueryTimeout(d))

			eng.Search("soup")
			eng.Wait()
			assert.False(t, <-deadlines)
			assert.Len(t, eng.SearchResults.Get(), 1)
		})
	}
}

func TestFavorites(t *testing.T) {
	eng := setupEngine(t, nil)
	ctx := context.Background()
	recipe := domain.Recipe{ID: "52772", Name: "Teriyaki", Category: "Chicken"}

	eng.AddFavoriteFromRecipe(recipe)
	eng.Wait()
	assert.True(t, eng.IsFavorite(ctx, "52772"))

	recipe.Name = "Teriyaki Chicken Casserole"
	eng.AddFavoriteFromRecipe(recipe)
	eng.Wait()

	favs := eng.Favorites().Get()
	require.Len(t, favs, 1)
	assert.Equal(t, "Teriyaki Chicken Casserole", favs[0].Title)

	eng.RemoveFavorite("52772")
	eng.RemoveFavorite("never-saved")
	eng.Wait()
	assert.False(t, eng.IsFavorite(ctx, "52772"))
	assert.Empty(t, eng.Favorites().Get())
}

func TestUserRecipeScenario(t *testing.T) {
	eng := setupEngine(t, nil)

	eng.AddUserRecipe(domain.UserRecipeFields{Title: "Soup"})
	eng.Wait()

	recs := eng.UserRecipes().Get()
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].LocalID)

	eng.LoadRecipeDetails("user_1")
	eng.Wait()
	got := eng.SelectedRecipe.Get()
	require.NotNil(t, got)
	assert.Equal(t, "user_1", got.ID)
	assert.Equal(t, "Soup", got.Name)

	edited := recs[0]
	edited.Title = "Miso Soup"
	eng.UpdateUserRecipe(edited)
	eng.Wait()
	assert.Equal(t, "Miso Soup", eng.UserRecipes().Get()[0].Title)

	eng.DeleteUserRecipe(edited)
	eng.Wait()
	eng.LoadRecipeDetails("user_1")
	eng.Wait()
	assert.Nil(t, eng.SelectedRecipe.Get())
}

func TestLoadRecipeDetailsClearsOnFailure(t *testing.T) {
	eng := setupEngine(t, nil)

	eng.LoadRecipeDetails("52772")
	eng.Wait()
	require.NotNil(t, eng.SelectedRecipe.Get())

	for _, id := range []string{"user_abc", "user_", "unknown-id"} {
		eng.LoadRecipeDetails(id)
		eng.Wait()
		assert.Nil(t, eng.SelectedRecipe.Get(), id)
		assert.False(t, eng.Loading.Get())
	}
}

func TestLoadRandomMeal(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	cat := catalog.NewEmptyMemory(log)
	cat.Put(domain.Recipe{ID: "1", Name: "Only", Category: "Misc"})
	eng := setupEngine(t, cat)

	eng.LoadRandomMeal()
	eng.Wait()
	require.NotNil(t, eng.SelectedRecipe.Get())
	assert.Equal(t, "1", eng.SelectedRecipe.Get().ID)
}

func TestStartLoadsMealsAndCategories(t *testing.T) {
	eng := setupEngine(t, nil)

	require.NoError(t, eng.Start(context.Background()))
	results := eng.SearchResults.Get()
	require.Len(t, results, 1)
	assert.Equal(t, "Seafood", results[0].Category)
	assert.Len(t, eng.Categories.Get(), 4)
	assert.False(t, eng.Loading.Get())
}

func TestCategoriesFailSoft(t *testing.T) {
	eng := setupEngine(t, &stubCatalog{})

	eng.LoadCategories()
	eng.Wait()
	got := eng.Categories.Get()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCloseAbandonsInFlightTasks(t *testing.T) {
	started := make(chan struct{})
	eng := setupEngine(t, &stubCatalog{search: func(ctx context.Context, _ string) ([]domain.Recipe, error) {
		close(started)
		<-ctx.Done()
		return meals("late", 4), nil
	}}, WithQueryTimeout(0))

	eng.Search("blocked")
	<-started
	eng.Close()

	assert.Nil(t, eng.SearchResults.Get(), "no publish after close")

	eng.Search("after close")
	eng.AddUserRecipe(domain.UserRecipeFields{Title: "dropped"})
	eng.Wait()
	assert.Empty(t, eng.UserRecipes().Get())
}

type stubImporter struct {
	fields domain.UserRecipeFields
	err    error
}

func (s stubImporter) Import(context.Context, string) (domain.UserRecipeFields, error) {
	return s.fields, s.err
}

func TestImportUserRecipe(t *testing.T) {
	eng := setupEngine(t, nil, WithImporter(stubImporter{fields: domain.UserRecipeFields{
		Title:        "Shakshuka",
		Instructions: "Simmer tomatoes, crack eggs.",
	}}))

	eng.ImportUserRecipe("https://example.com/shakshuka")
	eng.Wait()
	recs := eng.UserRecipes().Get()
	require.Len(t, recs, 1)
	assert.Equal(t, "Shakshuka", recs[0].Title)

	failing := setupEngine(t, nil, WithImporter(stubImporter{err: errors.New("403")}))
	failing.ImportUserRecipe("https://example.com/blocked")
	failing.Wait()
	assert.Empty(t, failing.UserRecipes().Get())
	assert.False(t, failing.Loading.Get())

	none := setupEngine(t, nil)
	none.ImportUserRecipe("https://example.com/x")
	none.Wait()
	assert.Empty(t, none.UserRecipes().Get())
}

func TestLoadRecipeDetailsFallsBackToFavorite(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	cat := catalog.NewEmptyMemory(log)
	pie := domain.Recipe{ID: "77", Name: "Pork Pie", Category: "Pork", Area: "British", Instructions: "Bake."}
	cat.Put(pie)
	eng := setupEngine(t, cat)

	eng.AddFavoriteFromRecipe(pie)
	eng.Wait()
	require.Len(t, eng.Favorites().Get(), 1)

	cat.Delete("77")
	tests := []struct {
		id       string
		wantName string
	}{
		{"77", "Pork Pie"},
		{"78", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			eng.LoadRecipeDetails(tt.id)
			eng.Wait()
			got := eng.SelectedRecipe.Get()
			if tt.wantName == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.id, got.ID)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, "Bake.", got.Instructions)
		})
	}
}
