// Package engine implements the application state controller: the single
// mutable state surface the UI observes and drives.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/observe"
	"github.com/hammamikhairi/culina/internal/recipes"
)

// DefaultCategories are tried in order by LoadDefaultMeals.
var DefaultCategories = []string{"Seafood", "Chicken", "Beef", "Dessert", "Vegetarian"}

// DefaultLimit caps the default meal list.
const DefaultLimit = 10

// DefaultQueryTimeout bounds a single catalog or import call.
const DefaultQueryTimeout = 15 * time.Second

// Option configures the engine.
type Option func(*Engine)

// WithDefaultCategories overrides the fallback category list.
func WithDefaultCategories(cats []string) Option {
	return func(e *Engine) {
		if len(cats) > 0 {
			e.defaultCategories = append([]string(nil), cats...)
		}
	}
}

// WithDefaultLimit sets how many default meals are kept.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithQueryTimeout bounds every remote call. Zero or a negative d
// disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.queryTimeout = d
	}
}

// WithImporter enables ImportUserRecipe.
func WithImporter(imp domain.RecipeImporter) Option {
	return func(e *Engine) {
		e.importer = imp
	}
}

// Engine holds search results, the loading flag, categories and the
// selected recipe. Every operation is fire-and-forget: it spawns a task
// bound to the engine's lifetime and returns immediately. Failures are
// logged and turn into empty state, never into errors for the caller.
type Engine struct {
	catalog  domain.Catalog
	store    domain.Store
	resolver *recipes.Resolver
	importer domain.RecipeImporter
	log      *logger.Logger

	defaultCategories []string
	defaultLimit      int
	queryTimeout      time.Duration

	// SearchResults is replaced wholesale by every search, filter or browse.
	SearchResults *observe.Value[[]domain.Recipe]
	// Loading is true while any remote query is in flight.
	Loading *observe.Value[bool]
	// Categories is the catalog's category list, empty on failure.
	Categories *observe.Value[[]domain.Category]
	// SelectedRecipe is the recipe being viewed, nil when resolution failed.
	SelectedRecipe *observe.Value[*domain.Recipe]

	loadMu   sync.Mutex
	inflight int

	// Search-family calls and detail loads each bump a generation; a
	// completion only publishes if it is still the newest.
	pubMu     sync.Mutex
	searchGen atomic.Uint64
	detailGen atomic.Uint64

	ctx     context.Context
	cancel  context.CancelFunc
	spawnMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

// New creates an engine over the given catalog and store.
func New(catalog domain.Catalog, store domain.Store, log *logger.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		catalog:           catalog,
		store:             store,
		resolver:          recipes.NewResolver(catalog, store, log.Named("resolver")),
		log:               log,
		defaultCategories: append([]string(nil), DefaultCategories...),
		defaultLimit:      DefaultLimit,
		queryTimeout:      DefaultQueryTimeout,
		SearchResults:     observe.NewValue[[]domain.Recipe](nil),
		Loading:           observe.NewValue(false),
		Categories:        observe.NewValue[[]domain.Category](nil),
		SelectedRecipe:    observe.NewValue[*domain.Recipe](nil),
		ctx:               ctx,
		cancel:            cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Favorites passes the store's live favorites through.
func (e *Engine) Favorites() domain.Stream[[]domain.Favorite] { return e.store.Favorites() }

// UserRecipes passes the store's live user recipes through.
func (e *Engine) UserRecipes() domain.Stream[[]domain.UserRecipe] { return e.store.UserRecipes() }

// Resolver exposes the aggregation layer the engine resolves through.
func (e *Engine) Resolver() *recipes.Resolver { return e.resolver }

// Wait blocks until every spawned task has finished.
func (e *Engine) Wait() { e.wg.Wait() }

// Close cancels in-flight tasks, waits for them and closes every state
// slot. Operations called after Close are dropped.
func (e *Engine) Close() {
	e.spawnMu.Lock()
	if e.closed {
		e.spawnMu.Unlock()
		return
	}
	e.closed = true
	e.spawnMu.Unlock()

	e.cancel()
	e.wg.Wait()

	e.SearchResults.Close()
	e.Loading.Close()
	e.Categories.Close()
	e.SelectedRecipe.Close()
	e.log.Debug("engine closed")
}

// spawn runs fn as a task bound to the engine. A panicking task is logged
// and otherwise contained.
func (e *Engine) spawn(name string, fn func(ctx context.Context)) {
	e.spawnMu.Lock()
	defer e.spawnMu.Unlock()
	if e.closed {
		e.log.Debug("dropping %s: engine closed", name)
		return
	}

	id := newTaskID()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("task %s [%s] panicked: %v", name, id, r)
			}
		}()
		e.log.Debug("task %s [%s] started", name, id)
		fn(e.ctx)
		e.log.Debug("task %s [%s] done", name, id)
	}()
}

// alive reports whether results may still be published.
func (e *Engine) alive() bool { return e.ctx.Err() == nil }

// beginLoading marks a query in flight. The returned func must run on every
// exit path, so callers defer it.
func (e *Engine) beginLoading() func() {
	e.loadMu.Lock()
	e.inflight++
	e.Loading.Set(true)
	e.loadMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.loadMu.Lock()
			e.inflight--
			e.Loading.Set(e.inflight > 0)
			e.loadMu.Unlock()
		})
	}
}

func (e *Engine) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout > 0 {
		return context.WithTimeout(ctx, e.queryTimeout)
	}
	return context.WithCancel(ctx)
}
