package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/culina/internal/auth"
	"github.com/hammamikhairi/culina/internal/conversation"
	"github.com/hammamikhairi/culina/internal/display"
	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/engine"
	"github.com/hammamikhairi/culina/internal/logger"
)

// lookupTimeout bounds the synchronous lookups the REPL makes itself.
const lookupTimeout = 10 * time.Second

type cliApp struct {
	engine   *engine.Engine
	auth     *auth.Controller
	store    domain.Store
	parser   domain.IntentParser
	notifier domain.Notifier
	log      *logger.Logger
	ui       *display.UI
	offline  bool

	// awaitingDetail is set while a show/random request is in flight so a
	// nil selection can be reported as a miss.
	awaitingDetail atomic.Bool

	codeMu sync.Mutex
	codeCh chan string // non-nil while the Google prompt waits for a code
}

func (a *cliApp) run(ctx context.Context) {
	a.watch(ctx)

	if a.auth.IsSignedIn() {
		a.ui.PrintInfo(display.AuthLine(a.auth.Session.Get()))
	} else {
		a.ui.PrintHint("Browsing as a guest. 'login', 'register' or 'google' to sign in.")
	}

	go func() {
		if err := a.engine.Start(ctx); err != nil {
			a.log.Debug("initial load stopped: %v", err)
		}
	}()

	uiCh := a.ui.InputChan()
	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if a.deliverCode(input) {
			continue
		}

		intent, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}

		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)
		if intent.Type == domain.IntentQuit {
			a.notify(ctx, "Bye!")
			return
		}
		a.handleIntent(ctx, intent)
	}
}

func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) {
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentStatus:
		a.status(ctx)
	case domain.IntentBrowse:
		a.engine.LoadDefaultMeals()
	case domain.IntentSearch:
		a.engine.Search(intent.Payload)
	case domain.IntentSearchIngredient:
		a.engine.SearchByIngredient(intent.Payload)
	case domain.IntentSearchCategory:
		a.engine.SearchByCategory(intent.Payload)
	case domain.IntentListCategories:
		a.ui.PrintLines(display.CategoryLines(a.engine.Categories.Get()))
	case domain.IntentRandom:
		a.awaitingDetail.Store(true)
		a.engine.LoadRandomMeal()
	case domain.IntentShow:
		a.show(intent.Payload)
	case domain.IntentFavorite:
		a.favorite(ctx, intent.Payload)
	case domain.IntentUnfavorite:
		a.unfavorite(ctx, intent.Payload)
	case domain.IntentListFavorites:
		a.ui.PrintLines(display.FavoriteLines(a.engine.Favorites().Get()))
	case domain.IntentListMine:
		a.ui.PrintLines(display.UserRecipeLines(a.engine.UserRecipes().Get()))
	case domain.IntentAddRecipe:
		a.addRecipe(ctx, intent.Payload)
	case domain.IntentEditRecipe:
		a.editRecipe(ctx, intent.Payload)
	case domain.IntentDeleteRecipe:
		a.deleteRecipe(ctx, intent.Payload)
	case domain.IntentImport:
		a.importRecipe(ctx, intent.Payload)
	case domain.IntentLogin, domain.IntentRegister:
		a.credentials(ctx, intent)
	case domain.IntentGoogle:
		a.auth.SignInWithGoogle()
	case domain.IntentLogout:
		a.auth.SignOut()
	default:
		a.ui.PrintHint("Not sure what you mean. Type 'help' for commands.")
	}
}

// ── State watchers ───────────────────────────────────────────────

// watch prints results, selections and auth changes as the
// engine publishes them. The first value of each stream is the state at
// subscription time and is skipped.
func (a *cliApp) watch(ctx context.Context) {
	go follow(ctx, a.engine.SearchResults.Subscribe, func(meals []domain.Recipe) {
		a.ui.Println("")
		a.ui.PrintLines(display.RecipeListLines(meals))
		if len(meals) > 0 {
			a.ui.PrintHint("Type a number or 'show <n>' to open a recipe.")
		}
	})

	go follow(ctx, a.engine.SelectedRecipe.Subscribe, func(r *domain.Recipe) {
		wanted := a.awaitingDetail.Swap(false)
		if r == nil {
			if wanted {
				a.notifyUrgent(ctx, "Recipe not found.")
			}
			return
		}
		a.ui.Println("")
		a.ui.PrintLines(display.RecipeLines(*r, a.engine.IsFavorite(ctx, r.ID)))
	})

	go follow(ctx, a.auth.Session.Subscribe, func(s domain.AuthSession) {
		switch s.Status {
		case domain.AuthError:
			a.notifyUrgent(ctx, display.AuthLine(s))
		case domain.AuthLoading:
			a.ui.PrintHint(display.AuthLine(s))
		default:
			a.notify(ctx, display.AuthLine(s))
		}
	})
}

// follow calls fn for every value after the first until the stream closes
// or ctx ends.
func follow[T any](ctx context.Context, subscribe func() (<-chan T, func()), fn func(T)) {
	ch, stop := subscribe()
	defer stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			if first {
				first = false
				continue
			}
			fn(v)
		}
	}
}

// ── Browsing ─────────────────────────────────────────────────────

// show opens a recipe by its 1-based position in the results or by ID.
func (a *cliApp) show(payload string) {
	id := a.targetID(payload)
	if id == "" {
		a.ui.PrintHint("Usage: show <number|id>")
		return
	}
	a.awaitingDetail.Store(true)
	a.engine.LoadRecipeDetails(id)
}

// targetID maps a result index to its recipe ID. Anything else is taken as
// an ID. An empty payload means the selected recipe.
func (a *cliApp) targetID(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		if r := a.engine.SelectedRecipe.Get(); r != nil {
			return r.ID
		}
		return ""
	}
	if n, err := strconv.Atoi(payload); err == nil && n >= 1 && n <= 999 {
		results := a.engine.SearchResults.Get()
		if n <= len(results) {
			return results[n-1].ID
		}
	}
	return payload
}

// ── Favorites ────────────────────────────────────────────────────

func (a *cliApp) favorite(ctx context.Context, payload string) {
	recipe, err := a.recipeFor(ctx, payload)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	a.engine.AddFavoriteFromRecipe(*recipe)
	a.notify(ctx, fmt.Sprintf("Saved %q to favorites.", recipe.Name))
}

func (a *cliApp) unfavorite(ctx context.Context, payload string) {
	id := a.targetID(payload)
	if id == "" {
		a.ui.PrintHint("Usage: unfav <number|id> (or open a recipe first)")
		return
	}
	a.engine.RemoveFavorite(id)
	a.notify(ctx, "Removed "+id+" from favorites.")
}

// recipeFor finds the recipe a favorite command refers to: the selection,
// a result row, or any ID the resolver knows.
func (a *cliApp) recipeFor(ctx context.Context, payload string) (*domain.Recipe, error) {
	id := a.targetID(payload)
	if id == "" {
		return nil, errors.New("open a recipe first, or name one: fav <number|id>")
	}
	if r := a.engine.SelectedRecipe.Get(); r != nil && r.ID == id {
		return r, nil
	}

	lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	r, err := a.engine.Resolver().Resolve(lctx, id)
	if err != nil {
		a.log.Info("favorite lookup: %v", err)
		return nil, fmt.Errorf("recipe %s not found", id)
	}
	return r, nil
}

// ── User recipes ─────────────────────────────────────────────────

func (a *cliApp) addRecipe(ctx context.Context, payload string) {
	fields, err := conversation.ParseRecipeFields(payload)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	a.engine.AddUserRecipe(fields)
	a.notify(ctx, fmt.Sprintf("Added %q to your recipes.", fields.Title))
}

func (a *cliApp) editRecipe(ctx context.Context, payload string) {
	target, rest := conversation.SplitTarget(payload)
	rec, err := a.userRecipe(ctx, target)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	fields, err := conversation.ParseRecipeFields(rest)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	rec.Title = fields.Title
	rec.Category = fields.Category
	rec.Area = fields.Area
	rec.Instructions = fields.Instructions
	rec.ThumbnailURI = fields.ThumbnailURI

	a.engine.UpdateUserRecipe(*rec)
	a.notify(ctx, fmt.Sprintf("Updated %s.", rec.UnifiedID()))
}

func (a *cliApp) deleteRecipe(ctx context.Context, payload string) {
	rec, err := a.userRecipe(ctx, payload)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	if sel := a.engine.SelectedRecipe.Get(); sel != nil && sel.ID == rec.UnifiedID() {
		a.engine.ClearSelection()
	}
	a.engine.DeleteUserRecipe(*rec)
	a.notify(ctx, fmt.Sprintf("Deleted %q.", rec.Title))
}

// userRecipe loads the user recipe named by a local ID ("3") or a unified
// ID ("user_3").
func (a *cliApp) userRecipe(ctx context.Context, target string) (*domain.UserRecipe, error) {
	localID, err := parseLocalID(target)
	if err != nil {
		return nil, err
	}
	rec, err := a.store.GetUserRecipe(ctx, localID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("you have no recipe %s", domain.UserRecipeID(localID))
		}
		return nil, err
	}
	return rec, nil
}

func (a *cliApp) importRecipe(ctx context.Context, pageURL string) {
	if a.offline {
		a.notifyUrgent(ctx, "Import needs the network; restart without --offline.")
		return
	}
	a.engine.ImportUserRecipe(pageURL)
	a.ui.PrintHint("Importing " + pageURL + " ... check 'mine' in a moment.")
}

// parseLocalID accepts "3" or "user_3".
func parseLocalID(target string) (int64, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return 0, errors.New("name a recipe: <id> or user_<id>")
	}
	if domain.IsUserRecipeID(target) {
		id, _, err := domain.ParseUserRecipeID(target)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%q is not one of your recipes", target)
		}
		return id, nil
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not one of your recipes", target)
	}
	return id, nil
}

// ── Auth ─────────────────────────────────────────────────────────

func (a *cliApp) credentials(ctx context.Context, intent *domain.Intent) {
	email, password, err := conversation.ParseCredentials(intent.Payload)
	if err != nil {
		a.notifyUrgent(ctx, err.Error())
		return
	}
	if intent.Type == domain.IntentRegister {
		a.auth.Register(email, password)
		return
	}
	a.auth.SignInWithEmail(email, password)
}

// promptCode shows the Google consent URL and takes the next input line as
// the authorization code.
func (a *cliApp) promptCode(ctx context.Context, authURL string) (string, error) {
	ch := make(chan string, 1)
	a.codeMu.Lock()
	a.codeCh = ch
	a.codeMu.Unlock()
	defer func() {
		a.codeMu.Lock()
		if a.codeCh == ch {
			a.codeCh = nil
		}
		a.codeMu.Unlock()
	}()

	a.ui.PrintInfo("Open this URL in a browser, approve access, then paste the code here:")
	a.ui.Println(authURL)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code := <-ch:
		return code, nil
	}
}

// deliverCode hands input to a waiting Google prompt.
func (a *cliApp) deliverCode(input string) bool {
	a.codeMu.Lock()
	defer a.codeMu.Unlock()
	if a.codeCh == nil {
		return false
	}
	a.codeCh <- input
	a.codeCh = nil
	return true
}

// ── Misc ─────────────────────────────────────────────────────────

func (a *cliApp) status(ctx context.Context) {
	a.ui.PrintInfo(display.AuthLine(a.auth.Session.Get()))
	a.ui.Printf("  results: %d  favorites: %d  mine: %d",
		len(a.engine.SearchResults.Get()),
		len(a.engine.Favorites().Get()),
		len(a.engine.UserRecipes().Get()),
	)
	if r := a.engine.SelectedRecipe.Get(); r != nil {
		a.ui.Printf("  open: %s (%s)", r.Name, r.ID)
	}
}

func (a *cliApp) notify(ctx context.Context, msg string) {
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.log.Error("notify: %v", err)
	}
}

func (a *cliApp) notifyUrgent(ctx context.Context, msg string) {
	if err := a.notifier.NotifyUrgent(ctx, msg); err != nil {
		a.log.Error("notify: %v", err)
	}
}

func (a *cliApp) showHelp() {
	a.ui.PrintLines([]string{
		"",
		"  Browse",
		"    <name> | search <name>     search meals by name",
		"    ingredient <name>          meals using an ingredient",
		"    category <name>            meals in a category",
		"    categories                 list categories",
		"    browse                     default meals",
		"    random                     a random meal",
		"    <n> | show <n|id>          open a result or any recipe ID",
		"",
		"  Library",
		"    fav [n|id]                 save the open recipe (or another)",
		"    unfav [n|id]               remove a favorite",
		"    favs                       list favorites",
		"    mine                       list your recipes",
		"    add title | category | area | instructions | image",
		"    edit <id> title | ...      replace one of your recipes",
		"    delete <id>                delete one of your recipes",
		"    import <url>               import a recipe from a web page",
		"",
		"  Account",
		"    login <email> <password>   sign in",
		"    register <email> <pass>    create an account",
		"    google                     sign in with Google",
		"    logout                     sign out",
		"    status                     session and counts",
		"",
		"    quit                       exit",
		"",
	})
}
