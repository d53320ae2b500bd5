package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/culina/internal/conversation"
	"github.com/hammamikhairi/culina/internal/display"
	"github.com/hammamikhairi/culina/internal/domain"
)

func init() {
	favCmd.AddCommand(favAddCmd, favRmCmd, favLsCmd)
	mineCmd.AddCommand(mineAddCmd, mineEditCmd, mineRmCmd, mineLsCmd)

	rootCmd.AddCommand(
		searchCmd,
		ingredientCmd,
		categoryCmd,
		categoriesCmd,
		showCmd,
		randomCmd,
		favCmd,
		mineCmd,
		importCmd,
		loginCmd,
		registerCmd,
		googleCmd,
		logoutCmd,
	)
}

// ── Browsing ─────────────────────────────────────────────────────

var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Search catalog meals by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.engine.Search(strings.Join(args, " "))
			a.engine.Wait()
			printLines(display.RecipeListLines(a.engine.SearchResults.Get()))
			return nil
		})
	},
}

var ingredientCmd = &cobra.Command{
	Use:   "ingredient <name>",
	Short: "List meals that use an ingredient",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.engine.SearchByIngredient(strings.Join(args, " "))
			a.engine.Wait()
			printLines(display.RecipeListLines(a.engine.SearchResults.Get()))
			return nil
		})
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <name>",
	Short: "List meals in a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.engine.SearchByCategory(args[0])
			a.engine.Wait()
			printLines(display.RecipeListLines(a.engine.SearchResults.Get()))
			return nil
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.engine.LoadCategories()
			a.engine.Wait()
			printLines(display.CategoryLines(a.engine.Categories.Get()))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe by catalog ID or user_<n>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			a.engine.LoadRecipeDetails(args[0])
			a.engine.Wait()
			return printSelected(ctx, a)
		})
	},
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Show a random catalog meal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			a.engine.LoadRandomMeal()
			a.engine.Wait()
			return printSelected(ctx, a)
		})
	},
}

func printSelected(ctx context.Context, a *app) error {
	r := a.engine.SelectedRecipe.Get()
	if r == nil {
		return domain.ErrNotFound
	}
	printLines(display.RecipeLines(*r, a.engine.IsFavorite(ctx, r.ID)))
	return nil
}

// ── Favorites ────────────────────────────────────────────────────

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Manage favorites",
}

var favAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Save a recipe to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			r, err := a.engine.Resolver().Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			a.engine.AddFavoriteFromRecipe(*r)
			a.engine.Wait()
			if !a.engine.IsFavorite(ctx, r.ID) {
				return fmt.Errorf("could not save %s", r.ID)
			}
			fmt.Printf("saved %q (%s)\n", r.Name, r.ID)
			return nil
		})
	},
}

var favRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a favorite",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.engine.RemoveFavorite(args[0])
			a.engine.Wait()
			fmt.Printf("removed %s\n", args[0])
			return nil
		})
	},
}

var favLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List favorites, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			printLines(display.FavoriteLines(a.engine.Favorites().Get()))
			return nil
		})
	},
}

// ── User recipes ─────────────────────────────────────────────────

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Manage your own recipes",
}

var mineAddCmd = &cobra.Command{
	Use:   "add <title | category | area | instructions | image>",
	Short: "Add a recipe",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := conversation.ParseRecipeFields(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return withApp(cmd, func(_ context.Context, a *app) error {
			before := len(a.engine.UserRecipes().Get())
			a.engine.AddUserRecipe(fields)
			a.engine.Wait()
			mine := a.engine.UserRecipes().Get()
			if len(mine) == before {
				return fmt.Errorf("could not add %q", fields.Title)
			}
			fmt.Printf("added %s %q\n", mine[0].UnifiedID(), mine[0].Title)
			return nil
		})
	},
}

var mineEditCmd = &cobra.Command{
	Use:   "edit <id> <title | category | area | instructions | image>",
	Short: "Replace every field of one of your recipes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		localID, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		fields, err := conversation.ParseRecipeFields(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rec, err := a.store.GetUserRecipe(ctx, localID)
			if err != nil {
				return err
			}
			rec.Title = fields.Title
			rec.Category = fields.Category
			rec.Area = fields.Area
			rec.Instructions = fields.Instructions
			rec.ThumbnailURI = fields.ThumbnailURI
			a.engine.UpdateUserRecipe(*rec)
			a.engine.Wait()
			fmt.Printf("updated %s\n", rec.UnifiedID())
			return nil
		})
	},
}

var mineRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Delete one of your recipes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		localID, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rec, err := a.store.GetUserRecipe(ctx, localID)
			if err != nil {
				return err
			}
			a.engine.DeleteUserRecipe(*rec)
			a.engine.Wait()
			fmt.Printf("deleted %s %q\n", rec.UnifiedID(), rec.Title)
			return nil
		})
	},
}

var mineLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your recipes, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			printLines(display.UserRecipeLines(a.engine.UserRecipes().Get()))
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import a recipe from a web page into your recipes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			before := len(a.engine.UserRecipes().Get())
			a.engine.ImportUserRecipe(args[0])
			a.engine.Wait()
			mine := a.engine.UserRecipes().Get()
			if len(mine) == before {
				return fmt.Errorf("nothing imported from %s (see the log for details)", args[0])
			}
			fmt.Printf("imported %s %q\n", mine[0].UnifiedID(), mine[0].Title)
			return nil
		})
	},
}

// ── Account ──────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <email> [password]",
	Short: "Sign in with email and password",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordArg(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.auth.SignInWithEmail(args[0], password)
			a.auth.Wait()
			return reportSession(a.auth.Session.Get())
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email> [password]",
	Short: "Create an account and sign in",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordArg(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.auth.Register(args[0], password)
			a.auth.Wait()
			return reportSession(a.auth.Session.Get())
		})
	},
}

var googleCmd = &cobra.Command{
	Use:   "google",
	Short: "Sign in with Google",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.auth.SignInWithGoogle()
			a.auth.Wait()
			return reportSession(a.auth.Session.Get())
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			a.auth.SignOut()
			fmt.Println(display.AuthLine(a.auth.Session.Get()))
			return nil
		})
	},
}

// passwordArg returns the password argument, or reads one from the
// terminal without echo.
func passwordArg(args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(os.Stdin.Fd())
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("empty password")
	}
	return string(pw), nil
}

func reportSession(s domain.AuthSession) error {
	if err := sessionErr(s); err != nil {
		return err
	}
	fmt.Println(display.AuthLine(s))
	return nil
}
