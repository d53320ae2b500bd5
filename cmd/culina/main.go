// Culina: browse, save and write recipes from the terminal.
//
// Usage:
//
//	culina [--offline] [--verbose] [--quiet]   interactive mode
//	culina search <name>                        one-shot commands
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/culina/internal/conversation"
	"github.com/hammamikhairi/culina/internal/display"
	"github.com/hammamikhairi/culina/internal/domain"
)

var version = "dev"

// flags are the persistent flags shared by every command.
var flags struct {
	configPath string
	dbPath     string
	offline    bool
	verbose    bool
	quiet      bool
	logFile    string
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "culina",
	Short: "Recipe discovery in the terminal",
	Long: `culina searches a public meal catalog, keeps favorites and your own
recipes in a local database, and signs in with email or Google.

Run without a command for the interactive prompt.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	Args:          cobra.NoArgs,
	RunE:          runInteractive,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.culina/config.yaml)")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database path (\":memory:\" for a throwaway store)")
	pf.BoolVar(&flags.offline, "offline", false, "use the built-in catalog and an in-memory store")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "disable all logging")
	pf.StringVar(&flags.logFile, "log-file", "", "file to write logs to (use \"stderr\" to log to console)")
}

// runInteractive starts the terminal UI and the REPL.
func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ui := display.NewUI(func() display.Status {
		return display.Status{
			Loading:   a.engine.Loading.Get(),
			Auth:      a.auth.Session.Get(),
			Results:   len(a.engine.SearchResults.Get()),
			Favorites: len(a.engine.Favorites().Get()),
			Mine:      len(a.engine.UserRecipes().Get()),
		}
	})

	repl := &cliApp{
		engine:   a.engine,
		auth:     a.auth,
		store:    a.store,
		parser:   conversation.NewKeywordParser(a.log.Named("parser")),
		notifier: conversation.NewCLINotifier(a.log.Named("notify"), ui.Printf),
		log:      a.log,
		ui:       ui,
		offline:  flags.offline,
	}
	a.prompter.set(repl.promptCode)

	fmt.Println(display.RenderBanner("recipes, favorites and your own dishes"))
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		repl.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		a.log.Error("display: %v", err)
	}
	cancel()
	return nil
}

// withApp wires the dependencies for a one-shot command and releases them
// afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// printLines writes rendered lines to stdout.
func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}

// sessionErr turns a failed auth session into a command error.
func sessionErr(s domain.AuthSession) error {
	if s.Status == domain.AuthError {
		return errors.New(s.Message)
	}
	return nil
}
