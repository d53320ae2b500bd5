package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hammamikhairi/culina/internal/auth"
	"github.com/hammamikhairi/culina/internal/catalog"
	"github.com/hammamikhairi/culina/internal/config"
	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/engine"
	"github.com/hammamikhairi/culina/internal/identity"
	"github.com/hammamikhairi/culina/internal/importer"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/storage"
)

// app holds every wired dependency for one run.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    domain.Store
	engine   *engine.Engine
	auth     *auth.Controller
	prompter *codePrompter
	logFile  *os.File
}

// newApp loads configuration and wires the catalog, store, identity and
// engine according to the global flags.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.Storage.Path = flags.dbPath
	}

	log, logFile := setupLogger(cfg)

	a := &app{cfg: cfg, log: log, logFile: logFile, prompter: &codePrompter{}}

	var cat domain.Catalog
	if flags.offline {
		cat = catalog.NewMemory(log.Named("catalog"))
		log.Info("offline mode: using the built-in catalog")
	} else {
		cat = catalog.NewMealDB(log.Named("catalog"),
			catalog.WithBaseURL(cfg.Catalog.URL()),
			catalog.WithHTTPTimeout(cfg.Catalog.Timeout),
		)
	}

	if flags.offline || cfg.Storage.Path == storage.MemoryDSN {
		a.store = storage.NewMemoryStore(log.Named("store"))
	} else {
		if dir := filepath.Dir(cfg.Storage.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				a.closeLog()
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		st, err := storage.OpenSQLite(ctx, cfg.Storage.Path, log.Named("store"))
		if err != nil {
			a.closeLog()
			return nil, err
		}
		a.store = st
	}

	var provider domain.IdentityProvider
	if cfg.Auth.FirebaseAPIKey != "" && !flags.offline {
		opts := []identity.FirebaseOption{identity.WithSessionFile(cfg.Storage.SessionFile)}
		if cfg.Auth.IdentityBaseURL != "" {
			opts = append(opts, identity.WithBaseURL(cfg.Auth.IdentityBaseURL))
		}
		provider = identity.NewFirebase(cfg.Auth.FirebaseAPIKey, log.Named("identity"), opts...)
	} else {
		provider = identity.NewMemory(log.Named("identity"))
		log.Info("no firebase api key: accounts live in memory for this run")
	}

	var creds domain.CredentialProvider
	if cfg.Auth.GoogleEnabled() {
		creds = identity.NewGoogleCredentials(
			cfg.Auth.GoogleClientID,
			cfg.Auth.GoogleClientSecret,
			cfg.Auth.GoogleRedirectURL,
			a.prompter.Prompt,
			log.Named("google"),
		)
	}

	repo := auth.NewRepository(provider, creds, cfg.Auth.GoogleClientID, log.Named("auth"))
	a.auth = auth.NewController(repo, log.Named("auth"))

	a.engine = engine.New(cat, a.store, log.Named("engine"),
		engine.WithDefaultCategories(cfg.Engine.DefaultCategories),
		engine.WithDefaultLimit(cfg.Engine.DefaultLimit),
		engine.WithQueryTimeout(cfg.Engine.QueryTimeout),
		engine.WithImporter(importer.NewWeb(log.Named("importer"))),
	)
	return a, nil
}

// Close stops background work and releases the store.
func (a *app) Close() {
	a.engine.Close()
	a.auth.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("closing store: %v", err)
	}
	_ = a.log.Sync()
	a.closeLog()
}

func (a *app) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// setupLogger directs logs to a file by default so the REPL stays clean.
// The --log-file flag wins over the config file.
func setupLogger(cfg *config.Config) (*logger.Logger, *os.File) {
	level := logger.ParseLevel(cfg.Log.Level)
	if flags.verbose {
		level = logger.LevelVerbose
	}
	if flags.quiet {
		level = logger.LevelOff
	}

	path := cfg.Log.File
	if flags.logFile != "" {
		path = flags.logFile
	}
	if path == "" {
		if dir, err := config.Dir(); err == nil {
			path = filepath.Join(dir, "culina.log")
		}
	}

	var out io.Writer = os.Stderr
	var file *os.File
	if path != "" && path != "stderr" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			file = f
		}
	}

	// Third-party packages that use the standard log package write to the
	// same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), file
}

// codePrompter asks the user for the Google authorization code. It reads
// stdin until the REPL installs its own prompt.
type codePrompter struct {
	mu sync.Mutex
	fn identity.CodePrompt
}

func (p *codePrompter) set(fn identity.CodePrompt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn = fn
}

// Prompt satisfies identity.CodePrompt.
func (p *codePrompter) Prompt(ctx context.Context, authURL string) (string, error) {
	p.mu.Lock()
	fn := p.fn
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, authURL)
	}
	return stdinPrompt(ctx, authURL)
}

func stdinPrompt(ctx context.Context, authURL string) (string, error) {
	fmt.Println("Open this URL in a browser and approve access:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Print("Paste the authorization code: ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			errs <- err
			return
		}
		lines <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errs:
		return "", err
	case line := <-lines:
		return line, nil
	}
}
