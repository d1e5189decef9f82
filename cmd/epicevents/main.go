// Package main is the entry point for the Epic Events CLI. It loads
// configuration, opens the database, wires the services together, and
// dispatches to the command tree.
package main

import (
	"log/slog"
	"os"

	"github.com/steveraffner/epicevents/internal/auth"
	"github.com/steveraffner/epicevents/internal/authz"
	"github.com/steveraffner/epicevents/internal/cli"
	"github.com/steveraffner/epicevents/internal/config"
	"github.com/steveraffner/epicevents/internal/crm"
	"github.com/steveraffner/epicevents/internal/database"
	"github.com/steveraffner/epicevents/internal/notify"
	"github.com/steveraffner/epicevents/internal/session"
)

func main() {
	os.Exit(run())
}

// run exists so deferred cleanup fires before the process exits.
func run() int {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	// --- Open SQLite ---
	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", slog.Any("error", err))
		return 1
	}
	defer db.Close()

	// --- Wire Services ---
	notifier := notify.NewSentry(cfg.Sentry.DSN)
	engine := authz.NewEngine(notifier)

	users := crm.NewUserRepository(db)
	clients := crm.NewClientRepository(db)
	contracts := crm.NewContractRepository(db)
	events := crm.NewEventRepository(db)

	tokens := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	sessions := session.NewStore(cfg.Session.Path, tokens)
	authSvc := auth.NewService(cli.NewCredentialSource(users), tokens, sessions)

	app := &cli.App{
		Config:    cfg,
		DB:        db,
		Auth:      authSvc,
		Sessions:  sessions,
		Users:     crm.NewUserService(users, engine),
		Clients:   crm.NewClientService(clients, engine),
		Contracts: crm.NewContractService(contracts, clients, engine),
		Events:    crm.NewEventService(events, contracts, users, engine),
		UserRepo:  users,
	}

	return cli.Execute(app)
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation. Logs go to stderr so tables on stdout stay
// pipeable.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel maps the configured level name to a slog level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
