package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/blogify/blogify-auth"
	"github.com/blogify/blogify-auth/middleware/authware"
)

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg.logLevel)

	if cfg.signingKey == "" {
		logger.Error("AUTH_SIGNING_KEY is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	if err := repo.Roles().Seed(ctx); err != nil {
		logger.Error("failed to seed roles", "error", err)
		os.Exit(1)
	}

	notifier, err := auth.NewEmbeddedTemplateNotifier(cfg.baseURL)
	if err != nil {
		logger.Error("failed to load email templates", "error", err)
		os.Exit(1)
	}
	notifier.WithLogger(logger)

	activation := auth.NewActivationService(cfg, repo, notifier, logger)

	auther := auth.NewAuthenticator(repo, cfg).
		WithLogger(logger).
		WithNotifier(notifier).
		WithActivationService(activation)

	policy := auth.DefaultAccessPolicy()

	app := fiber.New(fiber.Config{
		AppName:               "blogify-auth",
		DisableStartupMessage: true,
	})

	app.Use(authware.New(authware.Config{
		Skip:       authware.SkipPublic(policy),
		Tokens:     auther.TokenService(),
		Customers:  repo.Customers(),
		ContextKey: cfg.GetContextKey(),
		AuthScheme: cfg.GetAuthScheme(),
		Logger:     logger,
	}))
	app.Use(authware.Guard(policy, authware.Config{ContextKey: cfg.GetContextKey()}))

	auth.NewHTTPController(auther, repo.Customers()).
		WithLogger(logger).
		RegisterRoutes(app)

	go func() {
		logger.Info("listening", "addr", cfg.httpAddr)
		if err := app.Listen(cfg.httpAddr); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// openDB connects, registers the models, and applies the embedded
// migrations through the persistence client.
func openDB(ctx context.Context, cfg *config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.dsn)
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*auth.Customer)(nil))
	persistence.RegisterModel((*auth.Role)(nil))
	persistence.RegisterModel((*auth.CustomerRole)(nil))
	persistence.RegisterModel((*auth.ActivationToken)(nil))

	client, err := persistence.New(cfg.persistence(), sqldb, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}
