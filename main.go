package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/config"
	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/handlers"
	"github.com/gridbase-io/gridbase-engine/pkg/logging"
	"github.com/gridbase-io/gridbase-engine/pkg/middleware"
	"github.com/gridbase-io/gridbase-engine/pkg/repositories"
	"github.com/gridbase-io/gridbase-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Repositories
	columnRepo := repositories.NewColumnRepository()
	cellRepo := repositories.NewCellRepository()
	rowRepo := repositories.NewRowRepository()
	auditRepo := repositories.NewTypeChangeAuditRepository()

	// Services
	rowQueryService := services.NewRowQueryService(rowRepo, cellRepo, logger)
	migrationService := services.NewTypeMigrationService(columnRepo, cellRepo, auditRepo, cfg.TypeMigration, logger)

	// HTTP surface
	mux := http.NewServeMux()
	tenantMiddleware := database.WithTenantContext(db, logger)

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewRowHandler(rowQueryService, logger).RegisterRoutes(mux, tenantMiddleware)
	handlers.NewColumnHandler(migrationService, logger).RegisterRoutes(mux, tenantMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting gridbase-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
