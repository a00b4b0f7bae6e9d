package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/config"
	"github.com/arjunv/procure-flow/internal/docstore"
	"github.com/arjunv/procure-flow/internal/engine"
	"github.com/arjunv/procure-flow/internal/httpapi"
	"github.com/arjunv/procure-flow/internal/identity"
	"github.com/arjunv/procure-flow/internal/notify"
	"github.com/arjunv/procure-flow/internal/registry"
	"github.com/arjunv/procure-flow/internal/repository"
	"github.com/arjunv/procure-flow/internal/statement"
	"github.com/arjunv/procure-flow/internal/tasks"
	"github.com/arjunv/procure-flow/internal/validator"
	"github.com/arjunv/procure-flow/pkg/database"
	"github.com/arjunv/procure-flow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if p := os.Getenv("PROCURE_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	reg, err := registry.New(cfg.Workflow.TATOverrides)
	if err != nil {
		logger.Fatal("Invalid step registry", zap.Error(err))
	}

	flowRepo := repository.NewFlowRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)

	eng := engine.NewEngine(
		reg,
		validator.NewSet(),
		flowRepo,
		auditRepo,
		db,
		engine.RoleMap(cfg.Workflow.Assignees),
		logger,
	)

	taskSvc := tasks.NewService(flowRepo, logger)
	docs := docstore.NewLocalStore(cfg.Documents.Dir, logger)
	sender := notify.NewLogSender(logger)
	stmtWriter := statement.NewWriter(logger)

	handlers := httpapi.NewHandlers(eng, taskSvc, auditRepo, flowRepo, docs, sender, stmtWriter, logger)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, identity.NewHeaderProvider(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
