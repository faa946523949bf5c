package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/ai"
	"github.com/bartek717/passionproject/internal/config"
	"github.com/bartek717/passionproject/internal/db"
	"github.com/bartek717/passionproject/internal/filestore"
	"github.com/bartek717/passionproject/internal/handler"
	"github.com/bartek717/passionproject/internal/job"
	"github.com/bartek717/passionproject/internal/middleware"
	"github.com/bartek717/passionproject/internal/repo"
	"github.com/bartek717/passionproject/internal/schedule"
	"github.com/bartek717/passionproject/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "passionproject",
		Short: "passionproject backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run passionproject server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	classRepo := repo.NewClassRepo(conn)
	documentRepo := repo.NewDocumentRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	providerArgs := cfg.AI.Data
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	generator := ai.NewGenerator(aiProvider, cfg.AI.ChatModel)

	classService := service.NewClassService(classRepo, documentRepo, store)
	ingestService := service.NewIngestService(classRepo, documentRepo, store, embedder, cfg.AI.MaxInputChars)
	chatService := service.NewChatService(documentRepo, embedder, generator, time.Duration(cfg.AI.Timeout)*time.Second, cfg.AI.MaxInputChars)

	deps := handler.RouterDeps{
		Classes:        handler.NewClassHandler(classService, ingestService, cfg.MaxUploadMB),
		Chat:           handler.NewChatHandler(chatService),
		Files:          handler.NewFileHandler(store),
		JWTSecret:      []byte(cfg.JWTSecret),
		ChatRateWindow: time.Duration(cfg.ChatRateLimit) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *schedule.CronScheduler
	if cfg.OrphanSweep.Enable {
		scheduler = schedule.NewCronScheduler()
		sweep := job.NewOrphanSweepJob(documentRepo, store)
		if err := scheduler.AddJob(sweep, cfg.OrphanSweep.Spec); err != nil {
			return fmt.Errorf("schedule orphan sweep: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
