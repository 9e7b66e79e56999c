package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/syncora/internal/async"
	"github.com/joseph-ayodele/syncora/internal/auth"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/export"
	"github.com/joseph-ayodele/syncora/internal/extract"
	"github.com/joseph-ayodele/syncora/internal/llm/provider"
	"github.com/joseph-ayodele/syncora/internal/ocr"
	pipeline "github.com/joseph-ayodele/syncora/internal/pipeline"
	repo "github.com/joseph-ayodele/syncora/internal/repository"
	"github.com/joseph-ayodele/syncora/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := repo.Migrate(cfg.Database.DSN, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("syncorad exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	if cfg.Database.AutoMigrate {
		if err := repo.Migrate(cfg.Database.DSN, logger); err != nil {
			return err
		}
	}
	db, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		return err
	}

	users := repo.NewUserRepository(db, logger)
	assignments := repo.NewAssignmentRepository(db, logger)
	events := repo.NewEventRepository(db, logger)

	// OCR runs on a bounded pool shared by every request
	pool := async.NewPool(logger,
		async.WithWorkers(cfg.OCR.Workers),
		async.WithQueueSize(cfg.OCR.QueueSize),
	)
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	ocrStage := pipeline.NewOCRStage(extract.NewOCRAdapter(extractor, pool, logger), logger)

	completer, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	estimateStage := pipeline.NewEstimateStage(completer, logger)
	processor := pipeline.NewProcessor(logger, ocrStage, estimateStage, assignments, cfg.Pipeline.RequestTimeout)

	var states auth.StateStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to reach redis", "addr", cfg.Redis.Addr, "error", err)
			return err
		}
		states = auth.NewRedisStateStore(rdb, cfg.Auth.SessionSecret, cfg.Auth.StateTTL)
	} else {
		logger.Warn("REDIS_ADDR not set; oauth state kept in memory (single replica only)")
		states = auth.NewMemoryStateStore(cfg.Auth.SessionSecret, cfg.Auth.StateTTL)
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	google := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret,
		RedirectURL:  cfg.Auth.GoogleRedirectURL,
	}, logger)
	login := auth.NewService(google, states, tokens, users, logger)

	handler := server.NewHandler(server.Deps{
		Pipeline:    processor,
		Login:       login,
		Tokens:      tokens,
		Users:       users,
		Assignments: assignments,
		Events:      events,
		Exporter:    export.NewService(assignments, events, logger),
		Health:      db,
	}, server.Options{
		FrontendDir:       cfg.Server.FrontendDir,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		HandlerTimeout:    cfg.HandlerTimeout(),
		PostLoginRedirect: cfg.Auth.PostLoginRedirect,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout(),
	}
	grpcServer, healthServer := server.NewAdminServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("syncora http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("syncora grpc health listening", "addr", cfg.Server.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		server.WatchHealth(gctx, healthServer, db, 15*time.Second, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		pool.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}
