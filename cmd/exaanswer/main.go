package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/exaanswer/internal/api"
	"github.com/liliang-cn/exaanswer/internal/config"
	"github.com/liliang-cn/exaanswer/internal/exa"
	"github.com/liliang-cn/exaanswer/internal/service"
	"github.com/liliang-cn/exaanswer/internal/tracer"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracer, err := tracer.Setup(context.Background(), cfg.Tracer)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	if cfg.Exa.APIKey == "" {
		// Not fatal: requests fail upstream with a 500 until a key is configured.
		logger.Warn("EXA_API_KEY is not set")
	}

	// Upstream client; streams are bounded by the request context, not a client timeout
	exaClient := exa.NewClient(cfg.Exa.APIKey,
		exa.WithBaseURL(cfg.Exa.BaseURL),
		exa.WithUserAgent(cfg.Exa.UserAgent),
		exa.WithAnswerDefaults(exa.AnswerOptions{
			Text:         cfg.Exa.IncludeText,
			SystemPrompt: cfg.Exa.SystemPrompt,
		}),
		exa.WithHTTPClient(&http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Exa.Timeout,
		}}),
	)

	answerService := service.NewAnswerService(cfg, exaClient, logger)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(answerService, logger, api.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	// WriteTimeout is the ceiling for a whole relayed answer
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Relay.MaxDuration,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Starting exaanswer server",
			zap.String("address", cfg.Address()),
			zap.String("model", cfg.Exa.Model),
			zap.Duration("max_duration", cfg.Relay.MaxDuration),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
