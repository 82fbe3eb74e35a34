package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/config"
	"github.com/noah-isme/gema-answer-eval/internal/database"
	"github.com/noah-isme/gema-answer-eval/internal/evaluation"
	"github.com/noah-isme/gema-answer-eval/internal/handler"
	"github.com/noah-isme/gema-answer-eval/internal/middleware"
	"github.com/noah-isme/gema-answer-eval/internal/router"
	"github.com/noah-isme/gema-answer-eval/internal/service"
	"github.com/noah-isme/gema-answer-eval/internal/utils"
	"github.com/noah-isme/gema-answer-eval/pkg/ai"
	"github.com/noah-isme/gema-answer-eval/pkg/ocr/tesseract"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	engine, err := ai.New(ctx, ai.ProviderConfig{
		Provider:    cfg.AIProvider,
		APIKey:      cfg.AIAPIKey(),
		Model:       cfg.AIModel(),
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
		BaseURL:     cfg.OpenAIBaseURL,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai engine: %v", err)
	}
	if closer, ok := engine.(io.Closer); ok {
		defer closer.Close()
	}

	pipelineCfg := evaluation.PipelineConfig{OCRPlaceholder: cfg.OCRPlaceholder}
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		pipelineCfg.Cache = service.NewRedisResultCache(redisClient, cfg.CacheTTL, logger)
	}

	var publisher service.EventPublisher
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		publisher = natsConn
	}

	recognizer := tesseract.New(tesseract.WithPageSegMode(gosseract.PageSegMode(cfg.OCRPageSegMode)))
	extractor := evaluation.NewExtractor(recognizer, evaluation.ExtractorConfig{
		Language: cfg.OCRLanguage,
		Timeout:  cfg.OCRTimeout,
	}, logger)
	client := evaluation.NewClient(engine, cfg.EngineTimeout, logger)
	pipeline := evaluation.NewPipeline(extractor, client, pipelineCfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	evaluationService := service.NewAnswerEvaluationService(pipeline, publisher, validate, logger, service.EvaluationServiceConfig{
		MaxAttempts:  cfg.RetryAttempts,
		Backoff:      cfg.RetryBackoff,
		EventSubject: cfg.NATSSubject,
	})
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.EngineTimeout*time.Duration(cfg.RetryAttempts) + cfg.OCRTimeout + 30*time.Second,
	})

	middleware.Register(app, middleware.Config{
		Logger:           &logger,
		AllowOrigins:     cfg.CORSOrigins,
		EnableStackTrace: cfg.AppEnv != "production",
	})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
	})

	logger.Info().
		Str("provider", engine.Name()).
		Str("model", engine.Model()).
		Str("ocr_language", extractor.Language()).
		Int("ocr_page_seg_mode", cfg.OCRPageSegMode).
		Bool("cache", pipelineCfg.Cache != nil).
		Bool("events", publisher != nil).
		Msg("answer evaluator configured")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
