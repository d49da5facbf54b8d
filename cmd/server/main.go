package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/analyze"
	"autoblog/app/internal/cms"
	"autoblog/app/internal/config"
	appdb "autoblog/app/internal/db"
	"autoblog/app/internal/generate"
	"autoblog/app/internal/history"
	apphttp "autoblog/app/internal/http"
	"autoblog/app/internal/llm"
	applog "autoblog/app/internal/log"
	"autoblog/app/internal/pipeline"
	"autoblog/app/internal/revalidate"
	"autoblog/app/internal/telegram"
	"autoblog/app/internal/topics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	if err := cfg.Validate(); err != nil {
		return eris.Wrap(err, "invalid configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := history.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	store, err := history.NewStore(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building history store")
	}

	llmClient, err := llm.NewClient(llm.ClientOptions{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMEndpoint,
		Logger:  logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating llm client")
	}

	articles, err := generate.NewArticleGenerator(generate.ArticleGeneratorOptions{
		Completer: llmClient,
		Model:     cfg.ArticleModel(),
		Logger:    logger,
	})
	if err != nil {
		return eris.Wrap(err, "initialising article generator")
	}

	cmsClient, err := cms.NewClient(cms.ClientOptions{
		BaseURL: cfg.CMSURL,
		Token:   cfg.CMSToken,
		Logger:  logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating cms client")
	}

	publisher, err := cms.NewPublisher(cms.PublisherOptions{API: cmsClient, Logger: logger})
	if err != nil {
		return eris.Wrap(err, "initialising publisher")
	}

	revalidator := revalidate.New(revalidate.Options{
		SiteURL: cfg.SiteURL,
		Secret:  cfg.RevalidationSecret,
		Logger:  logger,
	})

	pipelineOpts := pipeline.Options{
		Articles:    articles,
		Uploader:    cmsClient,
		Publisher:   publisher,
		Revalidator: revalidator,
		Recorder:    store,
		Logger:      logger,
	}

	if cfg.ImagesEnabled() {
		imageClient := llmClient
		if cfg.ImageAPIKey != cfg.LLMAPIKey || cfg.ImageEndpoint != cfg.LLMEndpoint {
			imageClient, err = llm.NewClient(llm.ClientOptions{
				APIKey:  cfg.ImageAPIKey,
				BaseURL: cfg.ImageEndpoint,
				Logger:  logger,
			})
			if err != nil {
				return eris.Wrap(err, "creating image client")
			}
		}

		prompts, err := generate.NewPromptGenerator(generate.PromptGeneratorOptions{
			Completer: llmClient,
			Model:     cfg.UtilityModel(),
			Logger:    logger,
		})
		if err != nil {
			return eris.Wrap(err, "initialising prompt generator")
		}

		images, err := generate.NewImageGenerator(generate.ImageGeneratorOptions{
			Caller: imageClient,
			Model:  cfg.ImageModel,
			Logger: logger,
		})
		if err != nil {
			return eris.Wrap(err, "initialising image generator")
		}

		pipelineOpts.Prompts = prompts
		pipelineOpts.Images = images
	}

	contentPipeline, err := pipeline.New(pipelineOpts)
	if err != nil {
		return eris.Wrap(err, "building content pipeline")
	}

	serverOpts := apphttp.Options{
		Runner:                contentPipeline,
		Selector:              topics.NewSelector(nil),
		History:               store,
		CMS:                   cmsClient,
		Database:              dbConn,
		CronSecret:            cfg.CronSecret,
		TelegramWebhookSecret: cfg.TelegramWebhookSecret,
		GenerateImages:        cfg.ImagesEnabled(),
		Logger:                logger,
		SentryHub:             sentryHub,
	}

	if cfg.TelegramBotToken != "" {
		botClient, err := telegram.NewClient(telegram.ClientOptions{
			BotToken: cfg.TelegramBotToken,
			Logger:   logger,
		})
		if err != nil {
			return eris.Wrap(err, "creating telegram client")
		}

		analyzer, err := analyze.New(analyze.Options{
			Completer: llmClient,
			Model:     cfg.UtilityModel(),
			Logger:    logger,
		})
		if err != nil {
			return eris.Wrap(err, "initialising analyzer")
		}

		botHandler, err := telegram.NewHandler(telegram.HandlerOptions{
			Bot:          botClient,
			Analyzer:     analyzer,
			Runner:       contentPipeline,
			Health:       cmsClient,
			AllowedUsers: cfg.TelegramAllowedUsers,
			Logger:       logger,
		})
		if err != nil {
			return eris.Wrap(err, "initialising telegram handler")
		}

		serverOpts.Telegram = botHandler
	}

	transport, err := apphttp.NewServer(serverOpts)
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr": httpServer.Addr,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
