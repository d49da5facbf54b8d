package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/cms"
	"autoblog/app/internal/config"
	appdb "autoblog/app/internal/db"
	"autoblog/app/internal/generate"
	"autoblog/app/internal/history"
	"autoblog/app/internal/llm"
	applog "autoblog/app/internal/log"
	"autoblog/app/internal/pipeline"
	"autoblog/app/internal/revalidate"
	"autoblog/app/internal/topics"
)

type cliFlags struct {
	dryRun   bool
	noImage  bool
	draft    bool
	force    bool
	rotate   bool
	topic    string
	pillar   string
	template string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var flags cliFlags
	flag.BoolVar(&flags.dryRun, "dry-run", false, "select a topic and print the request without generating")
	flag.BoolVar(&flags.noImage, "no-image", false, "skip hero image generation")
	flag.BoolVar(&flags.draft, "draft", false, "create the article as a draft instead of publishing")
	flag.BoolVar(&flags.force, "force", false, "run even when a post already succeeded today")
	flag.BoolVar(&flags.rotate, "rotate", false, "use the deterministic weekday pillar rotation instead of the weighted draw")
	flag.StringVar(&flags.topic, "topic", "", "explicit topic text, bypasses selection")
	flag.StringVar(&flags.pillar, "pillar", "", "restrict selection to one pillar, or the pillar for -topic")
	flag.StringVar(&flags.template, "template", "", "content template for the article")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

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

	if !flags.force && !flags.dryRun {
		posted, err := store.SuccessOn(ctx, time.Now())
		if err != nil {
			return eris.Wrap(err, "checking today's run")
		}
		if posted {
			fmt.Println("A post already succeeded today. Use -force to run again.")
			return nil
		}
	}

	input, err := buildInput(ctx, flags, cfg, store, time.Now())
	if err != nil {
		return err
	}

	if flags.dryRun {
		fmt.Println("Dry run, nothing will be generated.")
		fmt.Printf("  topic:    %s\n", input.Topic)
		fmt.Printf("  pillar:   %s\n", input.Pillar)
		fmt.Printf("  template: %s\n", input.Template)
		fmt.Printf("  keywords: %s\n", strings.Join(input.Keywords, ", "))
		fmt.Printf("  image:    %t\n", input.GenerateImage)
		fmt.Printf("  publish:  %t\n", input.Publish)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return eris.Wrap(err, "invalid configuration")
	}

	contentPipeline, err := buildPipeline(cfg, logger, store)
	if err != nil {
		return err
	}

	fmt.Printf("Generating article for topic: %s [%s/%s]\n", input.Topic, input.Pillar, input.Template)

	result := contentPipeline.Run(ctx, input)

	for _, stage := range result.Stages {
		line := fmt.Sprintf("  %-16s %s", stage.Name, stage.Status)
		if stage.Err != nil {
			line += " (" + stage.Err.Error() + ")"
		}
		fmt.Println(line)
	}

	if !result.Success {
		if result.Err != nil {
			return eris.Wrap(result.Err, "pipeline run failed")
		}
		return eris.New("pipeline run failed")
	}

	fmt.Printf("Published %q as %s (documentId %s, cover: %t) in %s\n",
		result.Article.Title, result.Slug, result.DocumentID, result.HasCover, result.Duration.Round(time.Millisecond))

	return nil
}

// buildInput resolves the pipeline input from the flags, falling back to
// weighted selection over the topic bank with recent topics excluded.
func buildInput(ctx context.Context, flags cliFlags, cfg *config.Config, store history.Store, now time.Time) (pipeline.Input, error) {
	generateImage := cfg.ImagesEnabled() && !flags.noImage

	if flags.topic != "" {
		pillar := flags.pillar
		if pillar == "" {
			pillar = "ai-automation"
		}
		if _, ok := topics.GetPillar(pillar); !ok {
			return pipeline.Input{}, eris.Errorf("unknown pillar: %s", pillar)
		}

		template := flags.template
		if template == "" {
			template, _ = topics.DefaultTemplate(pillar)
		}

		return pipeline.Input{
			Topic:         flags.topic,
			Pillar:        pillar,
			Template:      template,
			GenerateImage: generateImage,
			Publish:       !flags.draft,
		}, nil
	}

	excluded, err := store.RecentKeys(ctx, 0, history.Keep)
	if err != nil {
		return pipeline.Input{}, eris.Wrap(err, "loading recent topic keys")
	}

	selector := topics.NewSelector(nil)

	var topic topics.Topic
	switch {
	case flags.pillar != "":
		topic, err = selector.FromPillar(flags.pillar, excluded)
		if err != nil {
			return pipeline.Input{}, eris.Wrap(err, "selecting topic")
		}
	case flags.rotate:
		topic = selector.Rotation(now, excluded)
	default:
		topic = selector.Weighted(excluded)
	}

	template := flags.template
	if template == "" {
		template = topic.Template
	}

	return pipeline.Input{
		Topic:         topic.Text,
		Pillar:        topic.Pillar,
		Template:      template,
		Keywords:      topic.Keywords,
		GenerateImage: generateImage,
		Publish:       !flags.draft,
	}, nil
}

func buildPipeline(cfg *config.Config, logger *logrus.Logger, store history.Store) (*pipeline.Pipeline, error) {
	llmClient, err := llm.NewClient(llm.ClientOptions{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMEndpoint,
		Logger:  logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating llm client")
	}

	articles, err := generate.NewArticleGenerator(generate.ArticleGeneratorOptions{
		Completer: llmClient,
		Model:     cfg.ArticleModel(),
		Logger:    logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "initialising article generator")
	}

	cmsClient, err := cms.NewClient(cms.ClientOptions{
		BaseURL: cfg.CMSURL,
		Token:   cfg.CMSToken,
		Logger:  logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating cms client")
	}

	publisher, err := cms.NewPublisher(cms.PublisherOptions{API: cmsClient, Logger: logger})
	if err != nil {
		return nil, eris.Wrap(err, "initialising publisher")
	}

	revalidator := revalidate.New(revalidate.Options{
		SiteURL: cfg.SiteURL,
		Secret:  cfg.RevalidationSecret,
		Logger:  logger,
	})

	opts := pipeline.Options{
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
				return nil, eris.Wrap(err, "creating image client")
			}
		}

		prompts, err := generate.NewPromptGenerator(generate.PromptGeneratorOptions{
			Completer: llmClient,
			Model:     cfg.UtilityModel(),
			Logger:    logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "initialising prompt generator")
		}

		images, err := generate.NewImageGenerator(generate.ImageGeneratorOptions{
			Caller: imageClient,
			Model:  cfg.ImageModel,
			Logger: logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "initialising image generator")
		}

		opts.Prompts = prompts
		opts.Images = images
	}

	return pipeline.New(opts)
}
