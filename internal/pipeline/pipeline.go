package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/cms"
	"autoblog/app/internal/generate"
	"autoblog/app/internal/history"
	"autoblog/app/internal/topics"
)

// Stage names, in execution order.
const (
	StageGenerateArticle = "generate-article"
	StageGenerateImage   = "generate-image"
	StageUploadImage     = "upload-image"
	StagePublish         = "publish"
	StageRevalidate      = "revalidate"
)

// Stage statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
)

// StageResult records the outcome of one pipeline stage.
type StageResult struct {
	Name     string
	Status   string
	Duration time.Duration
	Err      error
}

// Result is the outcome of a full pipeline run.
type Result struct {
	Success    bool
	Article    *generate.Article
	DocumentID string
	Slug       string
	HasCover   bool
	Err        error
	Stages     []StageResult
	Duration   time.Duration
}

// Input describes one pipeline run.
type Input struct {
	Topic         string
	Pillar        string
	Template      string
	Keywords      []string
	GenerateImage bool
	Publish       bool
}

// ArticleGenerator produces the article for a topic request.
type ArticleGenerator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Article, error)
}

// PromptGenerator derives a hero image prompt from an article.
type PromptGenerator interface {
	Generate(ctx context.Context, article *generate.Article) (string, error)
}

// ImageGenerator renders the hero image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, article *generate.Article) (*generate.Image, error)
}

// Uploader stores the rendered image in the CMS media library.
type Uploader interface {
	UploadImageFromURL(ctx context.Context, imageURL, filename, altText string) (*cms.Media, error)
}

// Publisher creates the article in the CMS.
type Publisher interface {
	Publish(ctx context.Context, article *generate.Article, coverDocumentID string, publish bool) (*cms.PublishedArticle, error)
}

// Revalidator refreshes the frontend cache after publishing.
type Revalidator interface {
	Run(ctx context.Context, slug string)
}

// Recorder persists the run outcome for recency tracking.
type Recorder interface {
	Record(ctx context.Context, record *history.Record) error
}

// Options wires the pipeline's collaborators. Articles and Publisher are
// mandatory; the image pair, revalidator and recorder are optional.
type Options struct {
	Articles    ArticleGenerator
	Prompts     PromptGenerator
	Images      ImageGenerator
	Uploader    Uploader
	Publisher   Publisher
	Revalidator Revalidator
	Recorder    Recorder
	Logger      *logrus.Logger
	Now         func() time.Time
}

// Pipeline sequences article generation, hero image handling, publishing
// and revalidation. Image stages degrade on failure; article generation and
// publishing abort the run.
type Pipeline struct {
	articles    ArticleGenerator
	prompts     PromptGenerator
	images      ImageGenerator
	uploader    Uploader
	publisher   Publisher
	revalidator Revalidator
	recorder    Recorder
	logger      *logrus.Logger
	now         func() time.Time
}

// New constructs a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Articles == nil {
		return nil, eris.New("article generator is required")
	}

	if opts.Publisher == nil {
		return nil, eris.New("publisher is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		articles:    opts.Articles,
		prompts:     opts.Prompts,
		images:      opts.Images,
		uploader:    opts.Uploader,
		publisher:   opts.Publisher,
		revalidator: opts.Revalidator,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         now,
	}, nil
}

// Run executes the pipeline for one topic.
func (p *Pipeline) Run(ctx context.Context, input Input) *Result {
	started := p.now()
	result := &Result{}

	article, stage := p.runGenerateArticle(ctx, input)
	result.Stages = append(result.Stages, stage)
	if stage.Status == StatusFailed {
		result.Err = stage.Err
		result.Duration = p.now().Sub(started)
		p.record(ctx, input, result)
		return result
	}
	result.Article = article

	coverDocumentID := p.runImageStages(ctx, input, article, result)

	published, stage := p.runPublish(ctx, article, coverDocumentID, input.Publish)
	result.Stages = append(result.Stages, stage)
	if stage.Status == StatusFailed {
		result.Err = stage.Err
		result.Duration = p.now().Sub(started)
		p.record(ctx, input, result)
		return result
	}

	result.DocumentID = published.DocumentID
	result.Slug = published.Slug
	result.HasCover = coverDocumentID != ""
	result.Success = true

	result.Stages = append(result.Stages, p.runRevalidate(ctx, published.Slug))

	result.Duration = p.now().Sub(started)
	p.record(ctx, input, result)

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"slug":       result.Slug,
			"documentId": result.DocumentID,
			"hasCover":   result.HasCover,
			"duration":   result.Duration.String(),
		}).Info("pipeline run complete")
	}

	return result
}

func (p *Pipeline) runGenerateArticle(ctx context.Context, input Input) (*generate.Article, StageResult) {
	started := p.now()

	article, err := p.articles.Generate(ctx, generate.Request{
		Topic:    input.Topic,
		Pillar:   input.Pillar,
		Template: input.Template,
		Keywords: input.Keywords,
	})
	if err != nil {
		p.logStageError(StageGenerateArticle, err)
		return nil, StageResult{Name: StageGenerateArticle, Status: StatusFailed, Duration: p.now().Sub(started), Err: err}
	}

	return article, StageResult{Name: StageGenerateArticle, Status: StatusCompleted, Duration: p.now().Sub(started)}
}

// runImageStages handles prompt synthesis, rendering and upload. It returns
// the cover documentId, empty when the article publishes without a cover.
func (p *Pipeline) runImageStages(ctx context.Context, input Input, article *generate.Article, result *Result) string {
	if !input.GenerateImage || p.images == nil || p.prompts == nil || p.uploader == nil {
		result.Stages = append(result.Stages,
			StageResult{Name: StageGenerateImage, Status: StatusSkipped},
			StageResult{Name: StageUploadImage, Status: StatusSkipped},
		)
		return ""
	}

	started := p.now()

	prompt, err := p.prompts.Generate(ctx, article)
	if err != nil {
		// A bad prompt is recoverable: fall back to the rule-based one
		// before giving up on the stage.
		p.logStageError(StageGenerateImage, err)
		prompt = generate.FallbackPrompt(article)
	}

	image, err := p.images.Generate(ctx, prompt, article)
	if err != nil {
		p.logStageError(StageGenerateImage, err)
		result.Stages = append(result.Stages,
			StageResult{Name: StageGenerateImage, Status: StatusDegraded, Duration: p.now().Sub(started), Err: err},
			StageResult{Name: StageUploadImage, Status: StatusSkipped},
		)
		return ""
	}

	result.Stages = append(result.Stages,
		StageResult{Name: StageGenerateImage, Status: StatusCompleted, Duration: p.now().Sub(started)})

	uploadStarted := p.now()
	filename := generate.Filename(article.Slug, p.now())

	media, err := p.uploader.UploadImageFromURL(ctx, image.URL, filename, image.AltText)
	if err != nil {
		p.logStageError(StageUploadImage, err)
		result.Stages = append(result.Stages,
			StageResult{Name: StageUploadImage, Status: StatusDegraded, Duration: p.now().Sub(uploadStarted), Err: err})
		return ""
	}

	result.Stages = append(result.Stages,
		StageResult{Name: StageUploadImage, Status: StatusCompleted, Duration: p.now().Sub(uploadStarted)})

	return media.DocumentID
}

func (p *Pipeline) runPublish(ctx context.Context, article *generate.Article, coverDocumentID string, publish bool) (*cms.PublishedArticle, StageResult) {
	started := p.now()

	published, err := p.publisher.Publish(ctx, article, coverDocumentID, publish)
	if err != nil {
		p.logStageError(StagePublish, err)
		return nil, StageResult{Name: StagePublish, Status: StatusFailed, Duration: p.now().Sub(started), Err: err}
	}

	return published, StageResult{Name: StagePublish, Status: StatusCompleted, Duration: p.now().Sub(started)}
}

func (p *Pipeline) runRevalidate(ctx context.Context, slug string) StageResult {
	if p.revalidator == nil {
		return StageResult{Name: StageRevalidate, Status: StatusSkipped}
	}

	started := p.now()
	p.revalidator.Run(ctx, slug)
	return StageResult{Name: StageRevalidate, Status: StatusCompleted, Duration: p.now().Sub(started)}
}

func (p *Pipeline) record(ctx context.Context, input Input, result *Result) {
	if p.recorder == nil {
		return
	}

	record := &history.Record{
		Date:       p.now(),
		Topic:      input.Topic,
		TopicKey:   topics.KeyFor(input.Topic),
		Pillar:     input.Pillar,
		Template:   input.Template,
		Slug:       result.Slug,
		Success:    result.Success,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}

	if err := p.recorder.Record(ctx, record); err != nil && p.logger != nil {
		p.logger.WithField("error", err.Error()).Warn("recording run history failed")
	}
}

func (p *Pipeline) logStageError(stage string, err error) {
	if p.logger == nil || err == nil {
		return
	}
	p.logger.WithFields(logrus.Fields{"stage": stage, "error": err.Error()}).Error("pipeline stage error")
}
