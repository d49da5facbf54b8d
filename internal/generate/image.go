package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/llm"
)

// ImageCaller abstracts the image generation call for testability.
type ImageCaller interface {
	GenerateImage(ctx context.Context, req llm.ImageRequest) (string, error)
}

// Image is a generated hero image ready for upload.
type Image struct {
	URL     string
	Prompt  string
	AltText string
	Width   int
	Height  int
}

// Hero image rendering parameters.
const (
	imageSize    = "1792x1024"
	imageQuality = "standard"
	imageStyle   = "natural"
	imageWidth   = 1792
	imageHeight  = 1024
)

// ImageGeneratorOptions configures the hero image generator.
type ImageGeneratorOptions struct {
	Caller ImageCaller
	Model  string
	Logger *logrus.Logger
}

// ImageGenerator renders hero images through an image provider.
type ImageGenerator struct {
	caller ImageCaller
	model  string
	logger *logrus.Logger
}

// NewImageGenerator constructs an ImageGenerator.
func NewImageGenerator(opts ImageGeneratorOptions) (*ImageGenerator, error) {
	if opts.Caller == nil {
		return nil, eris.New("image caller is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("image model is required")
	}

	return &ImageGenerator{caller: opts.Caller, model: model, logger: opts.Logger}, nil
}

// Generate renders a single hero image for the prompt.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string, article *Article) (*Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, eris.New("image prompt is required")
	}

	url, err := g.caller.GenerateImage(ctx, llm.ImageRequest{
		Model:   g.model,
		Prompt:  prompt,
		Size:    imageSize,
		Quality: imageQuality,
		Style:   imageStyle,
	})
	if err != nil {
		g.logError(logrus.Fields{"model": g.model}, err, "generating hero image")
		return nil, eris.Wrap(err, "generating hero image")
	}

	return &Image{
		URL:     url,
		Prompt:  prompt,
		AltText: AltText(article),
		Width:   imageWidth,
		Height:  imageHeight,
	}, nil
}

// Filename derives the upload filename for an article's hero image.
func Filename(slug string, now time.Time) string {
	return fmt.Sprintf("%s-hero-%d.png", slug, now.UnixMilli())
}

func (g *ImageGenerator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
