package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/llm"
	"autoblog/app/internal/topics"
)

// ErrDegeneratePrompt indicates the model produced an empty or implausibly
// short image prompt.
var ErrDegeneratePrompt = eris.New("empty or too-short image prompt")

const minPromptLength = 20

const imagePromptSystem = `You generate DALL-E 3 prompts for professional blog hero images. Given a structured article (JSON), output exactly one image prompt, nothing else, no explanation, no markdown.

Rules: Match the article's topic and key ideas. Use title, description, content.
Style: Modern, minimal, corporate. Colors: blues, teals, whites. No text, logos, faces, hands, clutter, or dark imagery.
Output only the raw DALL-E prompt, 2-4 sentences.`

const contentSnippetLength = 1200

// PromptGeneratorOptions configures the image prompt generator.
type PromptGeneratorOptions struct {
	Completer Completer
	Model     string
	Logger    *logrus.Logger
}

// PromptGenerator derives hero image prompts from generated articles.
type PromptGenerator struct {
	completer Completer
	model     string
	logger    *logrus.Logger
}

// NewPromptGenerator constructs a PromptGenerator.
func NewPromptGenerator(opts PromptGeneratorOptions) (*PromptGenerator, error) {
	if opts.Completer == nil {
		return nil, eris.New("completer is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("prompt model is required")
	}

	return &PromptGenerator{completer: opts.Completer, model: model, logger: opts.Logger}, nil
}

// Generate asks the utility model for a single image prompt matching the article.
func (g *PromptGenerator) Generate(ctx context.Context, article *Article) (string, error) {
	if article == nil {
		return "", eris.New("article is nil")
	}

	payload, err := json.MarshalIndent(map[string]string{
		"title":          article.Title,
		"description":    article.Description,
		"contentSnippet": contentSnippet(article.Content),
	}, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "encoding article payload")
	}

	user := fmt.Sprintf("Article (JSON):\n```json\n%s\n```\nGenerate a single DALL-E 3 image prompt. Output only the prompt.", payload)

	raw, err := g.completer.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		System:      imagePromptSystem,
		User:        user,
		Temperature: 0.4,
		MaxTokens:   512,
	})
	if err != nil {
		g.logError(logrus.Fields{"slug": article.Slug}, err, "generating image prompt")
		return "", eris.Wrap(err, "generating image prompt")
	}

	prompt := strings.TrimSpace(raw)
	prompt = strings.Trim(prompt, `"'`)

	if len(prompt) < minPromptLength {
		err := eris.Wrapf(ErrDegeneratePrompt, "got %d characters", len(prompt))
		g.logError(logrus.Fields{"slug": article.Slug}, err, "rejecting image prompt")
		return "", err
	}

	return prompt, nil
}

func contentSnippet(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if len(collapsed) <= contentSnippetLength {
		return collapsed
	}

	cut := contentSnippetLength
	for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
		cut--
	}
	return collapsed[:cut]
}

func (g *PromptGenerator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// pillarVisuals maps pillar slugs to hardcoded visual-element phrases used by
// the rule-based fallback prompt.
var pillarVisuals = map[string]string{
	"ai-automation": `Elements: Abstract neural network with luminous blue nodes connected by flowing data streams.
Style details: Glowing particles, circuit-inspired patterns, soft gradients suggesting computation.
Background: Subtle grid pattern fading into depth with floating geometric shapes.`,

	"digital-assets": `Elements: Interlocking hexagonal blockchain pattern with golden accent highlights.
Style details: Secure vault metaphors, tokenized asset abstractions, network connectivity.
Background: Deep blue gradient with digital grid and floating geometric asset icons.`,

	"consulting": `Elements: Abstract strategic roadmap with ascending pathways and milestone markers.
Style details: Growth visualization, transformation metaphors, data-driven decision imagery.
Background: Gradient from deep navy to lighter horizon with subtle chart elements.`,

	"industry-news": `Elements: Global network visualization with pulsing connection points across continents.
Style details: Dynamic energy, innovation signals, technology evolution concepts.
Background: Dynamic gradient suggesting movement and change with abstract iconography.`,
}

// FallbackPrompt builds a deterministic hero image prompt when the model
// produced an unusable one.
func FallbackPrompt(article *Article) string {
	themes := extractThemes(article)
	visuals, ok := pillarVisuals[article.Pillar]
	if !ok {
		visuals = pillarVisuals["ai-automation"]
	}

	return strings.TrimSpace(fmt.Sprintf(`Professional blog header image for an article titled "%s".

Topic themes: %s

%s

Style: Modern, clean, minimalist corporate aesthetic with depth and dimension.
Color palette: Professional blues, teals, and clean whites.
Composition: Balanced asymmetric layout with clear focal point and negative space.
Mood: Innovative, forward-thinking, trustworthy, professional.
Quality: Photorealistic rendering, high resolution, suitable for web headers.

IMPORTANT: NO text, NO logos, NO human faces, NO hands, NO cluttered elements.`,
		article.Title, strings.Join(themes, ", "), visuals))
}

// AltText builds SEO-friendly alt text for the article's hero image.
func AltText(article *Article) string {
	pillarName := "technology"
	if pillar, ok := topics.GetPillar(article.Pillar); ok {
		pillarName = strings.ToLower(pillar.Name)
	}

	themes := extractThemes(article)
	if len(themes) > 2 {
		themes = themes[:2]
	}

	return fmt.Sprintf("Abstract visualization representing %s in %s with professional blue gradients",
		strings.Join(themes, " and "), pillarName)
}

var stopWords = map[string]bool{
	"with": true,
	"from": true,
	"into": true,
	"your": true,
	"that": true,
}

func extractThemes(article *Article) []string {
	var themes []string
	seen := map[string]bool{}

	add := func(theme string) {
		theme = strings.TrimSpace(theme)
		if theme == "" || seen[theme] {
			return
		}
		seen[theme] = true
		themes = append(themes, theme)
	}

	for i, tag := range article.Tags {
		if i >= 3 {
			break
		}
		add(tag)
	}

	picked := 0
	for _, word := range strings.Fields(strings.ToLower(article.Title)) {
		if picked >= 2 {
			break
		}
		if len(word) <= 4 || stopWords[word] {
			continue
		}
		add(word)
		picked++
	}

	if len(themes) > 5 {
		themes = themes[:5]
	}

	return themes
}
