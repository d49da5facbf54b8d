package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/llm"
	"autoblog/app/internal/topics"
)

// Completer abstracts the chat completion call for testability.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// SEO holds the article's search metadata.
type SEO struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
}

// Article is the canonical generated article shape used by every entry point.
type Article struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	SEO         SEO      `json:"seo"`
	ReadingTime int      `json:"readingTime"`
	Pillar      string   `json:"pillar"`
	Template    string   `json:"template"`
}

// Request describes what article to generate.
type Request struct {
	Topic        string
	Pillar       string
	Template     string
	Keywords     []string
	TargetLength string
}

// Field limits imposed by the CMS schema.
const (
	maxTitleLength           = 100
	maxDescriptionLength     = 80
	maxExcerptLength         = 200
	maxMetaTitleLength       = 60
	maxMetaDescriptionLength = 160
	maxSlugLength            = 60
)

const articleSystemPrompt = `You are a professional content writer for an AI and automation consulting blog. You write practical, well-structured articles in Markdown with clear H2 headings, concrete examples, and actionable advice.

Always return your response as a single valid JSON object with this exact shape and nothing else:
{
  "title": "SEO optimized title, 50-60 characters",
  "slug": "url-friendly-slug",
  "description": "Brief meta description under 80 characters",
  "excerpt": "Engaging summary, 150-200 characters",
  "content": "Full article in Markdown format",
  "tags": ["three", "to", "five", "tags"],
  "seo": {
    "metaTitle": "Meta title under 60 characters",
    "metaDescription": "Meta description under 160 characters"
  }
}`

var lengthGuidance = map[string]string{
	"short":  "600-800 words",
	"medium": "1,000-1,500 words",
	"long":   "1,500-2,500 words",
}

// ArticleGeneratorOptions configures the article generator.
type ArticleGeneratorOptions struct {
	Completer   Completer
	Model       string
	Temperature float64
	Logger      *logrus.Logger
}

// ArticleGenerator produces publish-ready articles from a topic request.
type ArticleGenerator struct {
	completer   Completer
	model       string
	temperature float64
	logger      *logrus.Logger
}

const defaultArticleTemperature = 0.7

// NewArticleGenerator constructs an ArticleGenerator.
func NewArticleGenerator(opts ArticleGeneratorOptions) (*ArticleGenerator, error) {
	if opts.Completer == nil {
		return nil, eris.New("completer is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("article model is required")
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultArticleTemperature
	}

	return &ArticleGenerator{
		completer:   opts.Completer,
		model:       model,
		temperature: temperature,
		logger:      opts.Logger,
	}, nil
}

// Generate produces an article for the request, applying the CMS field limits.
func (g *ArticleGenerator) Generate(ctx context.Context, req Request) (*Article, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, eris.New("topic is required")
	}

	pillar, ok := topics.GetPillar(req.Pillar)
	if !ok {
		return nil, eris.Errorf("unknown content pillar: %s", req.Pillar)
	}

	template := strings.TrimSpace(req.Template)
	if template == "" {
		template = pillar.Templates[0]
	}

	raw, err := g.completer.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		System:      articleSystemPrompt,
		User:        buildArticlePrompt(req, pillar, template),
		Temperature: g.temperature,
		MaxTokens:   8192,
	})
	if err != nil {
		g.logError(logrus.Fields{"topic": topic}, err, "generating article")
		return nil, eris.Wrap(err, "generating article")
	}

	payload, err := llm.ExtractJSON(raw)
	if err != nil {
		g.logError(logrus.Fields{"topic": topic}, err, "extracting article json")
		return nil, err
	}

	var article Article
	if err := json.Unmarshal([]byte(payload), &article); err != nil {
		g.logError(logrus.Fields{"topic": topic}, err, "decoding article json")
		return nil, eris.Wrap(err, "decoding article json")
	}

	if strings.TrimSpace(article.Title) == "" {
		return nil, eris.New("generated article is missing a title")
	}

	if strings.TrimSpace(article.Content) == "" {
		return nil, eris.New("generated article is missing content")
	}

	article.Pillar = req.Pillar
	article.Template = template
	normalize(&article)

	return &article, nil
}

func buildArticlePrompt(req Request, pillar topics.Pillar, template string) string {
	length := lengthGuidance[req.TargetLength]
	if length == "" {
		length = lengthGuidance["medium"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Article Request\n\n")
	fmt.Fprintf(&b, "**Topic:** %s\n", req.Topic)
	fmt.Fprintf(&b, "**Content Pillar:** %s\n", pillar.Name)
	fmt.Fprintf(&b, "**Article Type:** %s\n", template)
	fmt.Fprintf(&b, "**Target Length:** %s\n\n", length)
	fmt.Fprintf(&b, "## Pillar-Specific Guidance\n\n")
	fmt.Fprintf(&b, "**Tone:** %s\n", pillar.Tone)
	fmt.Fprintf(&b, "**Target Keywords:** %s\n", strings.Join(pillar.TargetKeywords, ", "))
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "**Additional Keywords:** %s\n", strings.Join(req.Keywords, ", "))
	}
	fmt.Fprintf(&b, "\n## Instructions\n\n")
	b.WriteString("Generate a complete, publish-ready article on the topic above. Return your response as valid JSON matching the required schema.\n\n")
	b.WriteString("Remember:\n")
	b.WriteString("- Title should be 50-60 characters, SEO-optimized\n")
	b.WriteString("- Description must be under 80 characters\n")
	b.WriteString("- Excerpt should be 150-200 characters\n")
	b.WriteString("- Content should be well-structured Markdown with H2 headings\n")
	b.WriteString("- Include 3-5 relevant tags\n")

	return b.String()
}

// normalize applies slug derivation, field truncation and reading time.
func normalize(article *Article) {
	if strings.TrimSpace(article.Slug) == "" {
		article.Slug = Slugify(article.Title)
	} else {
		article.Slug = Slugify(article.Slug)
	}

	if strings.TrimSpace(article.Description) == "" {
		article.Description = article.Excerpt
	}

	if strings.TrimSpace(article.SEO.MetaTitle) == "" {
		article.SEO.MetaTitle = article.Title
	}

	if strings.TrimSpace(article.SEO.MetaDescription) == "" {
		article.SEO.MetaDescription = article.Excerpt
	}

	article.Title = Truncate(article.Title, maxTitleLength)
	article.Description = Truncate(article.Description, maxDescriptionLength)
	article.Excerpt = Truncate(article.Excerpt, maxExcerptLength)
	article.SEO.MetaTitle = Truncate(article.SEO.MetaTitle, maxMetaTitleLength)
	article.SEO.MetaDescription = Truncate(article.SEO.MetaDescription, maxMetaDescriptionLength)

	if article.Tags == nil {
		article.Tags = []string{}
	}

	if article.ReadingTime <= 0 {
		article.ReadingTime = ReadingTime(article.Content)
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-friendly slug: lowercase, alphanumerics and hyphens
// only, capped at 60 characters.
func Slugify(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

// Truncate shortens text to maxLength bytes, appending an ellipsis when it
// cuts. The cut lands on the last word boundary before the limit so it never
// splits a word or a multi-byte rune.
func Truncate(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}

	cut := maxLength - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if space := strings.LastIndexByte(text[:cut], ' '); space > 0 {
		cut = space
	}

	return strings.TrimSpace(text[:cut]) + "..."
}

func (g *ArticleGenerator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
