package cms

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/generate"
)

// API is the slice of the CMS client the publisher needs.
type API interface {
	CategoryBySlug(ctx context.Context, slug string) string
	CreateArticle(ctx context.Context, data ArticleData, publish bool) (*CreatedArticle, error)
}

// PublishedArticle identifies the article after a successful create.
type PublishedArticle struct {
	DocumentID string
	Slug       string
}

// PublisherOptions configures the article publisher.
type PublisherOptions struct {
	API    API
	Logger *logrus.Logger
}

// Publisher transforms generated articles into CMS payloads and creates them.
type Publisher struct {
	api    API
	logger *logrus.Logger
}

// NewPublisher constructs a Publisher.
func NewPublisher(opts PublisherOptions) (*Publisher, error) {
	if opts.API == nil {
		return nil, eris.New("cms api is required")
	}

	return &Publisher{api: opts.API, logger: opts.Logger}, nil
}

const (
	richTextComponent = "shared.rich-text"

	publishTitleLimit       = 100
	publishDescriptionLimit = 80
)

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// Publish creates the article in the CMS. The category lookup is best-effort
// and an optional cover is connected by documentId.
func (p *Publisher) Publish(ctx context.Context, article *generate.Article, coverDocumentID string, publish bool) (*PublishedArticle, error) {
	if article == nil {
		return nil, eris.New("article is nil")
	}

	if strings.TrimSpace(article.Slug) == "" {
		return nil, eris.New("article slug is required")
	}

	data := ArticleData{
		Title:       generate.Truncate(article.Title, publishTitleLimit),
		Slug:        article.Slug,
		Description: generate.Truncate(article.Description, publishDescriptionLimit),
		Blocks:      SplitBlocks(article.Content, article.Description),
	}

	if category := p.api.CategoryBySlug(ctx, article.Pillar); category != "" {
		data.Category = category
	}

	if coverDocumentID != "" {
		data.Cover = &CoverConnect{Connect: []string{coverDocumentID}}
	}

	created, err := p.api.CreateArticle(ctx, data, publish)
	if err != nil {
		p.logError(logrus.Fields{"slug": article.Slug}, err, "publishing article")
		return nil, err
	}

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"slug":       created.Slug,
			"documentId": created.DocumentID,
			"published":  publish,
		}).Info("article stored in cms")
	}

	return &PublishedArticle{DocumentID: created.DocumentID, Slug: created.Slug}, nil
}

// SplitBlocks converts markdown content into rich-text blocks, one per
// blank-line separated paragraph. Empty content falls back to a single block
// holding the description.
func SplitBlocks(content, description string) []Block {
	var blocks []Block

	if strings.TrimSpace(content) != "" {
		for _, paragraph := range paragraphSplit.Split(strings.TrimSpace(content), -1) {
			trimmed := strings.TrimSpace(paragraph)
			if trimmed == "" {
				continue
			}
			blocks = append(blocks, Block{Component: richTextComponent, Body: trimmed})
		}
	}

	if len(blocks) == 0 {
		body := description
		if strings.TrimSpace(body) == "" {
			body = "Article content"
		}
		blocks = []Block{{Component: richTextComponent, Body: body}}
	}

	return blocks
}

func (p *Publisher) logError(fields logrus.Fields, err error, message string) {
	if p.logger == nil || err == nil {
		return
	}

	entry := p.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
