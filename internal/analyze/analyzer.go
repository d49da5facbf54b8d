package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"autoblog/app/internal/llm"
)

const (
	maxBodySize    = 5 << 20
	maxTextLength  = 10000
	browserUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout = 15 * time.Second
)

// Completer abstracts the chat completion call for testability.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Fetched is the readable content pulled from a URL.
type Fetched struct {
	Title   string
	Content string
	URL     string
}

// Analysis is the model's suggestion for generating similar original content.
type Analysis struct {
	Title             string   `json:"title"`
	Topic             string   `json:"topic"`
	KeyPoints         []string `json:"keyPoints"`
	SuggestedPillar   string   `json:"suggestedPillar"`
	SuggestedTemplate string   `json:"suggestedTemplate"`
	Keywords          []string `json:"keywords"`
	Tone              string   `json:"tone"`
	TargetAudience    string   `json:"targetAudience"`
}

const analysisSystemPrompt = `You are an expert content analyst. Analyze the provided article and extract key information to help generate a similar but original article.

Your analysis should identify:
1. The main topic and angle
2. Key points covered
3. Which content pillar it fits (ai-automation, digital-assets, consulting, industry-news)
4. The most appropriate article template
5. Relevant keywords for SEO
6. The writing tone and target audience

Available pillars:
- ai-automation: AI tools, LLMs, automation workflows, chatbots, machine learning applications
- digital-assets: Cryptocurrency, blockchain, tokenization, NFTs, Web3
- consulting: Business strategy, digital transformation, ROI analysis, frameworks
- industry-news: Tech news, AI developments, market trends, company announcements

Available templates:
- how-to-guide: Step-by-step tutorials
- tutorial: In-depth technical guides
- news-analysis: Analysis of current events/trends
- market-analysis: Market trends and data analysis
- thought-leadership: Expert opinions and predictions
- explainer: Educational content explaining concepts
- prediction: Future trends and forecasts
- framework: Strategic frameworks and methodologies

Respond with a JSON object.`

// Options configures the analyzer.
type Options struct {
	Completer  Completer
	Model      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Analyzer fetches articles from URLs and asks the utility model for
// generation suggestions.
type Analyzer struct {
	completer  Completer
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// New constructs an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Completer == nil {
		return nil, eris.New("completer is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("analysis model is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Analyzer{
		completer:  opts.Completer,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Fetch downloads the page and extracts its readable title and text.
func (a *Analyzer) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, eris.Errorf("invalid article url: %s", rawURL)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building fetch request")
	}
	request.Header.Set("User-Agent", browserUA)
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	response, err := a.httpClient.Do(request)
	if err != nil {
		a.logError(logrus.Fields{"url": rawURL}, err, "fetching article")
		return nil, eris.Wrap(err, "fetching article")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		err := eris.Errorf("failed to fetch url: status %d", response.StatusCode)
		a.logError(logrus.Fields{"url": rawURL}, err, "fetching article")
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrap(err, "reading article body")
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		a.logError(logrus.Fields{"url": rawURL}, err, "extracting readable content")
		return nil, eris.Wrap(err, "extracting readable content")
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = documentTitle(string(body))
	}
	if title == "" {
		title = "Untitled Article"
	}

	content := collapseWhitespace(article.TextContent)
	if len(content) > maxTextLength {
		content = content[:maxTextLength]
	}

	if content == "" {
		return nil, eris.New("page contained no readable text")
	}

	return &Fetched{Title: title, Content: content, URL: rawURL}, nil
}

// Analyze asks the utility model for topic suggestions for the fetched article.
func (a *Analyzer) Analyze(ctx context.Context, fetched *Fetched) (*Analysis, error) {
	if fetched == nil {
		return nil, eris.New("fetched article is nil")
	}

	user := fmt.Sprintf(`Analyze this article and provide suggestions for generating similar content:

Title: %s

Content:
%s

URL: %s

Respond with JSON in this exact format:
{
  "title": "A new suggested title for a similar article (not a copy)",
  "topic": "The main topic to write about",
  "keyPoints": ["Point 1", "Point 2", "Point 3"],
  "suggestedPillar": "ai-automation|digital-assets|consulting|industry-news",
  "suggestedTemplate": "how-to-guide|tutorial|news-analysis|market-analysis|thought-leadership|explainer|prediction|framework",
  "keywords": ["keyword1", "keyword2", "keyword3"],
  "tone": "Description of the writing tone",
  "targetAudience": "Who this content is for"
}`, fetched.Title, fetched.Content, fetched.URL)

	raw, err := a.completer.Complete(ctx, llm.CompletionRequest{
		Model:     a.model,
		System:    analysisSystemPrompt,
		User:      user,
		MaxTokens: 1500,
	})
	if err != nil {
		a.logError(logrus.Fields{"url": fetched.URL}, err, "analyzing article")
		return nil, eris.Wrap(err, "analyzing article")
	}

	payload, err := llm.ExtractJSON(raw)
	if err != nil {
		a.logError(logrus.Fields{"url": fetched.URL}, err, "extracting analysis json")
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, eris.Wrap(err, "decoding analysis json")
	}

	if analysis.Topic == "" || analysis.SuggestedPillar == "" || analysis.SuggestedTemplate == "" {
		return nil, eris.New("analysis response is missing required fields")
	}

	return &analysis, nil
}

// AnalyzeURL fetches and analyzes in one step.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL string) (*Analysis, error) {
	fetched, err := a.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, fetched)
}

// AnalyzeText analyzes pasted text instead of a URL.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*Analysis, error) {
	content := collapseWhitespace(text)
	if len(content) > maxTextLength {
		content = content[:maxTextLength]
	}
	if content == "" {
		return nil, eris.New("text is empty")
	}

	return a.Analyze(ctx, &Fetched{Title: "User Submitted Content", Content: content})
}

// BuildTopic composes the generation topic from an analysis, preferring an
// explicit custom topic when the user provided one.
func BuildTopic(analysis *Analysis, customTopic string) string {
	if strings.TrimSpace(customTopic) != "" {
		return customTopic
	}

	points := analysis.KeyPoints
	if len(points) > 3 {
		points = points[:3]
	}

	return fmt.Sprintf("%s. Focus on: %s. Target audience: %s",
		analysis.Topic, strings.Join(points, ", "), analysis.TargetAudience)
}

// documentTitle extracts the <title> element from raw HTML.
func documentTitle(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(tokenizer.Token().Data)
				}
				return ""
			}
		}
	}
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (a *Analyzer) logError(fields logrus.Fields, err error, message string) {
	if a.logger == nil || err == nil {
		return
	}

	entry := a.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
