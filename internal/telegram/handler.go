package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"autoblog/app/internal/analyze"
	"autoblog/app/internal/pipeline"
)

// Bot is the slice of the API client the handler needs.
type Bot interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error
	SendTyping(ctx context.Context, chatID int64) error
	AnswerCallback(ctx context.Context, callbackQueryID, text string) error
}

// Analyzer turns a URL or pasted text into a generation suggestion.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string) (*analyze.Analysis, error)
	AnalyzeText(ctx context.Context, text string) (*analyze.Analysis, error)
}

// Runner executes the content pipeline.
type Runner interface {
	Run(ctx context.Context, input pipeline.Input) *pipeline.Result
}

// HealthChecker reports CMS reachability for /status.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HandlerOptions configures the webhook update handler.
type HandlerOptions struct {
	Bot          Bot
	Analyzer     Analyzer
	Runner       Runner
	Health       HealthChecker
	AllowedUsers []int64
	Logger       *logrus.Logger
	Now          func() time.Time
}

// Handler processes webhook updates. All failures are reported to the chat;
// nothing propagates back to Telegram as an HTTP error, which would trigger
// redelivery.
type Handler struct {
	bot          Bot
	analyzer     Analyzer
	runner       Runner
	health       HealthChecker
	allowedUsers map[int64]struct{}
	logger       *logrus.Logger
	now          func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Bot == nil {
		return nil, eris.New("bot client is required")
	}

	if opts.Runner == nil {
		return nil, eris.New("pipeline runner is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var allowed map[int64]struct{}
	if len(opts.AllowedUsers) > 0 {
		allowed = make(map[int64]struct{}, len(opts.AllowedUsers))
		for _, id := range opts.AllowedUsers {
			allowed[id] = struct{}{}
		}
	}

	return &Handler{
		bot:          opts.Bot,
		analyzer:     opts.Analyzer,
		runner:       opts.Runner,
		health:       opts.Health,
		allowedUsers: allowed,
		logger:       opts.Logger,
		now:          now,
	}, nil
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// pastedContentMinLength separates pasted article text from chatter that
// should just get the usage hint.
const pastedContentMinLength = 200

// HandleUpdate dispatches one webhook update.
func (h *Handler) HandleUpdate(ctx context.Context, update *Update) {
	if update == nil {
		return
	}

	if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}

	chatID := update.Message.Chat.ID
	if !h.authorized(update.Message.From.ID) {
		h.send(ctx, chatID, "⛔ You are not authorized to use this bot.", nil)
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, chatID)
	case strings.HasPrefix(text, "/help"):
		h.handleHelp(ctx, chatID)
	case strings.HasPrefix(text, "/status"):
		h.handleStatus(ctx, chatID)
	default:
		if url := urlPattern.FindString(text); url != "" {
			h.handleURL(ctx, chatID, url)
			return
		}
		if h.analyzer != nil && len(text) >= pastedContentMinLength {
			h.handlePastedContent(ctx, chatID, text)
			return
		}
		h.send(ctx, chatID, "Send me an article URL to analyze.", nil)
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	message := `<b>Welcome to Autoblog!</b>

I generate original blog content inspired by articles you share.

<b>How to use:</b>
1. Send me any article URL
2. I'll analyze it and suggest a topic
3. Tap the button to generate &amp; publish

<b>Commands:</b>
/start - This message
/help - Get help
/status - Check system status

Send a URL to begin!`

	h.send(ctx, chatID, message, nil)
}

func (h *Handler) handleHelp(ctx context.Context, chatID int64) {
	message := `<b>Autoblog Help</b>

<b>Generate from URL:</b>
Send any article URL and I'll create original content inspired by it.

<b>After analysis:</b>
• Tap "Generate Article" to create and publish
• Or send a new URL to analyze something else

<b>Content types:</b>
• AI &amp; Automation
• Consulting Insights
• Industry News`

	h.send(ctx, chatID, message, nil)
}

func (h *Handler) handleStatus(ctx context.Context, chatID int64) {
	cmsLine := "❌ Not configured"
	if h.health != nil {
		if err := h.health.Health(ctx); err != nil {
			cmsLine = "❌ Unreachable"
		} else {
			cmsLine = "✅ Reachable"
		}
	}

	aiLine := "❌ Not configured"
	if h.analyzer != nil {
		aiLine = "✅ Configured"
	}

	message := fmt.Sprintf(`<b>System Status</b>

Bot: ✅ Online
CMS: %s
AI: %s`, cmsLine, aiLine)

	h.send(ctx, chatID, message, nil)
}

func (h *Handler) handleURL(ctx context.Context, chatID int64, url string) {
	if h.analyzer == nil {
		h.send(ctx, chatID, "❌ URL analysis is not configured.", nil)
		return
	}

	_ = h.bot.SendTyping(ctx, chatID)
	h.send(ctx, chatID, "📥 Fetching: "+escapeHTML(url), nil)

	analysis, err := h.analyzer.AnalyzeURL(ctx, url)
	if err != nil {
		h.logError(err, "analyzing url")
		h.send(ctx, chatID, "❌ Error analyzing URL: "+escapeHTML(err.Error()), nil)
		return
	}

	h.offerGeneration(ctx, chatID, analysis)
}

func (h *Handler) handlePastedContent(ctx context.Context, chatID int64, text string) {
	_ = h.bot.SendTyping(ctx, chatID)
	h.send(ctx, chatID, "🔎 Analyzing pasted content...", nil)

	analysis, err := h.analyzer.AnalyzeText(ctx, text)
	if err != nil {
		h.logError(err, "analyzing pasted content")
		h.send(ctx, chatID, "❌ Error analyzing content: "+escapeHTML(err.Error()), nil)
		return
	}

	h.offerGeneration(ctx, chatID, analysis)
}

// offerGeneration turns an analysis into a confirmation message whose inline
// buttons carry the composed generation request.
func (h *Handler) offerGeneration(ctx context.Context, chatID int64, analysis *analyze.Analysis) {
	topic := analyze.BuildTopic(analysis, "")

	token, err := EncodeToken(PendingData{
		Topic:    topic,
		Pillar:   analysis.SuggestedPillar,
		Template: analysis.SuggestedTemplate,
		Keywords: analysis.Keywords,
	}, h.now())
	if err != nil {
		h.logError(err, "encoding pending token")
		h.send(ctx, chatID, "❌ Error preparing generation. Please try again.", nil)
		return
	}

	var points strings.Builder
	for _, point := range analysis.KeyPoints {
		points.WriteString("• " + escapeHTML(point) + "\n")
	}

	message := fmt.Sprintf(`<b>Analysis Complete!</b>

<b>New Article Topic:</b>
%s

<b>Suggested Title:</b>
%s

<b>Type:</b> %s / %s

<b>Key Points:</b>
%s
Tap the button below to generate and publish!`,
		escapeHTML(analysis.Topic),
		escapeHTML(analysis.Title),
		analysis.SuggestedPillar,
		analysis.SuggestedTemplate,
		points.String())

	markup := &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "✅ Generate Article", CallbackData: "generate:" + token},
			{Text: "❌ Cancel", CallbackData: "cancel"},
		}},
	}

	h.send(ctx, chatID, message, markup)
}

func (h *Handler) handleCallback(ctx context.Context, query *CallbackQuery) {
	if query.Message == nil || query.Data == "" {
		return
	}

	chatID := query.Message.Chat.ID

	if !h.authorized(query.From.ID) {
		_ = h.bot.AnswerCallback(ctx, query.ID, "⛔ Not authorized")
		return
	}

	if query.Data == "cancel" {
		_ = h.bot.AnswerCallback(ctx, query.ID, "Cancelled")
		h.send(ctx, chatID, "❌ Cancelled. Send a new URL to start over.", nil)
		return
	}

	if !strings.HasPrefix(query.Data, "generate:") {
		_ = h.bot.AnswerCallback(ctx, query.ID, "")
		return
	}

	pending, err := DecodeToken(strings.TrimPrefix(query.Data, "generate:"), h.now())
	if err != nil {
		reason := "Invalid data"
		if eris.Is(err, ErrTokenExpired) {
			reason = "Request expired"
		}
		_ = h.bot.AnswerCallback(ctx, query.ID, reason)
		h.send(ctx, chatID, "❌ "+reason+". Please send the URL again.", nil)
		return
	}

	_ = h.bot.AnswerCallback(ctx, query.ID, "Generating...")
	_ = h.bot.SendTyping(ctx, chatID)
	h.send(ctx, chatID, "✍️ Generating article... (this takes a minute)", nil)

	result := h.runner.Run(ctx, pipeline.Input{
		Topic:         pending.Topic,
		Pillar:        pending.Pillar,
		Template:      pending.Template,
		Keywords:      pending.Keywords,
		GenerateImage: true,
		Publish:       true,
	})

	if !result.Success {
		reason := "unknown error"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		h.send(ctx, chatID, "❌ Error generating article: "+escapeHTML(reason)+"\n\nPlease try again or check /status.", nil)
		return
	}

	message := fmt.Sprintf(`<b>✅ Article Published!</b>

<b>Title:</b> %s
<b>Slug:</b> %s
<b>ID:</b> %s

%s`,
		escapeHTML(result.Article.Title),
		result.Slug,
		result.DocumentID,
		stageSummary(result.Stages))

	h.send(ctx, chatID, message, nil)
}

func stageSummary(stages []pipeline.StageResult) string {
	var b strings.Builder
	b.WriteString("<b>Stages:</b>\n")
	for _, stage := range stages {
		icon := "✅"
		switch stage.Status {
		case pipeline.StatusSkipped:
			icon = "⏭"
		case pipeline.StatusDegraded:
			icon = "⚠️"
		case pipeline.StatusFailed:
			icon = "❌"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", icon, stage.Name))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) authorized(userID int64) bool {
	if h.allowedUsers == nil {
		return true
	}
	_, ok := h.allowedUsers[userID]
	return ok
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) {
	if err := h.bot.SendMessage(ctx, chatID, text, markup); err != nil {
		h.logError(err, "sending telegram message")
	}
}

func escapeHTML(text string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(text)
}

func (h *Handler) logError(err error, message string) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.WithField("error", err.Error()).Error(message)
}
