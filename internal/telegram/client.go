package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// ClientOptions controls how the Bot API client is initialised.
type ClientOptions struct {
	BotToken   string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client is a minimal Telegram Bot API client covering the calls the
// webhook handler needs.
type Client struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient constructs a Bot API client.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BotToken) == "" {
		return nil, eris.New("telegram bot token is required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		botToken:   opts.BotToken,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// SendMessage delivers an HTML-formatted message, optionally with an inline
// keyboard attached.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}

	return c.call(ctx, "sendMessage", payload)
}

// SendTyping shows the typing indicator in the chat.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.call(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  "typing",
	})
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	payload := map[string]any{"callback_query_id": callbackQueryID}
	if text != "" {
		payload["text"] = text
	}

	return c.call(ctx, "answerCallbackQuery", payload)
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrapf(err, "encoding %s payload", method)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "building %s request", method)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logError(method, err)
		return eris.Wrapf(err, "calling %s", method)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		err := eris.Errorf("%s responded with status %d: %s", method, response.StatusCode, strings.TrimSpace(string(responseBody)))
		c.logError(method, err)
		return err
	}

	return nil
}

func (c *Client) logError(method string, err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{"method": method, "error": err.Error()}).Error("telegram api call failed")
}
