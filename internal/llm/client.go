package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ClientOptions controls how the completion provider client is initialised.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client wraps the OpenAI SDK services used by the pipeline.
type Client struct {
	chat    chatCompletionClient
	images  imageGenerationClient
	logger  *logrus.Logger
	baseURL string
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type imageGenerationClient interface {
	Generate(ctx context.Context, body openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// NewClient constructs a Client for an OpenAI-compatible provider.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("llm api key is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
	}

	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return &Client{
		chat:    &apiClient.Chat.Completions,
		images:  &apiClient.Images,
		logger:  opts.Logger,
		baseURL: baseURL,
	}, nil
}

// Logger exposes the logger associated with the client.
func (c *Client) Logger() *logrus.Logger {
	return c.logger
}

// BaseURL returns the configured base URL for outbound requests.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// Complete performs a chat completion and returns the assistant message text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", eris.New("completion model is required")
	}

	if strings.TrimSpace(req.User) == "" {
		return "", eris.New("completion prompt is required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	completion, err := c.chat.New(ctx, params)
	if err != nil {
		c.logError(logrus.Fields{"model": model}, err, "requesting chat completion")
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		c.logError(logrus.Fields{"model": model}, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := eris.New("llm blocked the request via content filter")
		c.logError(logrus.Fields{"model": model}, err, "completion blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to generate content: %s", refusal)
		c.logError(logrus.Fields{"model": model}, err, "completion refused")
		return "", err
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		err := eris.New("llm response content is empty")
		c.logError(logrus.Fields{"model": model}, err, "processing chat completion")
		return "", err
	}

	return content, nil
}

// ImageRequest describes a single image generation call.
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
	Style   string
}

// GenerateImage performs an image generation and returns the hosted image URL.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", eris.New("image prompt is required")
	}

	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		N:      openai.Int(1),
	}

	if model := strings.TrimSpace(req.Model); model != "" {
		params.Model = openai.ImageModel(model)
	}

	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}

	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}

	if req.Style != "" {
		params.Style = openai.ImageGenerateParamsStyle(req.Style)
	}

	response, err := c.images.Generate(ctx, params)
	if err != nil {
		c.logError(logrus.Fields{"model": req.Model}, err, "requesting image generation")
		return "", eris.Wrap(err, "requesting image generation")
	}

	if len(response.Data) == 0 || strings.TrimSpace(response.Data[0].URL) == "" {
		err := eris.New("image generation returned no url")
		c.logError(logrus.Fields{"model": req.Model}, err, "processing image response")
		return "", err
	}

	return response.Data[0].URL, nil
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
