package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// APIError carries the CMS response verbatim so operators can see exactly
// what the provider rejected.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms responded with status %d: %s", e.Status, e.Body)
}

const (
	defaultTimeout  = 30 * time.Second
	maxDownloadSize = 20 << 20
)

// ClientOptions controls how the CMS client is initialised.
type ClientOptions struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client talks to the headless CMS REST API with a static bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient constructs a CMS client.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, eris.New("cms base url is required")
	}

	if strings.TrimSpace(opts.Token) == "" {
		return nil, eris.New("cms api token is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Media identifies an uploaded file in the CMS media library.
type Media struct {
	ID         int    `json:"id"`
	DocumentID string `json:"documentId"`
}

// UploadImageFromURL downloads the image and uploads it to the CMS media
// library as a multipart form, attaching alt text as both alternative text
// and caption.
func (c *Client) UploadImageFromURL(ctx context.Context, imageURL, filename, altText string) (*Media, error) {
	imageRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building image download request")
	}

	imageResponse, err := c.httpClient.Do(imageRequest)
	if err != nil {
		c.logError(logrus.Fields{"url": imageURL}, err, "downloading generated image")
		return nil, eris.Wrap(err, "downloading generated image")
	}
	defer imageResponse.Body.Close()

	if imageResponse.StatusCode < 200 || imageResponse.StatusCode >= 300 {
		err := eris.Errorf("failed to fetch image: status %d", imageResponse.StatusCode)
		c.logError(logrus.Fields{"url": imageURL}, err, "downloading generated image")
		return nil, err
	}

	imageBytes, err := io.ReadAll(io.LimitReader(imageResponse.Body, maxDownloadSize))
	if err != nil {
		return nil, eris.Wrap(err, "reading image body")
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	filePart, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, eris.Wrap(err, "creating multipart file part")
	}
	if _, err := filePart.Write(imageBytes); err != nil {
		return nil, eris.Wrap(err, "writing multipart file part")
	}

	fileInfo, err := json.Marshal(map[string]string{
		"alternativeText": altText,
		"caption":         altText,
	})
	if err != nil {
		return nil, eris.Wrap(err, "encoding file info")
	}
	if err := writer.WriteField("fileInfo", string(fileInfo)); err != nil {
		return nil, eris.Wrap(err, "writing file info field")
	}

	if err := writer.Close(); err != nil {
		return nil, eris.Wrap(err, "finalising multipart form")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &form)
	if err != nil {
		return nil, eris.Wrap(err, "building upload request")
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(request)
	if err != nil {
		c.logError(logrus.Fields{"filename": filename}, err, "uploading image to cms")
		return nil, err
	}

	var uploaded []Media
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return nil, eris.Wrap(err, "decoding upload response")
	}

	if len(uploaded) == 0 || uploaded[0].ID == 0 || uploaded[0].DocumentID == "" {
		return nil, eris.New("no media returned from cms upload")
	}

	return &uploaded[0], nil
}

// CategoryBySlug resolves a category documentId. Lookup failures are treated
// as "no category" so publishing can proceed without one.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) string {
	query := url.Values{}
	query.Set("filters[slug][$eq]", slug)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/categories?"+query.Encode(), nil)
	if err != nil {
		return ""
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(request)
	if err != nil {
		c.logDebug(logrus.Fields{"slug": slug, "error": err.Error()}, "category lookup failed")
		return ""
	}

	var payload struct {
		Data []struct {
			DocumentID string `json:"documentId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Data) == 0 {
		return ""
	}

	return payload.Data[0].DocumentID
}

// Block is a rich-text section of the article body.
type Block struct {
	Component string `json:"__component"`
	Body      string `json:"body"`
}

// CoverConnect links an uploaded media document to the article.
type CoverConnect struct {
	Connect []string `json:"connect"`
}

// ArticleData is the create-article payload. It never carries a status
// field: the CMS rejects status in the body, publication state travels as a
// query parameter instead.
type ArticleData struct {
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Blocks      []Block       `json:"blocks"`
	Category    string        `json:"category,omitempty"`
	Cover       *CoverConnect `json:"cover,omitempty"`
}

// CreatedArticle identifies the stored article.
type CreatedArticle struct {
	DocumentID string `json:"documentId"`
	Slug       string `json:"slug"`
}

// CreateArticle stores the article, optionally publishing it via the
// ?status=published query parameter.
func (c *Client) CreateArticle(ctx context.Context, data ArticleData, publish bool) (*CreatedArticle, error) {
	payload, err := json.Marshal(map[string]ArticleData{"data": data})
	if err != nil {
		return nil, eris.Wrap(err, "encoding article payload")
	}

	createURL := c.baseURL + "/api/articles"
	if publish {
		createURL += "?status=published"
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, createURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "building create request")
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", "application/json")

	body, err := c.do(request)
	if err != nil {
		c.logError(logrus.Fields{"slug": data.Slug}, err, "creating article in cms")
		return nil, err
	}

	var response struct {
		Data CreatedArticle `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, eris.Wrap(err, "decoding create response")
	}

	if response.Data.DocumentID == "" {
		return nil, eris.New("cms create returned no documentId")
	}

	return &response.Data, nil
}

// ArticleSummary is the read-side projection used by status reporting.
type ArticleSummary struct {
	DocumentID  string `json:"documentId"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	PublishedAt string `json:"publishedAt"`
}

// ArticleBySlug fetches a published article summary, or nil when absent.
func (c *Client) ArticleBySlug(ctx context.Context, slug string) (*ArticleSummary, error) {
	query := url.Values{}
	query.Set("filters[slug][$eq]", slug)
	query.Set("pagination[pageSize]", "1")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/articles?"+query.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "building article lookup request")
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(request)
	if err != nil {
		c.logError(logrus.Fields{"slug": slug}, err, "fetching article by slug")
		return nil, err
	}

	var payload struct {
		Data []ArticleSummary `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "decoding article lookup response")
	}

	if len(payload.Data) == 0 {
		return nil, nil
	}

	return &payload.Data[0], nil
}

// Health probes the CMS with a one-item list request.
func (c *Client) Health(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/articles?pagination[pageSize]=1", nil)
	if err != nil {
		return eris.Wrap(err, "building health request")
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	if _, err := c.do(request); err != nil {
		return eris.Wrap(err, "cms health check failed")
	}

	return nil
}

func (c *Client) do(request *http.Request) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, eris.Wrap(err, "performing cms request")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reading cms response")
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &APIError{Status: response.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
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

func (c *Client) logDebug(fields logrus.Fields, message string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).Debug(message)
}
