package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	return client, server
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientOptions{Token: "t"}); err == nil {
		t.Fatalf("expected error when base url is missing")
	}

	if _, err := NewClient(ClientOptions{BaseURL: "https://cms.example.com"}); err == nil {
		t.Fatalf("expected error when token is missing")
	}
}

func TestCreateArticleOmitsStatusFromBody(t *testing.T) {
	t.Parallel()

	var capturedBody map[string]any
	var capturedQuery string
	var capturedAuth string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		capturedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &capturedBody); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"documentId":"doc-1","slug":"my-article"}}`))
	}))

	created, err := client.CreateArticle(context.Background(), ArticleData{
		Title:       "My Article",
		Slug:        "my-article",
		Description: "desc",
		Blocks:      []Block{{Component: "shared.rich-text", Body: "hello"}},
	}, true)
	if err != nil {
		t.Fatalf("CreateArticle returned error: %v", err)
	}

	if created.DocumentID != "doc-1" || created.Slug != "my-article" {
		t.Errorf("unexpected created article: %+v", created)
	}

	if capturedQuery != "status=published" {
		t.Errorf("expected status=published query parameter, got %q", capturedQuery)
	}

	if capturedAuth != "Bearer test-token" {
		t.Errorf("expected bearer token header, got %q", capturedAuth)
	}

	data, ok := capturedBody["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope in body, got %v", capturedBody)
	}

	if _, present := data["status"]; present {
		t.Errorf("status must not appear in the request body")
	}

	if _, present := capturedBody["status"]; present {
		t.Errorf("status must not appear at the top level either")
	}
}

func TestCreateArticleDraftHasNoQueryParameter(t *testing.T) {
	t.Parallel()

	var capturedQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"documentId":"doc-2","slug":"draft-article"}}`))
	}))

	if _, err := client.CreateArticle(context.Background(), ArticleData{Slug: "draft-article"}, false); err != nil {
		t.Fatalf("CreateArticle returned error: %v", err)
	}

	if capturedQuery != "" {
		t.Errorf("draft create must not carry a status query parameter, got %q", capturedQuery)
	}
}

func TestCreateArticleSurfacesProviderBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"slug must be unique"}}`))
	}))

	_, err := client.CreateArticle(context.Background(), ArticleData{Slug: "dup"}, true)
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}

	var apiErr *APIError
	if !eris.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}

	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.Status)
	}

	if !strings.Contains(apiErr.Body, "slug must be unique") {
		t.Errorf("expected provider body preserved, got %q", apiErr.Body)
	}
}

func TestUploadImageFromURL(t *testing.T) {
	t.Parallel()

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(imageServer.Close)

	var capturedFilename string
	var capturedFileInfo string
	var capturedFileBytes []byte

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}

		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing files part: %v", err)
		} else {
			capturedFilename = header.Filename
			capturedFileBytes, _ = io.ReadAll(file)
			_ = file.Close()
		}

		capturedFileInfo = r.FormValue("fileInfo")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":42,"documentId":"media-doc"}]`))
	}))

	media, err := client.UploadImageFromURL(context.Background(), imageServer.URL, "my-article-hero-1.png", "Hero image for My Article")
	if err != nil {
		t.Fatalf("UploadImageFromURL returned error: %v", err)
	}

	if media.ID != 42 || media.DocumentID != "media-doc" {
		t.Errorf("unexpected media: %+v", media)
	}

	if capturedFilename != "my-article-hero-1.png" {
		t.Errorf("expected filename preserved, got %q", capturedFilename)
	}

	if string(capturedFileBytes) != "png-bytes" {
		t.Errorf("expected downloaded bytes forwarded, got %q", capturedFileBytes)
	}

	var fileInfo map[string]string
	if err := json.Unmarshal([]byte(capturedFileInfo), &fileInfo); err != nil {
		t.Fatalf("fileInfo is not valid JSON: %v", err)
	}

	if fileInfo["alternativeText"] != "Hero image for My Article" || fileInfo["caption"] != "Hero image for My Article" {
		t.Errorf("expected alt text as alternativeText and caption, got %v", fileInfo)
	}
}

func TestUploadImageFromURLDownloadFailure(t *testing.T) {
	t.Parallel()

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(imageServer.Close)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("upload endpoint must not be called when the download fails")
		w.WriteHeader(http.StatusCreated)
	}))

	if _, err := client.UploadImageFromURL(context.Background(), imageServer.URL, "x.png", "alt"); err == nil {
		t.Fatalf("expected error when image download fails")
	}
}

func TestCategoryBySlug(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filters[slug][$eq]"); got != "consulting" {
			t.Errorf("expected slug filter consulting, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"documentId":"cat-doc"}]}`))
	}))

	if got := client.CategoryBySlug(context.Background(), "consulting"); got != "cat-doc" {
		t.Errorf("expected cat-doc, got %q", got)
	}
}

func TestCategoryBySlugFailuresAreBestEffort(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if got := client.CategoryBySlug(context.Background(), "consulting"); got != "" {
		t.Errorf("expected empty documentId on lookup failure, got %q", got)
	}
}

func TestArticleBySlug(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pagination[pageSize]"); got != "1" {
			t.Errorf("expected page size 1, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"documentId":"doc-9","title":"T","slug":"t","publishedAt":"2026-01-01"}]}`))
	}))

	summary, err := client.ArticleBySlug(context.Background(), "t")
	if err != nil {
		t.Fatalf("ArticleBySlug returned error: %v", err)
	}

	if summary == nil || summary.DocumentID != "doc-9" {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestArticleBySlugMissing(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	summary, err := client.ArticleBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ArticleBySlug returned error: %v", err)
	}

	if summary != nil {
		t.Errorf("expected nil summary for missing article, got %+v", summary)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	healthy, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	if err := healthy.Health(context.Background()); err != nil {
		t.Errorf("expected healthy check to pass, got %v", err)
	}

	unhealthy, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	if err := unhealthy.Health(context.Background()); err == nil {
		t.Errorf("expected health check failure for 502")
	}
}
