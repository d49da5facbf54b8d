package generate

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"autoblog/app/internal/llm"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestNewArticleGeneratorValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewArticleGenerator(ArticleGeneratorOptions{Model: "writer"}); err == nil {
		t.Fatalf("expected error when completer is nil")
	}

	if _, err := NewArticleGenerator(ArticleGeneratorOptions{Completer: &fakeCompleter{}}); err == nil {
		t.Fatalf("expected error when model is empty")
	}
}

func TestGenerateArticle(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{
		response: "```json\n" + `{
			"title": "How to Automate Your Business Workflows with AI",
			"slug": "",
			"description": "Automate workflows with AI tools",
			"excerpt": "A practical walkthrough of automating business workflows with modern AI tooling.",
			"content": "## Why Automate\n\nAutomation saves time.\n\n## Getting Started\n\nPick a workflow and map it out.",
			"tags": ["automation", "ai"],
			"seo": {"metaTitle": "Automate Workflows with AI", "metaDescription": "Learn workflow automation."}
		}` + "\n```",
	}

	generator, err := NewArticleGenerator(ArticleGeneratorOptions{Completer: completer, Model: "writer"})
	if err != nil {
		t.Fatalf("NewArticleGenerator returned error: %v", err)
	}

	article, err := generator.Generate(context.Background(), Request{
		Topic:    "How to Automate Your Business Workflows with AI in 2026",
		Pillar:   "ai-automation",
		Keywords: []string{"workflow automation"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if article.Slug != "how-to-automate-your-business-workflows-with-ai" {
		t.Errorf("expected slug derived from title, got %q", article.Slug)
	}

	if article.Template != "how-to-guide" {
		t.Errorf("expected default template how-to-guide, got %q", article.Template)
	}

	if article.Pillar != "ai-automation" {
		t.Errorf("expected pillar ai-automation, got %q", article.Pillar)
	}

	if article.ReadingTime < 1 {
		t.Errorf("expected reading time of at least one minute, got %d", article.ReadingTime)
	}

	if !strings.Contains(completer.lastReq.User, "workflow automation") {
		t.Errorf("expected additional keywords in the prompt")
	}

	if completer.lastReq.System == "" {
		t.Errorf("expected a system prompt to be set")
	}
}

func TestGenerateArticleUnknownPillar(t *testing.T) {
	t.Parallel()

	generator, err := NewArticleGenerator(ArticleGeneratorOptions{Completer: &fakeCompleter{}, Model: "writer"})
	if err != nil {
		t.Fatalf("NewArticleGenerator returned error: %v", err)
	}

	if _, err := generator.Generate(context.Background(), Request{Topic: "x", Pillar: "nope"}); err == nil {
		t.Fatalf("expected error for unknown pillar")
	}
}

func TestGenerateArticleNoJSON(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "I am unable to write that article."}
	generator, err := NewArticleGenerator(ArticleGeneratorOptions{Completer: completer, Model: "writer"})
	if err != nil {
		t.Fatalf("NewArticleGenerator returned error: %v", err)
	}

	_, err = generator.Generate(context.Background(), Request{Topic: "x", Pillar: "consulting"})
	if err == nil {
		t.Fatalf("expected error when the response has no JSON")
	}

	if !eris.Is(err, llm.ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestGenerateArticleTruncatesFields(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100)
	completer := &fakeCompleter{
		response: `{
			"title": "` + long + `",
			"description": "` + long + `",
			"excerpt": "` + long + `",
			"content": "body",
			"tags": [],
			"seo": {"metaTitle": "` + long + `", "metaDescription": "` + long + `"}
		}`,
	}

	generator, err := NewArticleGenerator(ArticleGeneratorOptions{Completer: completer, Model: "writer"})
	if err != nil {
		t.Fatalf("NewArticleGenerator returned error: %v", err)
	}

	article, err := generator.Generate(context.Background(), Request{Topic: "x", Pillar: "consulting"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	cases := []struct {
		name  string
		value string
		limit int
	}{
		{"title", article.Title, maxTitleLength},
		{"description", article.Description, maxDescriptionLength},
		{"excerpt", article.Excerpt, maxExcerptLength},
		{"metaTitle", article.SEO.MetaTitle, maxMetaTitleLength},
		{"metaDescription", article.SEO.MetaDescription, maxMetaDescriptionLength},
	}

	for _, tc := range cases {
		if len(tc.value) > tc.limit {
			t.Errorf("%s exceeds limit: %d > %d", tc.name, len(tc.value), tc.limit)
		}
		if !strings.HasSuffix(tc.value, "...") {
			t.Errorf("%s should end with an ellipsis after truncation, got %q", tc.name, tc.value)
		}
	}

	if len(article.Slug) > maxSlugLength {
		t.Errorf("slug exceeds limit: %d", len(article.Slug))
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected string
	}{
		{"Digital Transformation in 2026: What CTOs Need to Know", "digital-transformation-in-2026-what-ctos-need-to-know"},
		{"  Hello,   World!  ", "hello-world"},
		{strings.Repeat("a", 80), strings.Repeat("a", 60)},
	}

	for _, tc := range cases {
		if got := Slugify(tc.input); got != tc.expected {
			t.Errorf("Slugify(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}

	// Slug derivation must be deterministic.
	if Slugify("Same Title") != Slugify("Same Title") {
		t.Errorf("expected identical slugs for identical titles")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 80); got != "short" {
		t.Errorf("expected unchanged text, got %q", got)
	}

	long := strings.Repeat("x", 100)
	got := Truncate(long, 80)
	if len(got) != 80 {
		t.Errorf("expected truncated length 80, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestTruncateCutsAtWordBoundary(t *testing.T) {
	t.Parallel()

	got := Truncate("The quick brown fox jumps over the lazy dog", 20)
	if got != "The quick brown..." {
		t.Errorf("expected cut at the last full word, got %q", got)
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		limit int
	}{
		{"dash at the cut", strings.Repeat("a", 76) + "—tail…", 80},
		{"multi-byte run", strings.Repeat("é", 120), 80},
		{"emphasised title", "Skalierung — wofür Unternehmen künstliche Intelligenz wirklich einsetzen sollten", 60},
	}

	for _, tc := range cases {
		got := Truncate(tc.text, tc.limit)
		if len(got) > tc.limit {
			t.Errorf("%s: length %d exceeds limit %d", tc.name, len(got), tc.limit)
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: truncation produced invalid UTF-8: %q", tc.name, got)
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("%s: expected ellipsis suffix, got %q", tc.name, got)
		}
	}
}

func TestReadingTime(t *testing.T) {
	t.Parallel()

	if got := ReadingTime("short text"); got != 1 {
		t.Errorf("expected minimum of one minute, got %d", got)
	}

	words := strings.Repeat("word ", 450)
	markdown := "## Heading\n\n" + words
	if got := ReadingTime(markdown); got != 3 {
		t.Errorf("expected 3 minutes for ~450 words, got %d", got)
	}
}
