package generate

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

func sampleArticle() *Article {
	return &Article{
		Title:       "Scaling Operations with AI: A Strategic Guide",
		Slug:        "scaling-operations-with-ai-a-strategic-guide",
		Description: "A strategic guide to scaling operations with AI",
		Content:     "## Scaling\n\nScaling operations requires careful planning and the right tooling.",
		Tags:        []string{"scaling", "operations", "strategy", "extra"},
		Pillar:      "consulting",
		Template:    "framework",
	}
}

func TestPromptGeneratorStripsQuotes(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `"A minimalist corporate illustration of ascending pathways in blue and teal."`}
	generator, err := NewPromptGenerator(PromptGeneratorOptions{Completer: completer, Model: "utility"})
	if err != nil {
		t.Fatalf("NewPromptGenerator returned error: %v", err)
	}

	prompt, err := generator.Generate(context.Background(), sampleArticle())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if strings.HasPrefix(prompt, `"`) || strings.HasSuffix(prompt, `"`) {
		t.Errorf("expected wrapping quotes stripped, got %q", prompt)
	}

	if !strings.Contains(completer.lastReq.User, "contentSnippet") {
		t.Errorf("expected article payload in the prompt")
	}
}

func TestPromptGeneratorRejectsShortPrompt(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "too short"}
	generator, err := NewPromptGenerator(PromptGeneratorOptions{Completer: completer, Model: "utility"})
	if err != nil {
		t.Fatalf("NewPromptGenerator returned error: %v", err)
	}

	_, err = generator.Generate(context.Background(), sampleArticle())
	if err == nil {
		t.Fatalf("expected error for degenerate prompt")
	}

	if !eris.Is(err, ErrDegeneratePrompt) {
		t.Fatalf("expected ErrDegeneratePrompt, got %v", err)
	}
}

func TestPromptGeneratorSnippetIsCapped(t *testing.T) {
	t.Parallel()

	article := sampleArticle()
	article.Content = strings.Repeat("lengthy content ", 200)

	completer := &fakeCompleter{response: "A detailed corporate scene rendered in blues and teals with abstract pathways."}
	generator, err := NewPromptGenerator(PromptGeneratorOptions{Completer: completer, Model: "utility"})
	if err != nil {
		t.Fatalf("NewPromptGenerator returned error: %v", err)
	}

	if _, err := generator.Generate(context.Background(), article); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if snippet := contentSnippet(article.Content); len(snippet) > contentSnippetLength {
		t.Errorf("snippet exceeds cap: %d", len(snippet))
	}
}

func TestContentSnippetNeverSplitsRunes(t *testing.T) {
	t.Parallel()

	content := "a " + strings.Repeat("—", 800)
	snippet := contentSnippet(content)

	if len(snippet) > contentSnippetLength {
		t.Errorf("snippet exceeds cap: %d", len(snippet))
	}

	if !utf8.ValidString(snippet) {
		t.Errorf("snippet is not valid UTF-8: %q", snippet)
	}
}

func TestFallbackPromptUsesPillarVisuals(t *testing.T) {
	t.Parallel()

	article := sampleArticle()
	prompt := FallbackPrompt(article)

	if !strings.Contains(prompt, article.Title) {
		t.Errorf("expected title in fallback prompt")
	}

	if !strings.Contains(prompt, "strategic roadmap") {
		t.Errorf("expected consulting visuals in fallback prompt, got:\n%s", prompt)
	}

	if !strings.Contains(prompt, "NO text") {
		t.Errorf("expected negative constraints in fallback prompt")
	}

	article.Pillar = "unrecognised"
	prompt = FallbackPrompt(article)
	if !strings.Contains(prompt, "neural network") {
		t.Errorf("expected ai-automation visuals as fallback for unknown pillar")
	}

	if len(prompt) < minPromptLength {
		t.Errorf("fallback prompt must never be degenerate")
	}
}

func TestAltText(t *testing.T) {
	t.Parallel()

	article := sampleArticle()
	alt := AltText(article)

	if !strings.Contains(alt, "consulting insights") {
		t.Errorf("expected pillar name in alt text, got %q", alt)
	}

	if !strings.Contains(alt, "scaling and operations") {
		t.Errorf("expected the first two themes in alt text, got %q", alt)
	}
}

func TestExtractThemes(t *testing.T) {
	t.Parallel()

	article := sampleArticle()
	themes := extractThemes(article)

	if len(themes) > 5 {
		t.Errorf("expected at most five themes, got %d", len(themes))
	}

	for _, theme := range themes {
		if theme == "with" {
			t.Errorf("stop words must not become themes")
		}
	}

	// Tags come first, deduplicated against title words.
	if themes[0] != "scaling" {
		t.Errorf("expected first tag as first theme, got %q", themes[0])
	}
}
