package llm

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	t.Parallel()

	raw := "Here is the article:\n```json\n{\"title\": \"Hello\"}\n```\nLet me know if you need changes."

	extracted, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		t.Fatalf("extracted text is not valid JSON: %v", err)
	}

	if payload["title"] != "Hello" {
		t.Errorf("expected title Hello, got %q", payload["title"])
	}
}

func TestExtractJSONWholeString(t *testing.T) {
	t.Parallel()

	raw := `  {"title": "Direct"}  `

	extracted, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}

	if extracted != `{"title": "Direct"}` {
		t.Errorf("expected trimmed object, got %q", extracted)
	}
}

func TestExtractJSONEmbeddedObject(t *testing.T) {
	t.Parallel()

	raw := `Sure! The result is {"title": "Embedded {brace} text", "nested": {"a": 1}} and that is all.`

	extracted, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}

	var payload struct {
		Title  string `json:"title"`
		Nested struct {
			A int `json:"a"`
		} `json:"nested"`
	}
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		t.Fatalf("extracted text is not valid JSON: %v", err)
	}

	if payload.Title != "Embedded {brace} text" {
		t.Errorf("unexpected title %q", payload.Title)
	}

	if payload.Nested.A != 1 {
		t.Errorf("expected nested value 1, got %d", payload.Nested.A)
	}
}

func TestExtractJSONHandlesEscapedQuotes(t *testing.T) {
	t.Parallel()

	raw := `prefix {"text": "she said \"hi\" and left"} suffix`

	extracted, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		t.Fatalf("extracted text is not valid JSON: %v", err)
	}

	if payload["text"] != `she said "hi" and left` {
		t.Errorf("unexpected text %q", payload["text"])
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	t.Parallel()

	_, err := ExtractJSON("I could not produce the requested article, sorry.")
	if err == nil {
		t.Fatalf("expected error when no JSON object is present")
	}

	if !eris.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONEmpty(t *testing.T) {
	t.Parallel()

	_, err := ExtractJSON("   ")
	if err == nil {
		t.Fatalf("expected error for empty input")
	}

	if !eris.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONUnbalanced(t *testing.T) {
	t.Parallel()

	_, err := ExtractJSON(`{"title": "never closed`)
	if err == nil {
		t.Fatalf("expected error for unbalanced braces")
	}

	if !eris.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestPreviewNeverSplitsRunes(t *testing.T) {
	t.Parallel()

	got := preview("x"+strings.Repeat("ü", 100), 120)
	if len(got) > 120 {
		t.Errorf("preview exceeds limit: %d", len(got))
	}

	if !utf8.ValidString(got) {
		t.Errorf("preview is not valid UTF-8: %q", got)
	}
}
