package llm

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrNoJSON indicates that a completion contained no parseable JSON object.
var ErrNoJSON = eris.New("no json object found in llm response")

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls the first JSON object out of free-form completion text.
// It tries a fenced code block first, then the whole string, then the first
// balanced-brace substring.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", eris.Wrap(ErrNoJSON, "response is empty")
	}

	if match := fencedBlockPattern.FindStringSubmatch(trimmed); match != nil {
		candidate := strings.TrimSpace(match[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	if candidate := balancedObject(trimmed); candidate != "" && json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	return "", eris.Wrapf(ErrNoJSON, "response preview: %s", preview(trimmed, 120))
}

// balancedObject returns the first top-level {...} substring, honouring
// string literals and escape sequences.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch {
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

func preview(text string, limit int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= limit {
		return collapsed
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
		cut--
	}
	return collapsed[:cut]
}
