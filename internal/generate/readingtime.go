package generate

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const wordsPerMinute = 200

// ReadingTime estimates reading minutes for markdown content, counting only
// prose words from the parsed document. Always at least one minute.
func ReadingTime(markdown string) int {
	words := wordCount(markdown)
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func wordCount(markdown string) int {
	source := []byte(markdown)
	parser := goldmark.New().Parser()
	document := parser.Parse(text.NewReader(source))

	count := 0
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := node.(*ast.Text); ok {
			count += len(strings.Fields(string(textNode.Segment.Value(source))))
		}
		return ast.WalkContinue, nil
	})

	return count
}
