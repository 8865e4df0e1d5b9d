package planner

import (
	"errors"
	"strings"
)

// ErrNoDocumentFound means the reply contained no brace-delimited span at all.
var ErrNoDocumentFound = errors.New("no JSON document found in AI response")

// ExtractDocument returns the substring from the first '{' to the last '}' inclusive.
// Prose or code fences around the document are dropped. Braces inside surrounding prose
// are not understood; the strict parse in ParseDocument catches what this lets through.
func ExtractDocument(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return "", ErrNoDocumentFound
	}
	return raw[start : end+1], nil
}
