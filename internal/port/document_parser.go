package port

import (
	"context"
)

// ParseInput carries the text pulled out of a document.
type ParseInput struct {
	Text       string
	SourceFile string
}

// ParseOutput contains the invoice fields recovered from the text.
type ParseOutput struct {
	Fields     map[string]any
	ModelUsed  string
	PromptUsed string
}

// DocumentParser turns unstructured invoice text into a field map.
type DocumentParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseOutput, error)
}
