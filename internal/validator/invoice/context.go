package invoice

import (
	"context"
)

type contextKey int

const (
	sourceFileKey contextKey = iota
	batchIndexKey
)

// WithValidationContext tags the context with the record's origin so rules
// that log (the duplicate lookup) can identify the invoice being checked.
func WithValidationContext(ctx context.Context, sourceFile string, batchIndex int) context.Context {
	ctx = context.WithValue(ctx, sourceFileKey, sourceFile)
	ctx = context.WithValue(ctx, batchIndexKey, batchIndex)
	return ctx
}

// SourceFileFromContext extracts the source file set by WithValidationContext.
func SourceFileFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sourceFileKey).(string)
	return v, ok
}

// BatchIndexFromContext extracts the batch position set by WithValidationContext.
func BatchIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(batchIndexKey).(int)
	return v, ok
}
