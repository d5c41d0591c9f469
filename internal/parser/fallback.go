package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"invoiceqc/internal/port"
)

// circuitState tracks rate-limit backoff for a single parser.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackParser tries parsers in order, skipping those with open circuits.
// It implements port.DocumentParser.
type FallbackParser struct {
	parsers  []port.DocumentParser
	circuits []*circuitState
	names    []string
	logger   *slog.Logger
}

// NewFallbackParser creates a FallbackParser from an ordered list of parsers and their names.
func NewFallbackParser(parsers []port.DocumentParser, names []string) *FallbackParser {
	circuits := make([]*circuitState, len(parsers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackParser{
		parsers:  parsers,
		circuits: circuits,
		names:    names,
		logger:   slog.Default().With("component", "parser.FallbackParser"),
	}
}

// Names returns the parser names in the order they are tried.
func (f *FallbackParser) Names() []string {
	return append([]string(nil), f.names...)
}

func (f *FallbackParser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, p := range f.parsers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.InfoContext(ctx, "skipping parser, circuit open",
				"parser", f.names[i], "until", resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := p.Parse(ctx, input)
		if err == nil {
			return out, nil
		}

		f.logger.WarnContext(ctx, "parser failed",
			"parser", f.names[i], "source_file", input.SourceFile, "error", err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	// lastErr is nil when every parser was skipped by an open circuit.
	if lastErr == nil || allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all parsers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all parsers failed: %w", lastErr)
}
