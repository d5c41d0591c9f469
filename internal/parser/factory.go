package parser

import (
	"fmt"
	"log/slog"

	"invoiceqc/internal/config"
	"invoiceqc/internal/port"
)

// ProviderFactory is a function that creates a DocumentParser from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.DocumentParser, error)

// registry of parser provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a parser provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewParser creates a DocumentParser from a provider config using the registered factory.
func NewParser(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewChain builds the parser chain: the configured primary and secondary
// providers, then the regex parser. A provider that cannot be built is
// logged and left out.
func NewChain(cfg *config.ParserConfig) *FallbackParser {
	var (
		parsers []port.DocumentParser
		names   []string
	)
	for _, pc := range []*config.ParserProviderConfig{cfg.PrimaryConfig(), cfg.SecondaryConfig()} {
		if pc == nil {
			continue
		}
		p, err := NewParser(pc)
		if err != nil {
			slog.Warn("parser provider unavailable", "provider", pc.Provider, "error", err)
			continue
		}
		parsers = append(parsers, p)
		names = append(names, pc.Provider)
	}
	parsers = append(parsers, NewRegexParser())
	names = append(names, RegexModel)
	return NewFallbackParser(parsers, names)
}
