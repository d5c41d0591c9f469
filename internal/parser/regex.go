package parser

import (
	"context"
	"encoding/json"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqc/internal/money"
	"invoiceqc/internal/port"
	"invoiceqc/internal/validator/invoice"
)

// RegexModel is reported as ModelUsed by the regex parser.
const RegexModel = "regex"

var (
	aufnrPattern    = regexp.MustCompile(`(?i)AUFNR(\d+)`)
	invoiceNumberRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Invoice|Rechnung|Facture|Factura)[:\s#]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)(?:Order|Bestellung|Commande|Pedido)[:\s#]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)(?:PO|REF)[:\s#-]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)\b([A-Z]{2,}\d{4,})\b`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`),
		regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	}
	dateLayouts = []string{"02.01.2006", "02/01/2006", "01/02/2006", "2006-01-02"}

	companyPatterns = func() []*regexp.Regexp {
		suffixes := []string{"Corporation", "Corp", "GmbH", "gGmbH", "Ltd", "LLC", "Inc", "AG", "Pvt", "Limited"}
		out := make([]*regexp.Regexp, len(suffixes))
		for i, s := range suffixes {
			out[i] = regexp.MustCompile(`([A-Z][A-Za-z\s]+` + s + `)`)
		}
		return out
	}()

	amountPattern = regexp.MustCompile(`[\d.,]+\d{2}`)
)

// RegexParser recovers the basic invoice fields from plain text with
// pattern matching. It never calls out and never fails on non-empty text,
// so it always sits last in a fallback chain.
type RegexParser struct{}

// NewRegexParser creates a RegexParser.
func NewRegexParser() *RegexParser { return &RegexParser{} }

func (p *RegexParser) Parse(_ context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrNoFields
	}
	return &port.ParseOutput{
		Fields:    ExtractFields(input.Text, input.SourceFile),
		ModelUsed: RegexModel,
	}, nil
}

// ExtractFields runs the pattern battery over text.
func ExtractFields(text, sourceFile string) map[string]any {
	fields := invoice.EmptyFields(sourceFile)

	if num := findInvoiceNumber(text); num != "" {
		fields[invoice.FieldInvoiceNumber] = num
	}

	var dates []string
	for _, re := range datePatterns {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	for i, d := range dates {
		if i > 1 {
			break
		}
		iso, ok := ParseLooseDate(d)
		if !ok {
			continue
		}
		if i == 0 {
			fields[invoice.FieldInvoiceDate] = iso
		} else {
			fields[invoice.FieldDueDate] = iso
		}
	}

	fields[invoice.FieldCurrency] = detectCurrency(text)

	companies := findCompanies(text)
	if len(companies) > 0 {
		fields[invoice.FieldSellerName] = companies[0]
	}
	if len(companies) > 1 {
		fields[invoice.FieldBuyerName] = companies[1]
	}

	amounts := findAmounts(text)
	for i, field := range []string{invoice.FieldGrossTotal, invoice.FieldNetTotal, invoice.FieldTaxAmount} {
		if i < len(amounts) {
			fields[field] = json.Number(amounts[i].String())
		}
	}
	return fields
}

func findInvoiceNumber(text string) string {
	if m := aufnrPattern.FindStringSubmatch(text); m != nil {
		return "AUFNR" + m[1]
	}
	for _, re := range invoiceNumberRe {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ParseLooseDate converts DD.MM.YYYY, DD/MM/YYYY, MM/DD/YYYY or ISO dates
// to YYYY-MM-DD. Day-first wins when both readings are valid.
func ParseLooseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(text, "USD"):
		return "USD"
	case strings.Contains(text, "£") || strings.Contains(text, "GBP"):
		return "GBP"
	case strings.Contains(text, "₹") || strings.Contains(text, "INR") || strings.Contains(text, "Rs"):
		return "INR"
	}
	return "USD"
}

func findCompanies(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, re := range companyPatterns {
		for _, m := range re.FindAllString(text, -1) {
			name := strings.TrimSpace(m)
			if len(name) <= 5 || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// findAmounts returns every amount-looking token, largest first.
func findAmounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, tok := range amountPattern.FindAllString(text, -1) {
		if d, ok := money.Normalize(tok); ok {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b decimal.Decimal) int { return b.Cmp(a) })
	return out
}
