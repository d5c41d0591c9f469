package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"invoiceqc/internal/domain"
)

// ReadText validates the document and returns its text, one line per
// visual row, pages in order.
func ReadText(data []byte) (string, error) {
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("reading pdf structure: %w", err)
	}
	if pages == 0 {
		return "", domain.ErrNoText
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			sb.WriteString(strings.Join(words, " "))
			sb.WriteString("\n")
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoText
	}
	return text, nil
}
