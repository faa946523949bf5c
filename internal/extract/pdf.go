package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

func extractPDF(data []byte) (doc Doc, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = Doc{}
			err = fmt.Errorf("%w: pdf parse panic: %v", appErr.ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Doc{}, fmt.Errorf("%w: %v", appErr.ErrExtractionFailed, err)
	}
	totalPages := reader.NumPage()
	var sb strings.Builder
	extracted := 0
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if extracted > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
		extracted++
	}
	if extracted == 0 {
		return Doc{}, fmt.Errorf("%w: no text extracted from pdf", appErr.ErrExtractionFailed)
	}
	return Doc{Text: sb.String(), Pages: totalPages}, nil
}
