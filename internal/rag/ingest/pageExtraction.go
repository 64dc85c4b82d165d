package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

const pageExtractTimeout = 10 * time.Second

// extractPDF joins the text of every non-empty page with a blank line.
// A page that fails or times out is skipped.
func extractPDF(path string, logger *logger_i.Logger) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "err", err)
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)

	parts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "null page", i)
			continue
		}

		content, err := protectExtract(page, logger)
		if err != nil {
			logger.Warn("Error parsing page content", "page", i, "err", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// extractOffice reads .docx, .odt and .rtf files as one block of text.
func extractOffice(path string, logger *logger_i.Logger) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from document", "err", err)
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract bounds a single page; some malformed PDFs make the parser spin.
func protectExtract(page pdf.Page, logger *logger_i.Logger) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		logger.Error("pageExtract", "timeout", pageExtractTimeout)
		return "", errors.New("page extraction timed out")
	}
}
