package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

type DocType string

const (
	TXT  DocType = "TXT"
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	ERR  DocType = "ERROR"
)

// GetDocType classifies an upload by its file extension.
func GetDocType(filename string) DocType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return TXT
	case ".pdf":
		return PDF
	case ".docx", ".odt", ".rtf":
		return DOCX
	default:
		return ERR
	}
}

// ExtractText returns the plain text of the file at path. filename is the
// name the user uploaded and decides the format.
func ExtractText(path string, filename string) (string, error) {
	logger := logger_i.NewLogger("Document Extraction").With("filename", filename)

	docType := GetDocType(filename)
	logger.Debug("Extracting document", "type", docType)

	switch docType {
	case TXT:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		if !utf8.Valid(data) {
			return "", kbModel.ErrNotUTF8
		}
		return string(data), nil
	case PDF:
		text, err := extractPDF(path, logger)
		if err != nil {
			return "", fmt.Errorf("%w: %w", kbModel.ErrInvalidInput, err)
		}
		return text, nil
	case DOCX:
		text, err := extractOffice(path, logger)
		if err != nil {
			return "", fmt.Errorf("%w: %w", kbModel.ErrInvalidInput, err)
		}
		return text, nil
	default:
		return "", kbModel.ErrUnsupportedFormat
	}
}
