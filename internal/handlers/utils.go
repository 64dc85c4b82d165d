package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/adapter"
	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

var errUploadTooLarge = errors.New("file too large or bad request")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}, log *logger_i.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left to tell the client
		log.Error("Error encoding response", "err", err)
	}
}

// WriteErrorResponse writes the job-shaped error body used by the job endpoints and the middleware.
func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	_ = json.NewEncoder(w).Encode(adapter.BadRequest(id, message, httpCode))
}

// writeServiceError maps a rag service error onto the {"detail": ...} body of the synchronous endpoints.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, log *logger_i.Logger) {
	code := rag.ErrorCode(err)
	if code == http.StatusInternalServerError {
		log.Error("Request failed", "err", err)
	} else {
		log.Warn("Request rejected", "code", code, "err", err)
	}
	writeJsonResponse(w, code, api.ErrorResponse{Detail: publicMessage(err, code)}, log)
}

// publicMessage hides collaborator details behind the failing stage.
func publicMessage(err error, code int) string {
	if code != http.StatusInternalServerError {
		return err.Error()
	}
	for _, stage := range []error{kbModel.ErrEmbeddingFailed, kbModel.ErrSynthesisFailed, kbModel.ErrStorageFailed} {
		if errors.Is(err, stage) {
			return stage.Error()
		}
	}
	return "Internal Server Error"
}

func validateContext(ctx context.Context, log *logger_i.Logger) bool {
	if err := ctx.Err(); err != nil {
		log.Warn("context error", "err", err)
		return false
	}
	return true
}

func decodeBody(r *http.Request, dst any, log *logger_i.Logger) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error("Couldn't close the request body", "err", err)
		}
	}(r.Body)
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handlers) getTargetDirectory() (string, error) {
	targetDir := h.cfg.TempDir
	if targetDir == "" {
		targetDir = "temporary_data"
	}
	if !filepath.IsAbs(targetDir) {
		root, err := os.Getwd()
		if err != nil {
			return "", err
		}
		targetDir = filepath.Join(root, targetDir)
	}
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// saveUpload copies the multipart file named field into the temp directory and
// returns the name the user uploaded together with the temporary path.
func (h *Handlers) saveUpload(w http.ResponseWriter, r *http.Request, field string) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		return "", "", errUploadTooLarge
	}

	fileReader, fileMetadata, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("%w: missing %q file field", kbModel.ErrInvalidInput, field)
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(fileReader)

	if fileMetadata.Size == 0 {
		return "", "", fmt.Errorf("%w: file is empty", kbModel.ErrInvalidInput)
	}

	targetDir, err := h.getTargetDirectory()
	if err != nil {
		return "", "", err
	}

	original := filepath.Base(fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), original))
	destination, err := os.Create(tempFilePath)
	if err != nil {
		return "", "", err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, fileReader); err != nil {
		_ = os.Remove(tempFilePath)
		return "", "", err
	}
	return original, tempFilePath, nil
}

func removeUpload(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
