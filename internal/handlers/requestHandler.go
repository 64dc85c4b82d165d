package handlers

import (
	"errors"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/adapter"
	"github.com/akolanti/KnowledgeBase/internal/adapter/utils"
	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/job"
	"github.com/akolanti/KnowledgeBase/internal/rag"
	"github.com/akolanti/KnowledgeBase/internal/rag/ingest"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

// Handlers serves the HTTP API. The synchronous knowledge base endpoints call the
// rag service directly, the chat and ingest endpoints queue jobs.
type Handlers struct {
	rag    rag.Service
	jobs   *job.Service
	cfg    config.ServerConfig
	logger *logger_i.Logger
}

func New(ragService rag.Service, jobs *job.Service, cfg config.ServerConfig) *Handlers {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.MaxUploadSize
	}
	return &Handlers{
		rag:    ragService,
		jobs:   jobs,
		cfg:    cfg,
		logger: logger_i.NewLogger("RequestHandler"),
	}
}

func (h *Handlers) requestLogger(r *http.Request) *logger_i.Logger {
	return h.logger.With("traceId", config.TraceID(r.Context()))
}

// Health godoc
// @Summary      Health check
// @Tags         Knowledge Base
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "healthy", Service: "RAG Knowledge Base"}, h.logger)
}

// Upload godoc
// @Summary      Upload and ingest a document
// @Description  Extracts text from a .txt, .md, .markdown, .pdf, .docx, .odt or .rtf file, chunks and embeds it, and stores the result before responding.
// @Tags         Knowledge Base
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Document to ingest"
// @Success      200  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse  "Unsupported, empty or unreadable file"
// @Failure      500  {object}  api.ErrorResponse  "Embedding or storage failure"
// @Router       /upload [post]
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	if !validateContext(r.Context(), log) {
		return
	}

	filename, path, err := h.saveUpload(w, r, "file")
	if err != nil {
		h.writeUploadError(w, err, log)
		return
	}
	if ingest.GetDocType(filename) == ingest.ERR {
		_ = removeUpload(path)
		h.writeServiceError(w, kbModel.ErrUnsupportedFormat, log)
		return
	}

	doc, err := h.rag.IngestFile(r.Context(), filename, path)
	if err != nil {
		h.writeServiceError(w, err, log)
		return
	}
	log.Info("Document ingested", "documentId", doc.ID, "chunks", doc.ChunkCount)
	writeJsonResponse(w, http.StatusOK, adapter.ToUploadResponse(doc), log)
}

// ListDocuments godoc
// @Summary      List ingested documents
// @Tags         Knowledge Base
// @Produce      json
// @Success      200  {object}  api.DocumentsResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /documents [get]
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	docs, err := h.rag.ListDocuments(r.Context())
	if err != nil {
		h.writeServiceError(w, err, log)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentsResponse(docs), log)
}

// DeleteDocument godoc
// @Summary      Delete a document and its chunks
// @Tags         Knowledge Base
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DeleteResponse
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Failure      500  {object}  api.ErrorResponse
// @Router       /documents/{id} [delete]
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	id := utils.GetChiURLParam(r, "id")

	removed, err := h.rag.DeleteDocument(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, log)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDeleteResponse(id, removed), log)
}

// Ask godoc
// @Summary      Ask the knowledge base
// @Description  Retrieves the most relevant chunks and answers from them. degraded is true when the ranking was unavailable.
// @Tags         Knowledge Base
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question and optional top_k"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.ErrorResponse  "Empty question or top_k out of range"
// @Failure      500      {object}  api.ErrorResponse
// @Router       /ask [post]
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	if !validateContext(r.Context(), log) {
		return
	}

	var request api.AskRequest
	if err := decodeBody(r, &request, log); err != nil {
		log.Warn("Bad ask request", "err", err)
		writeJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{Detail: "Bad Request"}, log)
		return
	}

	answer, err := h.rag.Ask(r.Context(), request.Question, request.TopK)
	if err != nil {
		h.writeServiceError(w, err, log)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(answer), log)
}

// Stats godoc
// @Summary      Knowledge base statistics
// @Tags         Knowledge Base
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /stats [get]
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	stats, err := h.rag.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err, log)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.StatsResponse{Success: true, Stats: stats}, log)
}

func (h *Handlers) writeUploadError(w http.ResponseWriter, err error, log *logger_i.Logger) {
	if errors.Is(err, errUploadTooLarge) {
		log.Warn("Upload rejected", "err", err)
		writeJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{Detail: err.Error()}, log)
		return
	}
	if kbModel.IsValidation(err) {
		h.writeServiceError(w, err, log)
		return
	}
	log.Error("Could not store upload", "err", err)
	writeJsonResponse(w, http.StatusInternalServerError, api.ErrorResponse{Detail: "Storage error"}, log)
}
