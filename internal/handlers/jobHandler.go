package handlers

import (
	"errors"
	"net/http"

	"github.com/akolanti/KnowledgeBase/internal/adapter"
	"github.com/akolanti/KnowledgeBase/internal/adapter/utils"
	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/job"
	"github.com/akolanti/KnowledgeBase/internal/rag/ingest"
)

// Chat godoc
// @Summary      Start a new chat job
// @Description  Accepts a message, initializes a background processing job, and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Chat Message and optional Chat ID"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or chat ID"
// @Router       /chat [post]
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	if !validateContext(r.Context(), log) {
		return
	}

	var requestData api.ChatRequest
	if err := decodeBody(r, &requestData, log); err != nil || requestData.Message == "" {
		log.Warn("Bad Chat Request", "err", err, "chatId", requestData.ChatID)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Bad Request")
		return
	}

	queued, err := h.jobs.SubmitAsk(r.Context(), requestData.ChatID, requestData.Message, requestData.TopK)
	if errors.Is(err, job.ErrUnknownChat) {
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Unknown chat id")
		return
	}
	if err != nil {
		log.Error("Could not queue chat job", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, requestData.ChatID, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued), log)
}

// Status godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	idString := utils.GetChiURLParam(r, "id")
	log.Debug("Get Status Request", "URL path", r.URL.Path)

	result, isFound := h.jobs.GetJob(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result), log)
}

// Ingest godoc
// @Summary      Upload a document for background ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document       formData  file    true  "The document to ingest"
// @Success      202  {object}  api.InitJobResponse "Accepted - poll status_url"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing fields, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /ingest [post]
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	if !validateContext(r.Context(), log) {
		return
	}

	filename, path, err := h.saveUpload(w, r, "document")
	if err != nil {
		log.Warn("Upload rejected", "err", err)
		if errors.Is(err, errUploadTooLarge) || kbModel.IsValidation(err) {
			WriteErrorResponse(w, http.StatusBadRequest, filename, err.Error())
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, filename, "Storage error")
		return
	}
	if ingest.GetDocType(filename) == ingest.ERR {
		_ = removeUpload(path)
		WriteErrorResponse(w, http.StatusBadRequest, filename, "Unsupported file type")
		return
	}

	queued, err := h.jobs.SubmitIngest(r.Context(), filename, path)
	if err != nil {
		_ = removeUpload(path)
		log.Error("Could not queue ingest job", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, filename, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued), log)
}

// ChatHistory godoc
// @Summary      Chat transcript
// @Description  Lists the answered questions of a chat, oldest first.
// @Tags         Messaging
// @Produce      json
// @Param        id   path      string  true  "Chat ID"
// @Success      200  {object}  api.ChatHistoryResponse
// @Failure      404  {object}  api.JobResponse  "Unknown chat"
// @Router       /chat/{id}/history [get]
func (h *Handlers) ChatHistory(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)
	chatId := utils.GetChiURLParam(r, "id")

	history, err := h.jobs.ChatHistory(r.Context(), chatId)
	if errors.Is(err, job.ErrUnknownChat) {
		WriteErrorResponse(w, http.StatusNotFound, chatId, "Chat not found")
		return
	}
	if err != nil {
		log.Error("Could not read chat history", "chatId", chatId, "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, chatId, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatHistory(chatId, history), log)
}
