package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
)

func ToInitJobResponse(job jobModel.Job) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StatusURL: fmt.Sprintf("status/%s", job.Id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
		Step:   string(job.CurrentStep),
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.Ingest = ToIngestResponse(job.JobPayload)
	} else {
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question:   ragData.Question,
		Answer:     ragData.Answer,
		Sources:    ragData.Sources,
		TokensUsed: ragData.TokensUsed,
		Degraded:   ragData.Degraded,
	}
}

func ToIngestResponse(payload jobModel.JobPayload) *api.IngestResponse {
	if payload.DocumentId == "" {
		return nil
	}
	return &api.IngestResponse{
		DocumentId: payload.DocumentId,
		Filename:   payload.IngestFileName,
		ChunkCount: payload.ChunkCount,
	}
}

func ToChatHistory(chatId string, history []jobModel.JobPayload) api.ChatHistoryResponse {
	messages := make([]api.ChatMessage, 0, len(history))
	for _, p := range history {
		messages = append(messages, api.ChatMessage{
			Question: p.Question,
			Answer:   p.Answer,
			Sources:  p.Sources,
		})
	}
	return api.ChatHistoryResponse{ChatId: chatId, Messages: messages}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
