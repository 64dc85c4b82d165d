package adapter

import (
	"github.com/akolanti/KnowledgeBase/internal/api"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

func ToUploadResponse(doc kbModel.Document) api.UploadResponse {
	return api.UploadResponse{
		Success: true,
		Message: "Document uploaded and processed successfully",
		Document: api.IngestResponse{
			DocumentId: doc.ID,
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount,
		},
	}
}

func ToDocumentsResponse(docs []kbModel.Document) api.DocumentsResponse {
	infos := make([]api.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, api.DocumentInfo{
			Id:         d.ID,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
		})
	}
	return api.DocumentsResponse{Success: true, Count: len(infos), Documents: infos}
}

func ToDeleteResponse(id string, removed int) api.DeleteResponse {
	return api.DeleteResponse{
		Success: true,
		Message: "Document deleted successfully",
		Deleted: api.DeletedInfo{DocumentId: id, ChunksRemoved: removed},
	}
}

func ToAskResponse(answer kbModel.Answer) api.AskResponse {
	sources := answer.Sources
	if sources == nil {
		sources = []kbModel.Source{}
	}
	return api.AskResponse{
		Answer:     answer.Answer,
		Sources:    sources,
		TokensUsed: answer.TokensUsed,
		Degraded:   answer.Degraded,
		Cached:     answer.Cached,
	}
}
