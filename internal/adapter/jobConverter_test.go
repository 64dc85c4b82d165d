package adapter

import (
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

func TestToAPIResponse(t *testing.T) {
	tests := []struct {
		name       string
		job        jobModel.Job
		wantError  bool
		wantRAG    bool
		wantIngest bool
	}{
		{
			name: "queued ask has no result yet",
			job:  jobModel.Job{Id: "1", JobType: jobModel.JobTypeAsk, Status: jobModel.JobStatusQueued},
		},
		{
			name: "answered ask",
			job: jobModel.Job{Id: "2", JobType: jobModel.JobTypeAsk, Status: jobModel.JobStatusComplete,
				JobPayload: jobModel.JobPayload{Question: "q", Answer: "a", Sources: []kbModel.Source{{Document: "d.md"}}}},
			wantRAG: true,
		},
		{
			name: "finished ingest",
			job: jobModel.Job{Id: "3", JobType: jobModel.JobTypeIngest, Status: jobModel.JobStatusComplete,
				JobPayload: jobModel.JobPayload{IngestFileName: "d.md", DocumentId: "doc", ChunkCount: 4}},
			wantIngest: true,
		},
		{
			name: "failed job",
			job: jobModel.Job{Id: "4", JobType: jobModel.JobTypeAsk, Status: jobModel.JobStatusError,
				Error: jobModel.JobError{Code: 500, Message: "Internal Server Error", Retry: true}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAPIResponse(tt.job)
			if got.Id != tt.job.Id || got.Result.Status != string(tt.job.Status) {
				t.Errorf("unexpected header fields: %+v", got)
			}
			if (got.Error != nil) != tt.wantError {
				t.Errorf("error = %+v, want present=%v", got.Error, tt.wantError)
			}
			if (got.Result.RAGExternalResponse != nil) != tt.wantRAG {
				t.Errorf("rag response = %+v, want present=%v", got.Result.RAGExternalResponse, tt.wantRAG)
			}
			if (got.Result.Ingest != nil) != tt.wantIngest {
				t.Errorf("ingest = %+v, want present=%v", got.Result.Ingest, tt.wantIngest)
			}
		})
	}
}

func TestToAskResponse_NilSourcesBecomeEmpty(t *testing.T) {
	got := ToAskResponse(kbModel.Answer{Answer: "none"})
	if got.Sources == nil || len(got.Sources) != 0 {
		t.Errorf("sources = %#v, want empty slice", got.Sources)
	}
}

func TestToInitJobResponse(t *testing.T) {
	got := ToInitJobResponse(jobModel.Job{Id: "abc", ChatId: "chat"})
	if got.StatusURL != "status/abc" || got.ChatId != "chat" {
		t.Errorf("got %+v", got)
	}
}
