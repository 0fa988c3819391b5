package core

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/opsmind/backend/internal/vapi"
)

// maxConcurrentFiles bounds outbound extract/upload calls per request
// so a large batch cannot overwhelm the external services.
const maxConcurrentFiles = 8

type AgentService struct {
	extractor TextExtractor
	uploader  KnowledgeUploader
	platform  AssistantAPI
	agents    AgentRecordStore
}

func NewAgentService(extractor TextExtractor, uploader KnowledgeUploader, platform AssistantAPI, agents AgentRecordStore) *AgentService {
	return &AgentService{
		extractor: extractor,
		uploader:  uploader,
		platform:  platform,
		agents:    agents,
	}
}

// UploadedFile is one document from the provisioning request. Owned by
// a single CreateAgent run and discarded after extraction.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type CreateAgentParams struct {
	Name         string
	FirstMessage string
	SystemPrompt string
	UserID       int64
	Files        []UploadedFile
}

// CreateAgent runs the full provisioning pipeline: OCR every document,
// upload each text as a knowledge file, create the assistant with the
// ordered file ids, then persist the ownership record. All-or-nothing
// across files: one failed extraction or upload fails the request
// before any assistant is created.
func (s *AgentService) CreateAgent(ctx context.Context, params CreateAgentParams) (vapi.Assistant, error) {
	if len(params.Files) == 0 {
		return nil, ErrNoFilesProvided
	}

	fileIDs, err := s.uploadKnowledgeFiles(ctx, params.Files)
	if err != nil {
		return nil, err
	}
	if len(fileIDs) == 0 {
		return nil, ErrNoKnowledgeContent
	}

	req := vapi.NewAssistantRequest(params.Name, params.FirstMessage, params.SystemPrompt, fileIDs)
	assistant, err := s.platform.CreateAssistant(ctx, req)
	if err != nil {
		return nil, err
	}

	assistantID := assistant.ID()
	if assistantID == "" {
		return nil, fmt.Errorf("assistant descriptor missing id")
	}

	// The remote assistant exists from here on. A failed local write
	// must not look like "nothing happened".
	if _, err := s.agents.InsertAgentRecord(params.UserID, assistantID); err != nil {
		return nil, &OrphanedAgentError{AssistantID: assistantID, Err: err}
	}

	log.Printf("Provisioned assistant %s for user %d from %d files", assistantID, params.UserID, len(fileIDs))
	return assistant, nil
}

// TestCall places an outbound call to a customer number so a freshly
// provisioned assistant can be tried end to end.
func (s *AgentService) TestCall(ctx context.Context, assistantID, customerNumber, phoneNumberID string) (vapi.Call, error) {
	return s.platform.CreateCall(ctx, assistantID, customerNumber, phoneNumberID)
}

// uploadKnowledgeFiles extracts and uploads every file, bounded by
// maxConcurrentFiles. Results land in their input-order slots
// regardless of completion order; the first failure cancels the rest.
func (s *AgentService) uploadKnowledgeFiles(ctx context.Context, files []UploadedFile) ([]string, error) {
	results := make([]string, len(files))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentFiles)

	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			text, err := s.extractor.Extract(gctx, f.Data, f.Name, f.ContentType)
			if err != nil {
				return &FileError{Filename: f.Name, Err: err}
			}

			fileID, err := s.uploader.UploadText(gctx, text, f.Name)
			if err != nil {
				return &FileError{Filename: f.Name, Err: err}
			}

			results[i] = fileID
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	fileIDs := make([]string, 0, len(results))
	for _, id := range results {
		if id != "" {
			fileIDs = append(fileIDs, id)
		}
	}
	return fileIDs, nil
}
