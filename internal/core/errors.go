package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFilesProvided rejects provisioning requests with no documents.
	ErrNoFilesProvided = errors.New("at least one file is required")

	// ErrNoKnowledgeContent guards assistant creation against an empty
	// knowledge file set. Unreachable while the pipeline is
	// all-or-nothing, but checked anyway.
	ErrNoKnowledgeContent = errors.New("no knowledge content was produced from the uploaded files")

	// ErrMissingFilter rejects call-log queries with neither filter set.
	ErrMissingFilter = errors.New("assistant_id or phone_id is required")
)

// FileError ties a pipeline failure to the uploaded file it came from.
type FileError struct {
	Filename string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q: %v", e.Filename, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// OrphanedAgentError reports that the assistant was created on the
// platform but the local ownership record could not be written. The
// remote id is carried so a reconciliation job can find the orphan.
type OrphanedAgentError struct {
	AssistantID string
	Err         error
}

func (e *OrphanedAgentError) Error() string {
	return fmt.Sprintf("assistant %s created remotely but local record failed: %v", e.AssistantID, e.Err)
}

func (e *OrphanedAgentError) Unwrap() error { return e.Err }
