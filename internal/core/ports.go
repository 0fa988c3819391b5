package core

import (
	"context"

	"github.com/opsmind/backend/internal/store"
	"github.com/opsmind/backend/internal/vapi"
)

// TextExtractor turns one uploaded document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// KnowledgeUploader pushes extracted text to the platform's file store
// and returns the opaque remote file id.
type KnowledgeUploader interface {
	UploadText(ctx context.Context, text, suggestedName string) (string, error)
}

// AssistantAPI is the slice of the voice platform the services consume.
type AssistantAPI interface {
	CreateAssistant(ctx context.Context, req vapi.AssistantRequest) (vapi.Assistant, error)
	GetAssistant(ctx context.Context, id string) (vapi.Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error
	GetPhoneNumber(ctx context.Context, id string) (vapi.Phone, error)
	ListCalls(ctx context.Context, assistantID, phoneNumberID string) ([]vapi.Call, error)
	GetCall(ctx context.Context, id string) (vapi.Call, error)
	CreateCall(ctx context.Context, assistantID, customerNumber, phoneNumberID string) (vapi.Call, error)
}

// AgentRecordStore is the single persistence surface for assistant
// ownership records.
type AgentRecordStore interface {
	InsertAgentRecord(userID int64, assistantID string) (*store.AgentRecord, error)
	AgentRecordsByUser(userID int64) ([]store.AgentRecord, error)
	DeleteAgentRecordByAssistantID(assistantID string) (int64, error)
}

// PhoneRecordStore reads phone-number ownership records.
type PhoneRecordStore interface {
	PhoneRecordsByUser(userID int64) ([]store.PhoneRecord, error)
}
