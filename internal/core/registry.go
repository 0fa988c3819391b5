package core

import (
	"context"
	"log"

	"github.com/opsmind/backend/internal/vapi"
)

// Registry answers read queries by joining local ownership records
// against the platform's live resource state, and handles assistant
// deletion across both sides.
type Registry struct {
	platform AssistantAPI
	agents   AgentRecordStore
	phones   PhoneRecordStore
}

func NewRegistry(platform AssistantAPI, agents AgentRecordStore, phones PhoneRecordStore) *Registry {
	return &Registry{
		platform: platform,
		agents:   agents,
		phones:   phones,
	}
}

// ListAgents fetches the live descriptor for every assistant the user
// owns. Best-effort: a failed lookup is logged and skipped, the rest of
// the list still comes back.
func (r *Registry) ListAgents(ctx context.Context, userID int64) ([]vapi.Assistant, error) {
	records, err := r.agents.AgentRecordsByUser(userID)
	if err != nil {
		return nil, err
	}

	results := make([]vapi.Assistant, 0, len(records))
	for _, rec := range records {
		assistant, err := r.platform.GetAssistant(ctx, rec.AssistantID)
		if err != nil {
			log.Printf("Skipping assistant %s for user %d: %v", rec.AssistantID, userID, err)
			continue
		}
		results = append(results, assistant)
	}
	return results, nil
}

// ListPhones is the same best-effort fan-out over phone records.
func (r *Registry) ListPhones(ctx context.Context, userID int64) ([]vapi.Phone, error) {
	records, err := r.phones.PhoneRecordsByUser(userID)
	if err != nil {
		return nil, err
	}

	results := make([]vapi.Phone, 0, len(records))
	for _, rec := range records {
		phone, err := r.platform.GetPhoneNumber(ctx, rec.PhoneID)
		if err != nil {
			log.Printf("Skipping phone %s for user %d: %v", rec.PhoneID, userID, err)
			continue
		}
		results = append(results, phone)
	}
	return results, nil
}

// ListCalls relays the platform's call log, requiring at least one
// filter so the query cannot span every tenant's calls.
func (r *Registry) ListCalls(ctx context.Context, assistantID, phoneID string) ([]vapi.Call, error) {
	if assistantID == "" && phoneID == "" {
		return nil, ErrMissingFilter
	}
	return r.platform.ListCalls(ctx, assistantID, phoneID)
}

// GetCall fetches one call record and strips machinery messages from
// its transcript before handing it to the caller.
func (r *Registry) GetCall(ctx context.Context, id string) (vapi.Call, error) {
	call, err := r.platform.GetCall(ctx, id)
	if err != nil {
		return nil, err
	}

	if msgs, ok := call["messages"].([]any); ok {
		call["messages"] = filterCallMessages(msgs)
	}
	if artifact, ok := call["artifact"].(map[string]any); ok {
		if msgs, ok := artifact["messages"].([]any); ok {
			artifact["messages"] = filterCallMessages(msgs)
		}
	}
	return call, nil
}

// DeleteAgent removes the assistant remotely first; only after that
// succeeds is the local record deleted. Returns the number of local
// rows removed. A remote failure must leave the local record in place,
// otherwise it would point at nothing.
func (r *Registry) DeleteAgent(ctx context.Context, assistantID string) (int64, error) {
	if err := r.platform.DeleteAssistant(ctx, assistantID); err != nil {
		return 0, err
	}
	return r.agents.DeleteAgentRecordByAssistantID(assistantID)
}

// filterCallMessages drops a leading system message and removes tool
// invocation/result messages, keeping the conversational turns.
func filterCallMessages(msgs []any) []any {
	if len(msgs) == 0 {
		return msgs
	}

	if first, ok := msgs[0].(map[string]any); ok {
		if role, _ := first["role"].(string); role == "system" {
			msgs = msgs[1:]
		}
	}

	filtered := make([]any, 0, len(msgs))
	for _, m := range msgs {
		if msg, ok := m.(map[string]any); ok {
			role, _ := msg["role"].(string)
			if role == "tool_calls" || role == "tool_call_result" {
				continue
			}
		}
		filtered = append(filtered, m)
	}
	return filtered
}
