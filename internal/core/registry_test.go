package core_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmind/backend/internal/core"
	"github.com/opsmind/backend/internal/store"
	"github.com/opsmind/backend/internal/vapi"
)

func TestListAgents_PartialFailureKeepsRest(t *testing.T) {
	agents := &fakeAgentStore{records: []store.AgentRecord{
		{ID: "r1", UserID: 1, AssistantID: "asst_1"},
		{ID: "r2", UserID: 1, AssistantID: "asst_2"},
		{ID: "r3", UserID: 1, AssistantID: "asst_3"},
	}}
	platform := &fakePlatform{
		getAssistantFn: func(id string) (vapi.Assistant, error) {
			if id == "asst_2" {
				return nil, &vapi.APIError{Operation: "get assistant", StatusCode: http.StatusInternalServerError, Body: "boom"}
			}
			return vapi.Assistant{"id": id}, nil
		},
	}

	registry := core.NewRegistry(platform, agents, &fakePhoneStore{})
	result, err := registry.ListAgents(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "asst_1", result[0].ID())
	assert.Equal(t, "asst_3", result[1].ID())
}

func TestListPhones_PartialFailureKeepsRest(t *testing.T) {
	phones := &fakePhoneStore{records: []store.PhoneRecord{
		{ID: "p1", UserID: 1, PhoneID: "phone_1"},
		{ID: "p2", UserID: 1, PhoneID: "phone_2"},
		{ID: "p3", UserID: 1, PhoneID: "phone_3"},
	}}
	platform := &fakePlatform{
		getPhoneFn: func(id string) (vapi.Phone, error) {
			if id == "phone_1" {
				return nil, errors.New("timeout")
			}
			return vapi.Phone{"id": id}, nil
		},
	}

	registry := core.NewRegistry(platform, &fakeAgentStore{}, phones)
	result, err := registry.ListPhones(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestListCalls_RequiresFilter(t *testing.T) {
	platform := &fakePlatform{}
	registry := core.NewRegistry(platform, &fakeAgentStore{}, &fakePhoneStore{})

	_, err := registry.ListCalls(context.Background(), "", "")
	assert.ErrorIs(t, err, core.ErrMissingFilter)
	assert.Zero(t, platform.listCallCount, "no outbound call may happen without a filter")
}

func TestListCalls_WithFilter(t *testing.T) {
	platform := &fakePlatform{listedCalls: []vapi.Call{{"id": "call_1"}}}
	registry := core.NewRegistry(platform, &fakeAgentStore{}, &fakePhoneStore{})

	calls, err := registry.ListCalls(context.Background(), "asst_1", "")
	require.NoError(t, err)
	assert.Len(t, calls, 1)
	assert.Equal(t, 1, platform.listCallCount)
}

func TestGetCall_FiltersMachineryMessages(t *testing.T) {
	transcript := []any{
		map[string]any{"role": "system", "message": "prompt"},
		map[string]any{"role": "user", "message": "hi"},
		map[string]any{"role": "tool_calls", "message": "lookup"},
		map[string]any{"role": "assistant", "message": "hello"},
	}
	platform := &fakePlatform{
		getCallFn: func(id string) (vapi.Call, error) {
			return vapi.Call{
				"id":       id,
				"messages": transcript,
				"artifact": map[string]any{
					"messages": []any{
						map[string]any{"role": "system", "message": "prompt"},
						map[string]any{"role": "tool_call_result", "message": "result"},
						map[string]any{"role": "user", "message": "hi"},
					},
				},
			}, nil
		},
	}

	registry := core.NewRegistry(platform, &fakeAgentStore{}, &fakePhoneStore{})
	call, err := registry.GetCall(context.Background(), "call_1")
	require.NoError(t, err)

	msgs := call["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])

	artifactMsgs := call["artifact"].(map[string]any)["messages"].([]any)
	require.Len(t, artifactMsgs, 1)
	assert.Equal(t, "user", artifactMsgs[0].(map[string]any)["role"])
}

func TestGetCall_SystemMessageOnlyDroppedWhenLeading(t *testing.T) {
	platform := &fakePlatform{
		getCallFn: func(id string) (vapi.Call, error) {
			return vapi.Call{
				"id": id,
				"messages": []any{
					map[string]any{"role": "user", "message": "hi"},
					map[string]any{"role": "system", "message": "mid-call note"},
				},
			}, nil
		},
	}

	registry := core.NewRegistry(platform, &fakeAgentStore{}, &fakePhoneStore{})
	call, err := registry.GetCall(context.Background(), "call_1")
	require.NoError(t, err)

	msgs := call["messages"].([]any)
	require.Len(t, msgs, 2, "a non-leading system message stays")
}

func TestDeleteAgent_RemoteFailureLeavesLocalRecord(t *testing.T) {
	agents := &fakeAgentStore{deleteRows: 1}
	platform := &fakePlatform{
		deleteErr: &vapi.APIError{Operation: "delete assistant", StatusCode: http.StatusBadGateway, Body: "upstream down"},
	}

	registry := core.NewRegistry(platform, agents, &fakePhoneStore{})
	_, err := registry.DeleteAgent(context.Background(), "asst_1")

	var apiErr *vapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, agents.deletedIDs, "local record must survive a failed remote delete")
}

func TestDeleteAgent_RemoteSuccessDeletesLocal(t *testing.T) {
	agents := &fakeAgentStore{deleteRows: 1}
	platform := &fakePlatform{}

	registry := core.NewRegistry(platform, agents, &fakePhoneStore{})
	deleted, err := registry.DeleteAgent(context.Background(), "asst_1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, []string{"asst_1"}, platform.deletedIDs)
	assert.Equal(t, []string{"asst_1"}, agents.deletedIDs)
}
