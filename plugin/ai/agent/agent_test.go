package agent

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/plugin/ai"
	"github.com/hrygo/taskpilot/plugin/ai/agent/tools"
	"github.com/hrygo/taskpilot/store"
	storetest "github.com/hrygo/taskpilot/store/test"
)

// fakeClient replays a scripted sequence of chat responses and records the
// requests it receives.
type fakeClient struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func toolCallResponse(callID, name, arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{
					{
						ID:   callID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      name,
							Arguments: arguments,
						},
					},
				},
			}},
		},
	}
}

func newTestAgent(t *testing.T, client ai.CompletionClient) (*TaskAgent, *store.Store) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	cfg := &ai.Config{Model: "test-model", MaxIterations: 5}
	executor := NewToolExecutor(tools.NewTaskTools(ts))
	return NewTaskAgent(client, cfg, executor), ts
}

func TestRunPlainAnswer(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		textResponse("Hello! How can I help with your tasks?"),
	}}
	agent, _ := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 1, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "Hello! How can I help with your tasks?", result.Content)
	require.Empty(t, result.ToolCalls)
	require.Len(t, client.requests, 1)

	// System instructions lead the transcript, user message closes it.
	messages := client.requests[0].Messages
	require.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	require.Equal(t, "hi", messages[len(messages)-1].Content)
	require.Len(t, client.requests[0].Tools, 5)
}

func TestRunEmptyContentFallback(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		textResponse(""),
	}}
	agent, _ := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 1, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "I'm here to help with your tasks!", result.Content)
}

func TestRunToolCallThenAnswer(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call_1", "add_task", `{"title":"buy milk"}`),
		textResponse("Done! I've added 'buy milk' to your list."),
	}}
	agent, ts := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 7, "Add a task to buy milk", nil)
	require.NoError(t, err)
	require.Equal(t, "Done! I've added 'buy milk' to your list.", result.Content)
	require.Len(t, result.ToolCalls, 1)
	require.Equal(t, "add_task", result.ToolCalls[0].Tool)
	require.Equal(t, "Successfully created task: buy milk", result.ToolCalls[0].Result)

	// The observation was fed back as a tool message on the second request.
	second := client.requests[1].Messages
	last := second[len(second)-1]
	require.Equal(t, openai.ChatMessageRoleTool, last.Role)
	require.Equal(t, "call_1", last.ToolCallID)
	require.Equal(t, "Successfully created task: buy milk", last.Content)

	creator := int32(7)
	task, err := ts.GetTask(context.Background(), &store.FindTask{CreatorID: &creator})
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "buy milk", task.Title)
}

func TestRunOverridesModelSuppliedUserID(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call_1", "add_task", `{"title":"sneaky","user_id":999}`),
		textResponse("done"),
	}}
	agent, ts := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 7, "add it", nil)
	require.NoError(t, err)

	// The invocation record reflects the arguments that actually ran, with
	// the verified tenant in place of the model-claimed one.
	require.Len(t, result.ToolCalls, 1)
	require.JSONEq(t, `{"title":"sneaky","user_id":7}`, string(result.ToolCalls[0].Arguments))

	// The task belongs to the verified caller, not the model-claimed tenant.
	caller := int32(7)
	task, err := ts.GetTask(context.Background(), &store.FindTask{CreatorID: &caller})
	require.NoError(t, err)
	require.NotNil(t, task)

	claimed := int32(999)
	stolen, err := ts.GetTask(context.Background(), &store.FindTask{CreatorID: &claimed})
	require.NoError(t, err)
	require.Nil(t, stolen)
}

func TestRunIterationCap(t *testing.T) {
	responses := make([]openai.ChatCompletionResponse, 0, 6)
	for i := 0; i < 6; i++ {
		responses = append(responses, toolCallResponse("call_x", "list_tasks", `{}`))
	}
	client := &fakeClient{responses: responses}
	agent, _ := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 1, "list forever", nil)
	require.NoError(t, err)
	require.Equal(t, "I've completed the requested operations.", result.Content)
	require.Len(t, result.ToolCalls, 5)
	require.Len(t, client.requests, 5)
}

func TestRunUnknownTool(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call_1", "format_disk", `{}`),
		textResponse("sorry"),
	}}
	agent, _ := newTestAgent(t, client)

	result, err := agent.Run(context.Background(), 1, "do something odd", nil)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	require.Equal(t, "Error: Unknown tool 'format_disk'", result.ToolCalls[0].Result)
}

func TestRunHistoryIncluded(t *testing.T) {
	client := &fakeClient{responses: []openai.ChatCompletionResponse{
		textResponse("I remember."),
	}}
	agent, _ := newTestAgent(t, client)

	history := []*store.Message{
		{Role: store.MessageRoleUser, Content: "earlier question"},
		{Role: store.MessageRoleAssistant, Content: "earlier answer"},
	}
	_, err := agent.Run(context.Background(), 1, "follow up", history)
	require.NoError(t, err)

	messages := client.requests[0].Messages
	require.Len(t, messages, 4)
	require.Equal(t, "earlier question", messages[1].Content)
	require.Equal(t, "earlier answer", messages[2].Content)
	require.Equal(t, "follow up", messages[3].Content)
}
