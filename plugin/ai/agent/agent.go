// Package agent drives the bounded tool-calling loop between the language
// model and the task tools.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/taskpilot/plugin/ai"
	"github.com/hrygo/taskpilot/store"
)

const systemInstructions = `You are a helpful task management assistant. You help users manage their todo tasks through natural language commands.

Your capabilities:
- Create new tasks with titles and optional descriptions
- List tasks (all, pending, or completed)
- Mark tasks as complete
- Delete tasks
- Update task titles and descriptions

Guidelines:
- Be conversational and friendly
- Ask for clarification when commands are ambiguous
- Confirm actions after completing them
- Use the provided tools to interact with the task database
- Always reference tasks by their ID when performing operations
- When listing tasks, present them in a clear, numbered format

Remember: You can only access and modify tasks for the current user.`

const (
	// exhaustedMessage is returned when the iteration cap is reached with the
	// model still requesting tools. It is a safety valve, not an error.
	exhaustedMessage = "I've completed the requested operations."
	// emptyFallbackMessage stands in for a model reply with no content.
	emptyFallbackMessage = "I'm here to help with your tasks!"
)

// ToolInvocation records one executed tool call for transparency.
type ToolInvocation struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
	Result    string          `json:"result"`
}

// Result is the outcome of one agent run.
type Result struct {
	Content   string
	ToolCalls []ToolInvocation
}

// TaskAgent is a stateless, reusable agent loop instance. All per-request
// state lives in the arguments to Run.
type TaskAgent struct {
	client   ai.CompletionClient
	config   *ai.Config
	executor *ToolExecutor
}

func NewTaskAgent(client ai.CompletionClient, cfg *ai.Config, executor *ToolExecutor) *TaskAgent {
	return &TaskAgent{
		client:   client,
		config:   cfg,
		executor: executor,
	}
}

// Run drives the tool-calling loop for one exchange. history is the bounded
// message window, oldest first. The loop issues at most MaxIterations model
// calls; each round of tool invocations is executed in the order the model
// returned them, with the verified user id injected regardless of what the
// model put in the arguments.
func (a *TaskAgent) Run(ctx context.Context, userID int32, userMessage string, history []*store.Message) (*Result, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstructions,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	schemas := taskToolSchemas()
	invocations := []ToolInvocation{}

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.config.Model,
			Messages:    messages,
			Tools:       schemas,
			Temperature: a.config.Temperature,
			MaxTokens:   a.config.MaxTokens,
		})
		if err != nil {
			return nil, errors.Wrap(err, "chat completion failed")
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty chat response")
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			content := message.Content
			if content == "" {
				content = emptyFallbackMessage
			}
			return &Result{Content: content, ToolCalls: invocations}, nil
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   message.Content,
			ToolCalls: message.ToolCalls,
		})

		for _, call := range message.ToolCalls {
			observation := a.executor.Execute(ctx, userID, call.Function.Name, call.Function.Arguments)

			slog.Debug("tool call executed",
				slog.String("tool", call.Function.Name),
				slog.Int("iteration", iteration+1))

			invocations = append(invocations, ToolInvocation{
				Tool:      call.Function.Name,
				Arguments: recordArguments(call.Function.Arguments, userID),
				Result:    observation,
			})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    observation,
			})
		}
	}

	return &Result{Content: exhaustedMessage, ToolCalls: invocations}, nil
}

// recordArguments returns the argument mapping as it was executed: the
// verified user id replaces whatever the model supplied before the call is
// recorded. Garbage that does not decode is preserved as a JSON string.
func recordArguments(arguments string, userID int32) json.RawMessage {
	if arguments == "" {
		arguments = "{}"
	}
	decoded := map[string]any{}
	if err := json.Unmarshal([]byte(arguments), &decoded); err != nil {
		quoted, _ := json.Marshal(arguments)
		return quoted
	}
	decoded["user_id"] = userID
	encoded, _ := json.Marshal(decoded)
	return encoded
}
