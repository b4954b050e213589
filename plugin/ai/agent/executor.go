package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hrygo/taskpilot/plugin/ai/agent/tools"
)

// ToolExecutor dispatches model tool invocations to the task tools. Every
// failure path is converted into an observation string for the model; the
// loop never aborts because one tool call went wrong.
type ToolExecutor struct {
	tools *tools.TaskTools
}

func NewToolExecutor(t *tools.TaskTools) *ToolExecutor {
	return &ToolExecutor{tools: t}
}

// Each argument struct carries a user_id field so a model that echoes it back
// does not trip strict decoding. The decoded value is discarded; the caller's
// verified user id always wins.
type createTaskArgs struct {
	UserID      int32  `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type listTasksArgs struct {
	UserID int32  `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
}

type completeTaskArgs struct {
	UserID int32   `json:"user_id,omitempty"`
	TaskID *int32  `json:"task_id,omitempty"`
	Title  *string `json:"title,omitempty"`
}

type deleteTaskArgs struct {
	UserID int32   `json:"user_id,omitempty"`
	TaskID *int32  `json:"task_id,omitempty"`
	Title  *string `json:"title,omitempty"`
}

type updateTaskArgs struct {
	UserID      int32   `json:"user_id,omitempty"`
	TaskID      int32   `json:"task_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Execute runs one named tool call for the given user and returns the
// observation string to feed back to the model.
func (e *ToolExecutor) Execute(ctx context.Context, userID int32, name, arguments string) string {
	observation, err := e.dispatch(ctx, userID, name, arguments)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %s", name, err.Error())
	}
	return observation
}

func (e *ToolExecutor) dispatch(ctx context.Context, userID int32, name, arguments string) (string, error) {
	switch name {
	case toolCreateTask:
		args := createTaskArgs{}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return e.tools.CreateTask(ctx, userID, args.Title, args.Description)
	case toolListTasks:
		args := listTasksArgs{}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return e.tools.ListTasks(ctx, userID, args.Status)
	case toolCompleteTask:
		args := completeTaskArgs{}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return e.tools.CompleteTask(ctx, userID, args.TaskID, args.Title)
	case toolDeleteTask:
		args := deleteTaskArgs{}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return e.tools.DeleteTask(ctx, userID, args.TaskID, args.Title)
	case toolUpdateTask:
		args := updateTaskArgs{}
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		return e.tools.UpdateTask(ctx, userID, args.TaskID, args.Title, args.Description)
	default:
		return fmt.Sprintf("Error: Unknown tool '%s'", name), nil
	}
}

// decodeArgs parses the model-emitted argument blob into the typed structure
// for the tool, rejecting unrecognized fields.
func decodeArgs(arguments string, into any) error {
	if arguments == "" {
		arguments = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(arguments)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
