package agent

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	toolCreateTask   = "add_task"
	toolListTasks    = "list_tasks"
	toolCompleteTask = "complete_task"
	toolDeleteTask   = "delete_task"
	toolUpdateTask   = "update_task"
)

// taskToolSchemas is the fixed five-tool schema advertised to the model on
// every loop iteration.
func taskToolSchemas() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolCreateTask,
				Description: "Add a new task for the user",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"title": {
							Type:        jsonschema.String,
							Description: "Task title (required)",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "Optional task description",
						},
					},
					Required: []string{"title"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolListTasks,
				Description: "List tasks for the user",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"status": {
							Type:        jsonschema.String,
							Enum:        []string{"all", "pending", "completed"},
							Description: "Filter by status (default: all)",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolCompleteTask,
				Description: "Mark a task as complete by ID or title. Users typically don't know IDs, so prefer using title.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "ID of the task to complete (optional if title provided)",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "Title or partial title of the task to complete (optional if task_id provided)",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolDeleteTask,
				Description: "Delete a task by ID or title. Users typically don't know IDs, so prefer using title.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "ID of the task to delete (optional if title provided)",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "Title or partial title of the task to delete (optional if task_id provided)",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolUpdateTask,
				Description: "Update a task's title and/or description",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "ID of the task to update",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "New title (optional)",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "New description (optional)",
						},
					},
					Required: []string{"task_id"},
				},
			},
		},
	}
}
