// Package tools implements the task mutation tools exposed to the agent.
// Every operation is scoped to one creator id, wrapped in a retry policy
// for transient store failures, and reports its outcome as a human-readable
// observation string for the model rather than a structured error.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/taskpilot/store"
)

// TaskTools executes task mutations against the store.
type TaskTools struct {
	store *store.Store
}

func NewTaskTools(s *store.Store) *TaskTools {
	return &TaskTools{store: s}
}

// CreateTask adds a pending task for the user.
func (t *TaskTools) CreateTask(ctx context.Context, userID int32, title, description string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Task title cannot be empty.", nil
	}
	if len(title) > 500 {
		return "Task title must be at most 500 characters.", nil
	}
	if len(description) > 5000 {
		return "Task description must be at most 5000 characters.", nil
	}

	var created *store.Task
	err := withRetry(ctx, "create_task", func(ctx context.Context) error {
		task, err := t.store.CreateTask(ctx, &store.Task{
			CreatorID:   userID,
			Title:       title,
			Description: description,
		})
		if err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully created task: %s", created.Title), nil
}

// ListTasks returns a numbered listing of the user's tasks, filtered by
// status ("all", "pending" or "completed").
func (t *TaskTools) ListTasks(ctx context.Context, userID int32, status string) (string, error) {
	if status == "" {
		status = "all"
	}

	find := &store.FindTask{CreatorID: &userID}
	switch status {
	case "all":
	case "pending":
		s := store.TaskStatusPending
		find.Status = &s
	case "completed":
		s := store.TaskStatusCompleted
		find.Status = &s
	default:
		return fmt.Sprintf("Unknown status filter '%s'. Use all, pending or completed.", status), nil
	}

	var tasks []*store.Task
	err := withRetry(ctx, "list_tasks", func(ctx context.Context) error {
		list, err := t.store.ListTasks(ctx, find)
		if err != nil {
			return err
		}
		tasks = list
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(tasks) == 0 {
		switch status {
		case "pending":
			return "You don't have any pending tasks.", nil
		case "completed":
			return "You don't have any completed tasks.", nil
		default:
			return "You don't have any tasks yet.", nil
		}
	}

	statusLabel := ""
	if status != "all" {
		statusLabel = status + " "
	}
	plural := "s"
	if len(tasks) == 1 {
		plural = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d %stask%s:\n", len(tasks), statusLabel, plural)
	for i, task := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (ID: %d)", i+1, task.Title, task.ID)
	}
	return b.String(), nil
}

// CompleteTask marks a task completed, resolved by id or by case-insensitive
// title substring. Completing an already-completed task is reported
// explicitly and performs no further mutation.
func (t *TaskTools) CompleteTask(ctx context.Context, userID int32, taskID *int32, title *string) (string, error) {
	task, observation, err := t.resolveTask(ctx, "complete", userID, taskID, title)
	if err != nil {
		return "", err
	}
	if observation != "" {
		return observation, nil
	}

	if task.Status == store.TaskStatusCompleted {
		return fmt.Sprintf("Task '%s' is already completed.", task.Title), nil
	}

	completed := store.TaskStatusCompleted
	var updated *store.Task
	err = withRetry(ctx, "complete_task", func(ctx context.Context) error {
		u, err := t.store.UpdateTask(ctx, &store.UpdateTask{
			ID:        task.ID,
			CreatorID: userID,
			Status:    &completed,
		})
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Sprintf("Task with ID %d not found.", task.ID), nil
		}
		return "", err
	}
	return fmt.Sprintf("Successfully marked task '%s' as completed.", updated.Title), nil
}

// DeleteTask removes a task permanently, resolved by id or title.
func (t *TaskTools) DeleteTask(ctx context.Context, userID int32, taskID *int32, title *string) (string, error) {
	task, observation, err := t.resolveTask(ctx, "delete", userID, taskID, title)
	if err != nil {
		return "", err
	}
	if observation != "" {
		return observation, nil
	}

	err = withRetry(ctx, "delete_task", func(ctx context.Context) error {
		return t.store.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: userID})
	})
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Sprintf("Task with ID %d not found.", task.ID), nil
		}
		return "", err
	}
	return fmt.Sprintf("Successfully deleted task with ID %d", task.ID), nil
}

// UpdateTask overwrites the supplied fields of a task; absent fields are
// left untouched.
func (t *TaskTools) UpdateTask(ctx context.Context, userID int32, taskID int32, title, description *string) (string, error) {
	update := &store.UpdateTask{ID: taskID, CreatorID: userID}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return "Task title cannot be empty.", nil
		}
		if len(trimmed) > 500 {
			return "Task title must be at most 500 characters.", nil
		}
		update.Title = &trimmed
	}
	if description != nil {
		if len(*description) > 5000 {
			return "Task description must be at most 5000 characters.", nil
		}
		update.Description = description
	}
	if update.Title == nil && update.Description == nil {
		return "Please provide a new title or description to update.", nil
	}

	var updated *store.Task
	err := withRetry(ctx, "update_task", func(ctx context.Context) error {
		u, err := t.store.UpdateTask(ctx, update)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Sprintf("Task with ID %d not found.", taskID), nil
		}
		return "", err
	}
	return fmt.Sprintf("Successfully updated task '%s'", updated.Title), nil
}

// resolveTask finds exactly one task by id or by title substring. A non-empty
// observation means resolution failed in a way the model should be told about
// (not found, ambiguous, or missing arguments); no mutation has happened.
func (t *TaskTools) resolveTask(ctx context.Context, verb string, userID int32, taskID *int32, title *string) (*store.Task, string, error) {
	if taskID != nil {
		var task *store.Task
		err := withRetry(ctx, "get_task", func(ctx context.Context) error {
			found, err := t.store.GetTask(ctx, &store.FindTask{ID: taskID, CreatorID: &userID})
			if err != nil {
				return err
			}
			task = found
			return nil
		})
		if err != nil {
			return nil, "", err
		}
		if task == nil {
			return nil, fmt.Sprintf("Task with ID %d not found.", *taskID), nil
		}
		return task, "", nil
	}

	if title != nil && strings.TrimSpace(*title) != "" {
		var tasks []*store.Task
		err := withRetry(ctx, "find_task_by_title", func(ctx context.Context) error {
			list, err := t.store.ListTasks(ctx, &store.FindTask{CreatorID: &userID, TitleContains: title})
			if err != nil {
				return err
			}
			tasks = list
			return nil
		})
		if err != nil {
			return nil, "", err
		}
		if len(tasks) == 0 {
			return nil, fmt.Sprintf("I couldn't find a task with the title '%s'.", *title), nil
		}
		if len(tasks) > 1 {
			candidates := make([]string, 0, len(tasks))
			for _, task := range tasks {
				candidates = append(candidates, fmt.Sprintf("ID %d: %s", task.ID, task.Title))
			}
			return nil, fmt.Sprintf("Multiple tasks found: %s. Please provide the specific ID to %s.",
				strings.Join(candidates, ", "), verb), nil
		}
		return tasks[0], "", nil
	}

	return nil, fmt.Sprintf("Please provide either a task_id or title to %s.", verb), nil
}
