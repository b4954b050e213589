package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/server/auth"
	apperrors "github.com/hrygo/taskpilot/server/internal/errors"
	"github.com/hrygo/taskpilot/store"
)

const (
	maxTaskTitleLength       = 500
	maxTaskDescriptionLength = 5000
)

type TaskPayload struct {
	ID          int32  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedTs   int64  `json:"created_ts"`
	UpdatedTs   int64  `json:"updated_ts"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func taskPayload(task *store.Task) TaskPayload {
	return TaskPayload{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		CreatedTs:   task.CreatedTs,
		UpdatedTs:   task.UpdatedTs,
	}
}

// CreateTask handles POST /api/v1/tasks.
func (s *APIV1Service) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	request := &CreateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return errorJSON(c, apperrors.InvalidArgument("malformed request body"))
	}
	title := strings.TrimSpace(request.Title)
	if title == "" {
		return errorJSON(c, apperrors.InvalidArgument("title must not be empty"))
	}
	if len(title) > maxTaskTitleLength {
		return errorJSON(c, apperrors.InvalidArgument("title must be at most 500 characters"))
	}
	if len(request.Description) > maxTaskDescriptionLength {
		return errorJSON(c, apperrors.InvalidArgument("description must be at most 5000 characters"))
	}

	task, err := s.Store.CreateTask(ctx, &store.Task{
		CreatorID:   userID,
		Title:       title,
		Description: request.Description,
	})
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to create task", err))
	}
	return c.JSON(http.StatusOK, taskPayload(task))
}

// ListTasks handles GET /api/v1/tasks with an optional status filter.
func (s *APIV1Service) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	find := &store.FindTask{CreatorID: &userID}
	switch status := c.QueryParam("status"); status {
	case "", "all":
	case "pending":
		pending := store.TaskStatusPending
		find.Status = &pending
	case "completed":
		completed := store.TaskStatusCompleted
		find.Status = &completed
	default:
		return errorJSON(c, apperrors.InvalidArgument("status must be all, pending or completed"))
	}

	tasks, err := s.Store.ListTasks(ctx, find)
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to list tasks", err))
	}

	payload := make([]TaskPayload, 0, len(tasks))
	for _, task := range tasks {
		payload = append(payload, taskPayload(task))
	}
	return c.JSON(http.StatusOK, payload)
}

// GetTask handles GET /api/v1/tasks/:id.
func (s *APIV1Service) GetTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	taskID, err := pathID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	task, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to load task", err))
	}
	if task == nil {
		return errorJSON(c, apperrors.NotFound("task not found"))
	}
	return c.JSON(http.StatusOK, taskPayload(task))
}

// CompleteTask handles POST /api/v1/tasks/:id/complete. Completing an
// already-completed task is a no-op.
func (s *APIV1Service) CompleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	taskID, err := pathID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	existing, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to load task", err))
	}
	if existing == nil {
		return errorJSON(c, apperrors.NotFound("task not found"))
	}
	if existing.Status == store.TaskStatusCompleted {
		return c.JSON(http.StatusOK, taskPayload(existing))
	}

	completed := store.TaskStatusCompleted
	task, err := s.Store.UpdateTask(ctx, &store.UpdateTask{
		ID:        taskID,
		CreatorID: userID,
		Status:    &completed,
	})
	if err != nil {
		if err == store.ErrNotFound {
			return errorJSON(c, apperrors.NotFound("task not found"))
		}
		return errorJSON(c, apperrors.Internal("failed to complete task", err))
	}
	return c.JSON(http.StatusOK, taskPayload(task))
}

// UpdateTask handles PATCH /api/v1/tasks/:id. Status can only move from
// pending to completed; reverting is rejected.
func (s *APIV1Service) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	taskID, err := pathID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	request := &UpdateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return errorJSON(c, apperrors.InvalidArgument("malformed request body"))
	}

	update := &store.UpdateTask{ID: taskID, CreatorID: userID}
	if request.Title != nil {
		title := strings.TrimSpace(*request.Title)
		if title == "" {
			return errorJSON(c, apperrors.InvalidArgument("title must not be empty"))
		}
		if len(title) > maxTaskTitleLength {
			return errorJSON(c, apperrors.InvalidArgument("title must be at most 500 characters"))
		}
		update.Title = &title
	}
	if request.Description != nil {
		if len(*request.Description) > maxTaskDescriptionLength {
			return errorJSON(c, apperrors.InvalidArgument("description must be at most 5000 characters"))
		}
		update.Description = request.Description
	}
	if request.Status != nil {
		switch *request.Status {
		case string(store.TaskStatusCompleted):
			completed := store.TaskStatusCompleted
			update.Status = &completed
		case string(store.TaskStatusPending):
			existing, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
			if err != nil {
				return errorJSON(c, apperrors.Internal("failed to load task", err))
			}
			if existing == nil {
				return errorJSON(c, apperrors.NotFound("task not found"))
			}
			if existing.Status == store.TaskStatusCompleted {
				return errorJSON(c, apperrors.InvalidArgument("a completed task cannot be reverted to pending"))
			}
			pending := store.TaskStatusPending
			update.Status = &pending
		default:
			return errorJSON(c, apperrors.InvalidArgument("status must be pending or completed"))
		}
	}
	if update.Title == nil && update.Description == nil && update.Status == nil {
		return errorJSON(c, apperrors.InvalidArgument("nothing to update"))
	}

	task, err := s.Store.UpdateTask(ctx, update)
	if err != nil {
		if err == store.ErrNotFound {
			return errorJSON(c, apperrors.NotFound("task not found"))
		}
		return errorJSON(c, apperrors.Internal("failed to update task", err))
	}
	return c.JSON(http.StatusOK, taskPayload(task))
}

// DeleteTask handles DELETE /api/v1/tasks/:id.
func (s *APIV1Service) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	taskID, err := pathID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	if err := s.Store.DeleteTask(ctx, &store.DeleteTask{ID: taskID, CreatorID: userID}); err != nil {
		if err == store.ErrNotFound {
			return errorJSON(c, apperrors.NotFound("task not found"))
		}
		return errorJSON(c, apperrors.Internal("failed to delete task", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
