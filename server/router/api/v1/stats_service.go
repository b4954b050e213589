package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/server/auth"
	apperrors "github.com/hrygo/taskpilot/server/internal/errors"
	"github.com/hrygo/taskpilot/server/stats"
)

type StatsPayload struct {
	TotalTasks           int64 `json:"total_tasks"`
	PendingTasks         int64 `json:"pending_tasks"`
	CompletedTasks       int64 `json:"completed_tasks"`
	TasksCreatedLastWeek int64 `json:"tasks_created_last_week"`
	TotalConversations   int64 `json:"total_conversations"`
	TotalMessages        int64 `json:"total_messages"`
}

// GetStats handles GET /api/v1/stats.
func (s *APIV1Service) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	userStats, err := stats.NewCollector(s.Store).Collect(ctx, userID)
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to collect stats", err))
	}

	return c.JSON(http.StatusOK, StatsPayload{
		TotalTasks:           userStats.TotalTasks,
		PendingTasks:         userStats.PendingTasks,
		CompletedTasks:       userStats.CompletedTasks,
		TasksCreatedLastWeek: userStats.TasksCreatedLastWeek,
		TotalConversations:   userStats.TotalConversations,
		TotalMessages:        userStats.TotalMessages,
	})
}
