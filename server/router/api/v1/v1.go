package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/taskpilot/internal/profile"
	"github.com/hrygo/taskpilot/plugin/ai"
	"github.com/hrygo/taskpilot/plugin/ai/agent"
	"github.com/hrygo/taskpilot/plugin/ai/agent/tools"
	"github.com/hrygo/taskpilot/server/auth"
	apperrors "github.com/hrygo/taskpilot/server/internal/errors"
	"github.com/hrygo/taskpilot/server/middleware"
	"github.com/hrygo/taskpilot/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	agent        *agent.TaskAgent
	agentTimeout time.Duration

	// chatSemaphore caps concurrent agent runs so a burst of chat requests
	// cannot exhaust the model-provider connection budget.
	chatSemaphore *semaphore.Weighted
	rateLimiter   *middleware.RateLimiter
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	service := &APIV1Service{
		Secret:        secret,
		Profile:       profile,
		Store:         store,
		chatSemaphore: semaphore.NewWeighted(8),
		rateLimiter:   middleware.NewRateLimiter(time.Second, 5),
	}

	if profile.IsAIEnabled() {
		cfg := ai.NewConfigFromProfile(profile)
		provider, err := ai.NewProvider(cfg)
		if err != nil {
			slog.Warn("AI provider disabled", slog.String("error", err.Error()))
		} else {
			executor := agent.NewToolExecutor(tools.NewTaskTools(store))
			service.agent = agent.NewTaskAgent(provider.Client(), cfg, executor)
			service.agentTimeout = cfg.Timeout
		}
	}

	return service
}

// Register mounts all API v1 routes on the given Echo instance.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1", s.authMiddleware)

	g.POST("/chat", s.Chat)
	g.GET("/conversations", s.ListConversations)
	g.GET("/conversations/:id/messages", s.ListConversationMessages)

	g.GET("/stats", s.GetStats)

	g.POST("/tasks", s.CreateTask)
	g.GET("/tasks", s.ListTasks)
	g.GET("/tasks/:id", s.GetTask)
	g.POST("/tasks/:id/complete", s.CompleteTask)
	g.PATCH("/tasks/:id", s.UpdateTask)
	g.DELETE("/tasks/:id", s.DeleteTask)
}

// authMiddleware verifies the bearer token and stashes the user id on the
// request context. Every route under /api/v1 is tenant-scoped.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.Authenticate(c.Request().Header.Get("Authorization"), []byte(s.Secret))
		if err != nil {
			return errorJSON(c, apperrors.Unauthorized("authentication required"))
		}
		ctx := auth.ContextWithUserID(c.Request().Context(), userID)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

type errorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// errorJSON maps the error taxonomy onto HTTP status codes. Unclassified
// failures are logged and surfaced generically.
func errorJSON(c echo.Context, err error) error {
	code := apperrors.CodeOf(err, apperrors.ErrCodeInternal)

	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeConflict:
		status = http.StatusConflict
	case apperrors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		status = http.StatusServiceUnavailable
	}

	message := apperrors.MessageOf(err)
	if code == apperrors.ErrCodeInternal {
		slog.Error("request failed", slog.String("error", err.Error()))
		message = "internal server error"
	}
	return c.JSON(status, errorResponse{Code: code, Message: message})
}
