package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/plugin/ai/agent"
	"github.com/hrygo/taskpilot/server/auth"
	apperrors "github.com/hrygo/taskpilot/server/internal/errors"
	"github.com/hrygo/taskpilot/server/internal/observability"
	"github.com/hrygo/taskpilot/store"
)

const (
	maxMessageLength = 2000
	// historyWindow is the sliding window of most recent messages loaded per
	// exchange, bounding prompt size regardless of conversation length.
	historyWindow = 50
)

type ChatRequest struct {
	ConversationID *int32 `json:"conversation_id"`
	Message        string `json:"message"`
}

type ChatMessagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ConversationID int32                  `json:"conversation_id"`
	Message        ChatMessagePayload     `json:"message"`
	ToolCalls      []agent.ToolInvocation `json:"tool_calls"`
	CreatedTs      int64                  `json:"created_ts"`
}

// Chat handles one conversational exchange. The protocol is two-phase: the
// user message is committed before the agent runs, so it survives any
// downstream failure; the assistant message and the conversation version
// advance commit together afterwards under optimistic locking.
func (s *APIV1Service) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	if s.agent == nil {
		return errorJSON(c, apperrors.Internal("chat is not configured", nil))
	}

	request := &ChatRequest{}
	if err := c.Bind(request); err != nil {
		return errorJSON(c, apperrors.InvalidArgument("malformed request body"))
	}
	if strings.TrimSpace(request.Message) == "" {
		return errorJSON(c, apperrors.InvalidArgument("message must not be empty"))
	}
	if utf8.RuneCountInString(request.Message) > maxMessageLength {
		return errorJSON(c, apperrors.InvalidArgument("message must be at most 2000 characters"))
	}

	if !s.rateLimiter.Allow(rateKey(userID)) {
		return errorJSON(c, apperrors.RateLimitExceeded("too many chat requests, slow down"))
	}

	logger := observability.NewRequestContext(slog.Default(), userID)
	ctx = observability.WithRequestContext(ctx, logger)

	response, err := s.runExchange(ctx, logger, userID, request)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) runExchange(ctx context.Context, logger *observability.RequestContext, userID int32, request *ChatRequest) (*ChatResponse, error) {
	conversation, err := s.resolveConversation(ctx, userID, request.ConversationID)
	if err != nil {
		return nil, err
	}
	logger.Info("exchange started",
		slog.Int(observability.LogFieldConversationID, int(conversation.ID)),
		slog.Int("message_len", len(request.Message)))

	history, err := s.loadHistory(ctx, conversation)
	if err != nil {
		return nil, err
	}

	// Phase one: the user message is durable from here on, no matter what
	// the model call does.
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		CreatorID:      userID,
		Role:           store.MessageRoleUser,
		Content:        request.Message,
	}); err != nil {
		return nil, apperrors.Internal("failed to persist user message", err)
	}

	result, err := s.runAgent(ctx, userID, request.Message, history)
	if err != nil {
		return nil, err
	}

	toolCallsJSON, err := json.Marshal(result.ToolCalls)
	if err != nil {
		return nil, apperrors.Internal("failed to encode tool calls", err)
	}

	// Phase two: assistant message and version advance in one commit.
	assistantMessage, err := s.Store.CompleteExchange(ctx, &store.Message{
		ConversationID: conversation.ID,
		CreatorID:      userID,
		Role:           store.MessageRoleAssistant,
		Content:        result.Content,
		ToolCalls:      string(toolCallsJSON),
	}, conversation.Version)
	if err != nil {
		if err == store.ErrVersionConflict {
			return nil, apperrors.Conflict("conversation was modified concurrently, retry the message")
		}
		return nil, apperrors.Internal("failed to persist assistant message", err)
	}

	logger.Info("exchange completed",
		slog.Int(observability.LogFieldConversationID, int(conversation.ID)),
		slog.Int("tool_calls", len(result.ToolCalls)),
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()))

	return &ChatResponse{
		ConversationID: conversation.ID,
		Message: ChatMessagePayload{
			Role:    string(store.MessageRoleAssistant),
			Content: result.Content,
		},
		ToolCalls: result.ToolCalls,
		CreatedTs: assistantMessage.CreatedTs,
	}, nil
}

// resolveConversation loads the caller's conversation or creates a new one at
// version 1 when no id is supplied. A missing id and a foreign-tenant id
// produce the same not-found signal.
func (s *APIV1Service) resolveConversation(ctx context.Context, userID int32, conversationID *int32) (*store.Conversation, error) {
	if conversationID == nil {
		conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{CreatorID: userID})
		if err != nil {
			return nil, apperrors.Internal("failed to create conversation", err)
		}
		return conversation, nil
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{
		ID:        conversationID,
		CreatorID: &userID,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	return conversation, nil
}

// loadHistory returns the sliding window of most recent messages, oldest
// first.
func (s *APIV1Service) loadHistory(ctx context.Context, conversation *store.Conversation) ([]*store.Message, error) {
	limit := historyWindow
	window, err := s.Store.ListMessages(ctx, &store.FindMessage{
		ConversationID:       &conversation.ID,
		CreatorID:            &conversation.CreatorID,
		Limit:                &limit,
		OrderByCreatedTsDesc: true,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to load history", err)
	}
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window, nil
}

// runAgent drives the tool-calling loop under the exchange deadline and a
// process-wide concurrency cap. A deadline expiry aborts phase two only; the
// phase-one user message is already committed.
func (s *APIV1Service) runAgent(ctx context.Context, userID int32, message string, history []*store.Message) (*agent.Result, error) {
	if err := s.chatSemaphore.Acquire(ctx, 1); err != nil {
		return nil, apperrors.Timeout("exchange deadline exceeded")
	}
	defer s.chatSemaphore.Release(1)

	agentCtx, cancel := context.WithTimeout(ctx, s.agentTimeout)
	defer cancel()

	result, err := s.agent.Run(agentCtx, userID, message, history)
	if err != nil {
		if agentCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Timeout("exchange deadline exceeded, your message was saved")
		}
		return nil, apperrors.Internal("agent execution failed", err)
	}
	return result, nil
}

func rateKey(userID int32) string {
	return "chat/" + strconv.Itoa(int(userID))
}
