package v1

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/server/auth"
	apperrors "github.com/hrygo/taskpilot/server/internal/errors"
	"github.com/hrygo/taskpilot/store"
)

const conversationTitleLength = 40

type ConversationPayload struct {
	ID        int32  `json:"id"`
	Title     string `json:"title"`
	UpdatedTs int64  `json:"updated_ts"`
}

type HistoryMessagePayload struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

// ListConversations returns the caller's conversations, most recently
// updated first. The title is derived from the first message.
func (s *APIV1Service) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	conversations, err := s.Store.ListConversations(ctx, &store.FindConversation{CreatorID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to list conversations", err))
	}

	payload := make([]ConversationPayload, 0, len(conversations))
	for _, conversation := range conversations {
		title, err := s.conversationTitle(c, conversation)
		if err != nil {
			return errorJSON(c, apperrors.Internal("failed to derive conversation title", err))
		}
		payload = append(payload, ConversationPayload{
			ID:        conversation.ID,
			Title:     title,
			UpdatedTs: conversation.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, payload)
}

// ListConversationMessages returns a conversation's messages oldest first,
// tenant-filtered. An optional limit query parameter bounds the result.
func (s *APIV1Service) ListConversationMessages(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return errorJSON(c, apperrors.Unauthorized("authentication required"))
	}

	conversationID, err := pathID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{
		ID:        &conversationID,
		CreatorID: &userID,
	})
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to load conversation", err))
	}
	if conversation == nil {
		return errorJSON(c, apperrors.NotFound("conversation not found"))
	}

	find := &store.FindMessage{
		ConversationID: &conversationID,
		CreatorID:      &userID,
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return errorJSON(c, apperrors.InvalidArgument("limit must be a positive integer"))
		}
		// The most recent N, still presented oldest first.
		find.Limit = &limit
		find.OrderByCreatedTsDesc = true
	}

	messages, err := s.Store.ListMessages(ctx, find)
	if err != nil {
		return errorJSON(c, apperrors.Internal("failed to list messages", err))
	}
	if find.OrderByCreatedTsDesc {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	payload := make([]HistoryMessagePayload, 0, len(messages))
	for _, message := range messages {
		payload = append(payload, HistoryMessagePayload{
			Role:      string(message.Role),
			Content:   message.Content,
			CreatedTs: message.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, payload)
}

// conversationTitle derives the listing title from the first message: its
// first 40 characters, ellipsis-appended when truncated.
func (s *APIV1Service) conversationTitle(c echo.Context, conversation *store.Conversation) (string, error) {
	one := 1
	first, err := s.Store.ListMessages(c.Request().Context(), &store.FindMessage{
		ConversationID: &conversation.ID,
		CreatorID:      &conversation.CreatorID,
		Limit:          &one,
	})
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "New conversation", nil
	}

	content := first[0].Content
	if utf8.RuneCountInString(content) <= conversationTitleLength {
		return content, nil
	}
	runes := []rune(content)
	return string(runes[:conversationTitleLength]) + "...", nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int32, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, apperrors.InvalidArgument("invalid id")
	}
	return int32(id), nil
}
