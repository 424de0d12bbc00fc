package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/proto"
	"github.com/gatechat/gatechat-server/internal/store"
)

// ChatHandlers serves the message history for initial page loads.
type ChatHandlers struct {
	session *chat.Session
	users   store.UserStore
	log     *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(session *chat.Session, users store.UserStore, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		session: session,
		users:   users,
		log:     logger,
	}
}

// MessagesResponse wraps the message history page.
type MessagesResponse struct {
	Messages []proto.NewMessageData `json:"messages"`
}

// ListMessages returns the most recent messages, oldest first.
// GET /api/chat/messages
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	if !user.GroupMember {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a group member"})
		return
	}

	messages, err := h.session.History(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch messages"})
		return
	}

	out := make([]proto.NewMessageData, 0, len(messages))
	for _, msg := range messages {
		out = append(out, newMessageData(msg))
	}
	c.JSON(http.StatusOK, MessagesResponse{Messages: out})
}
