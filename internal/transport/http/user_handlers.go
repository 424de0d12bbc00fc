package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/blob"
	"github.com/gatechat/gatechat-server/internal/store"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// avatarFolder is the object-store folder avatar images land in.
const avatarFolder = "avatars"

// UserHandlers provides HTTP handlers for profile endpoints.
type UserHandlers struct {
	store store.UserStore
	relay blob.Relay
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, relay blob.Relay, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		relay: relay,
		log:   logger,
	}
}

// UserResponse represents a user profile in API responses.
type UserResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	GroupMember bool   `json:"groupMember"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		GroupMember: u.GroupMember,
	}
}

// Me returns the authenticated user's profile.
// GET /api/users/me
func (h *UserHandlers) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// UploadAvatar stores a new profile picture and updates the user record.
// POST /api/users/me/avatar (multipart field "avatar")
func (h *UserHandlers) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "avatar file is required"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "avatar too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read avatar"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read avatar"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.relay.Store(c.Request.Context(), data, fileHeader.Filename, contentType, avatarFolder)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("avatar upload failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "avatar upload failed"})
		return
	}

	if err := h.store.SetAvatarURL(c.Request.Context(), userID, url); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to save avatar url")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}
