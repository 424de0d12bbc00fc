// Package http exposes the REST and WebSocket surface of the chat
// server.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/auth"
	"github.com/gatechat/gatechat-server/internal/blob"
	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/config"
	"github.com/gatechat/gatechat-server/internal/payment"
	"github.com/gatechat/gatechat-server/internal/store"
)

// NewServer builds the HTTP server with all routes attached.
func NewServer(
	session *chat.Session,
	authService *auth.Service,
	st store.Store,
	relay blob.Relay,
	payments *payment.Verifier,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, logger)
	users := NewUserHandlers(st, relay, logger)
	payHandlers := NewPaymentHandlers(st, payments, logger)
	chatHandlers := NewChatHandlers(session, st, logger)
	ws := NewWSHandler(session, logger)

	router.GET("/health", healthHandler)
	router.GET("/ws", ws.Handle)

	public := router.Group("/api")
	{
		public.POST("/register", api.Register)
		public.POST("/login", api.Login)
	}

	authed := router.Group("/api")
	authed.Use(AuthMiddleware(authService, logger))
	{
		authed.GET("/users/me", users.Me)
		authed.POST("/users/me/avatar", users.UploadAvatar)
		authed.POST("/payments/verify", payHandlers.Verify)
		authed.GET("/chat/messages", chatHandlers.ListMessages)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
