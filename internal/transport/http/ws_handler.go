package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/proto"
)

// maxUploadBytes caps a single file upload at 16 MiB of decoded payload.
const maxUploadBytes = 16 << 20

// WSHandler upgrades HTTP connections and bridges them to the chat
// session layer.
type WSHandler struct {
	session *chat.Session
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(session *chat.Session, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{session: session, log: logger}
}

// Handle runs the connection lifecycle: handshake, event loops, cleanup.
// GET /ws (bearer token in ?token= or the Authorization header)
func (h *WSHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// Handshake: a bad credential closes the socket before any join
	// state becomes visible to other members.
	client, err := h.session.Connect(ctx, bearerToken(c))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake rejected")
		status := websocket.StatusPolicyViolation
		conn.Close(status, err.Error())
		return
	}
	// Guaranteed cleanup, also on abnormal termination.
	defer h.session.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("user_id", client.UserID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes inbound events and dispatches them to the session.
// Each event completes before the next one is read, so a connection's
// own persist-then-broadcast pairs never interleave.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *chat.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if err := h.dispatch(ctx, client, inbound); err != nil {
			// Per-event failures go back to the originating connection
			// only; the user stays connected and in presence.
			if writeErr := wsjson.Write(ctx, conn, errorOutbound(inbound.Type, err)); writeErr != nil {
				return writeErr
			}
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, client *chat.Client, inbound proto.Inbound) error {
	switch inbound.Type {
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chatBadRequest("malformed sendMessage payload")
		}
		_, err := h.session.SendText(ctx, client, data.Message)
		return err

	case proto.InboundTypeUploadFile:
		var data proto.UploadFileData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chatBadRequest("malformed uploadFile payload")
		}
		payload, err := base64.StdEncoding.DecodeString(data.File)
		if err != nil {
			return chatBadRequest("file payload must be base64")
		}
		if len(payload) > maxUploadBytes {
			return chatBadRequest("file too large")
		}
		_, err = h.session.UploadFile(ctx, client, payload, data.FileName, data.FileType)
		return err

	case proto.InboundTypeDeleteMessage:
		var data proto.DeleteMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chatBadRequest("malformed deleteMessage payload")
		}
		return h.session.DeleteMessage(ctx, client, data.MessageID)

	default:
		return chatBadRequest("unknown event type")
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *chat.Client) error {
	for {
		select {
		case event := <-client.Events:
			if event == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Int64("user_id", client.UserID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			// Replaced by a newer connection of the same user.
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func chatBadRequest(msg string) error {
	return &chat.Error{Code: chat.ErrCodeBadRequest, Message: msg}
}

// bearerToken pulls the credential from the query string or the
// Authorization header.
func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
