// Package proto defines the JSON envelopes exchanged over a chat
// connection.
package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSendMessage   = "sendMessage"
	InboundTypeUploadFile    = "uploadFile"
	InboundTypeDeleteMessage = "deleteMessage"

	OutboundTypeOnlineUsers    = "onlineUsers"
	OutboundTypeUserJoined     = "userJoined"
	OutboundTypeUserLeft       = "userLeft"
	OutboundTypeNewMessage     = "newMessage"
	OutboundTypeMessageDeleted = "messageDeleted"

	// Per-request error events, delivered only to the originating
	// connection.
	OutboundTypeMessageError = "messageError"
	OutboundTypeUploadError  = "uploadError"
	OutboundTypeDeleteError  = "deleteError"
)

// SendMessageData is a text message from the client.
type SendMessageData struct {
	Message string `json:"message"`
}

// UploadFileData carries a base64-encoded payload plus its metadata.
type UploadFileData struct {
	File     string `json:"file"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// DeleteMessageData asks to remove a message by ID.
type DeleteMessageData struct {
	MessageID int64 `json:"messageId"`
}

// Outbound is the envelope for events pushed to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// OnlineUser is one entry of the presence snapshot.
type OnlineUser struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// UserLeftData names the user who disconnected.
type UserLeftData struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// FileData is the attachment metadata of a file message.
type FileData struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

// NewMessageData is a persisted message broadcast to the room. For file
// messages FileData is set and Message holds the file name.
type NewMessageData struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Message     string    `json:"message"`
	MessageType string    `json:"messageType"`
	FileData    *FileData `json:"fileData,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageDeletedData names the removed message.
type MessageDeletedData struct {
	MessageID int64 `json:"messageId"`
}

// ErrorData carries a human-readable error message.
type ErrorData struct {
	Message string `json:"message"`
}
