package session

import (
	"context"
	"time"

	"wasend/internal/utils/media"
)

// MessageID identifies an outgoing message for acknowledgement purposes.
type MessageID string

// Kind is the payload kind of an outgoing message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = Kind(media.TypeImage)
	KindAudio Kind = Kind(media.TypeAudio)
	KindVideo Kind = Kind(media.TypeVideo)
)

// Credentials identifies the account a session logs in as.
// The transport owns the secret material.
type Credentials struct {
	Login string
}

// OutgoingMessage is a message requested by the caller.
type OutgoingMessage struct {
	ID        MessageID
	Recipient string
	Text      string
	Path      string
	Kind      Kind
}

// IsMedia returns true if the payload is a file reference.
func (m *OutgoingMessage) IsMedia() bool {
	return m.Kind != KindText
}

// UploadSlot is the transport's permission to upload a file.
type UploadSlot struct {
	URL          string
	ResumeOffset int64
	Duplicate    bool
	IP           string

	Type media.Type
	Path string
}

// MediaReference is what a downloadable-media message points at.
type MediaReference struct {
	URL  string
	IP   string
	Type media.Type
	Path string
}

// Ack is returned when the session's message was acknowledged.
type Ack struct {
	SessionID string
	MessageID MessageID
	Recipient string
	Kind      Kind
	Elapsed   time.Duration
}

// ProgressFunc receives upload progress. It is advisory only.
type ProgressFunc func(sent, total int64)

// Config holds per-session settings.
type Config struct {
	Credentials Credentials

	// Passive asks the server not to push unrelated state after login.
	Passive bool

	// Timeout bounds a whole invocation. Zero means no limit.
	Timeout time.Duration
}

// Handler receives asynchronous transport events.
type Handler interface {
	OnAuthenticated()
	OnAck(id MessageID)
	OnError(err error)
}

// Transport is the boundary to the protocol library.
//
// Handler callbacks must be delivered from the transport's own goroutines,
// never synchronously from inside a Transport method.
type Transport interface {
	SetHandler(h Handler)
	Connect(ctx context.Context) error
	// Authenticate starts login. The outcome is reported through the handler.
	Authenticate(ctx context.Context, creds Credentials, passive bool) error
	NewMessageID() MessageID
	SendText(ctx context.Context, id MessageID, recipient, text string) error
	RequestUploadSlot(ctx context.Context, t media.Type, path string) (*UploadSlot, error)
	// Upload sends the file starting at slot.ResumeOffset and returns its URL.
	Upload(ctx context.Context, slot *UploadSlot, progress ProgressFunc) (string, error)
	SendMediaReference(ctx context.Context, id MessageID, recipient string, ref MediaReference) error
	Disconnect()
}
