package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wasend/internal/infra/config"
	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/utils/media"
)

// echoTransport authenticates and acknowledges everything immediately.
type echoTransport struct {
	mu      sync.Mutex
	handler session.Handler
	n       int
	texts   []string
}

func (e *echoTransport) SetHandler(h session.Handler) { e.handler = h }

func (e *echoTransport) Connect(ctx context.Context) error { return nil }

func (e *echoTransport) Authenticate(ctx context.Context, creds session.Credentials, passive bool) error {
	go e.handler.OnAuthenticated()
	return nil
}

func (e *echoTransport) NewMessageID() session.MessageID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.n++
	return session.MessageID(fmt.Sprintf("ID%d", e.n))
}

func (e *echoTransport) SendText(ctx context.Context, id session.MessageID, recipient, text string) error {
	e.mu.Lock()
	e.texts = append(e.texts, recipient+":"+text)
	e.mu.Unlock()
	go e.handler.OnAck(id)
	return nil
}

func (e *echoTransport) RequestUploadSlot(ctx context.Context, t media.Type, path string) (*session.UploadSlot, error) {
	return &session.UploadSlot{URL: "https://mmg.example/dup", Duplicate: true, Type: t, Path: path}, nil
}

func (e *echoTransport) Upload(ctx context.Context, slot *session.UploadSlot, progress session.ProgressFunc) (string, error) {
	return slot.URL, nil
}

func (e *echoTransport) SendMediaReference(ctx context.Context, id session.MessageID, recipient string, ref session.MediaReference) error {
	go e.handler.OnAck(id)
	return nil
}

func (e *echoTransport) Disconnect() {}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.StorePath = t.TempDir()
	cfg.Timeout = 5 * time.Second

	a, err := NewWithLogger(cfg, waLog.Noop)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSendWithoutPairedDevice(t *testing.T) {
	a := newTestApp(t)

	_, err := a.SendMessage(context.Background(), "31600000000", "hi")
	assert.ErrorIs(t, err, session.ErrAuthentication)
	assert.ErrorIs(t, err, store.ErrNoDevice)
}

func TestSendMessageThroughSession(t *testing.T) {
	a := newTestApp(t)
	tr := &echoTransport{}
	a.newTransport = func(ctx context.Context) (session.Transport, error) { return tr, nil }

	ack, err := a.SendMessage(context.Background(), "31600000000", "hello")
	require.NoError(t, err)
	assert.Equal(t, session.MessageID("ID1"), ack.MessageID)
	assert.Equal(t, session.KindText, ack.Kind)
	assert.Equal(t, []string{"31600000000:hello"}, tr.texts)
}

func TestSendMediaUnsupportedSkipsTransport(t *testing.T) {
	a := newTestApp(t)
	called := false
	a.newTransport = func(ctx context.Context) (session.Transport, error) {
		called = true
		return &echoTransport{}, nil
	}

	_, err := a.SendMedia(context.Background(), "31600000000", filepath.Join(t.TempDir(), "notes.pdf"))
	assert.ErrorIs(t, err, session.ErrUnsupportedMedia)
	assert.False(t, called)
}

func TestSendMediaThroughSession(t *testing.T) {
	a := newTestApp(t)
	a.newTransport = func(ctx context.Context) (session.Transport, error) { return &echoTransport{}, nil }

	ack, err := a.SendMedia(context.Background(), "31600000000", "holiday.JPG")
	require.NoError(t, err)
	assert.Equal(t, session.KindImage, ack.Kind)
}

func TestHistory(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.MessageStore.Put(&store.Message{
		ID:        "ABC",
		Recipient: "31600000000@s.whatsapp.net",
		Kind:      string(session.KindText),
		Text:      "hello",
	}))

	msgs, err := a.History("31600000000", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	_, err = a.History("", 10)
	assert.Error(t, err)
}

func TestDeviceLoadFailureIsTransportError(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Store.Close())

	_, err := a.SendMessage(context.Background(), "31600000000", "hi")
	assert.ErrorIs(t, err, session.ErrTransport)
	assert.NotErrorIs(t, err, session.ErrAuthentication)
}
