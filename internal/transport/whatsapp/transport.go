// Package whatsapp implements session.Transport on top of whatsmeow.
//
// whatsmeow opens the socket and logs in as a single step, acknowledges a
// message by returning from SendMessage, and has no notion of upload slots.
// The adapter bridges those differences:
//
//   - Connect starts the whatsmeow connection; events.Connected is latched
//     and reported as authentication once Authenticate has checked the login.
//   - Sends run on their own goroutine; a successful SendMessage is the ack.
//   - Upload slots come from a local cache of previous uploads keyed by the
//     plaintext SHA-256. A hit is reported as a duplicate.
package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/utils/jid"
)

// Options tunes the adapter.
type Options struct {
	// UploadTTL is how long a cached upload is offered as a duplicate.
	// Zero disables duplicate detection.
	UploadTTL time.Duration
}

// Transport adapts a whatsmeow.Client to session.Transport.
type Transport struct {
	client   *whatsmeow.Client
	uploads  *store.UploadStore
	messages *store.MessageStore
	opts     Options
	log      waLog.Logger

	mu        sync.Mutex
	handler   session.Handler
	handlerID uint32
	closing   bool
	sent      map[string]*store.Upload

	connected chan struct{}
	connOnce  sync.Once

	// ctx ends when the transport is disconnected.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ session.Transport = (*Transport)(nil)

// New creates a Transport for one session. uploads and messages may be nil.
func New(client *whatsmeow.Client, uploads *store.UploadStore, messages *store.MessageStore, opts Options, log waLog.Logger) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		ctx:       ctx,
		cancel:    cancel,
		client:    client,
		uploads:   uploads,
		messages:  messages,
		opts:      opts,
		log:       log.Sub("Transport"),
		sent:      make(map[string]*store.Upload),
		connected: make(chan struct{}),
	}
}

// SetHandler implements session.Transport.
func (t *Transport) SetHandler(h session.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
	if t.handlerID == 0 {
		t.handlerID = t.client.AddEventHandler(t.handleEvent)
	}
}

func (t *Transport) getHandler() session.Handler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler
}

// Connect implements session.Transport.
func (t *Transport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.client.Store.ID == nil {
		return fmt.Errorf("%w: device is not paired", session.ErrAuthentication)
	}
	t.log.Debugf("Connecting as %s", t.client.Store.ID)
	return t.client.Connect()
}

// Authenticate implements session.Transport.
func (t *Transport) Authenticate(ctx context.Context, creds session.Credentials, passive bool) error {
	own := t.client.Store.ID
	if own == nil {
		return fmt.Errorf("device is not paired")
	}
	if creds.Login != "" && own.User != creds.Login {
		return fmt.Errorf("device belongs to %s, not %s", own.User, creds.Login)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		select {
		case <-t.connected:
		case <-ctx.Done():
			return
		case <-t.ctx.Done():
			return
		}

		if passive {
			if err := t.client.SetPassive(ctx, true); err != nil {
				t.fail(fmt.Errorf("%w: set passive: %w", session.ErrAuthentication, err))
				return
			}
		}
		if h := t.getHandler(); h != nil {
			h.OnAuthenticated()
		}
	}()
	return nil
}

// NewMessageID implements session.Transport.
func (t *Transport) NewMessageID() session.MessageID {
	return session.MessageID(t.client.GenerateMessageID())
}

// SendText implements session.Transport.
func (t *Transport) SendText(ctx context.Context, id session.MessageID, recipient, text string) error {
	to, err := jid.Recipient(recipient)
	if err != nil {
		return err
	}

	t.record(&store.Message{
		ID:        string(id),
		Recipient: to.String(),
		Kind:      string(session.KindText),
		Text:      text,
	})

	msg := &waE2E.Message{
		Conversation: proto.String(text),
	}
	t.send(ctx, id, to, msg)
	return nil
}

// SendMediaReference implements session.Transport.
func (t *Transport) SendMediaReference(ctx context.Context, id session.MessageID, recipient string, ref session.MediaReference) error {
	to, err := jid.Recipient(recipient)
	if err != nil {
		return err
	}

	up, err := t.lookup(ref.URL)
	if err != nil {
		return err
	}
	if ref.IP != "" {
		t.log.Debugf("Ignoring media host hint %s", ref.IP)
	}

	msg, err := BuildMediaMessage(up, ref)
	if err != nil {
		return err
	}

	t.record(&store.Message{
		ID:        string(id),
		Recipient: to.String(),
		Kind:      string(ref.Type),
		FilePath:  ref.Path,
		MediaURL:  up.URL,
	})
	t.send(ctx, id, to, msg)
	return nil
}

// send delivers msg on its own goroutine; whatsmeow returns from SendMessage
// once the server has acknowledged the message.
func (t *Transport) send(ctx context.Context, id session.MessageID, to types.JID, msg *waE2E.Message) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(t.ctx, cancel)
		defer stop()

		resp, err := t.client.SendMessage(ctx, to, msg, whatsmeow.SendRequestExtra{ID: types.MessageID(id)})
		if err != nil {
			t.fail(fmt.Errorf("%w: send %s to %s: %w", session.ErrTransport, id, to, err))
			return
		}

		if t.messages != nil {
			if err := t.messages.MarkAcked(string(id), resp.Timestamp); err != nil {
				t.log.Warnf("Failed to mark %s acked: %v", id, err)
			}
		}
		if h := t.getHandler(); h != nil {
			h.OnAck(id)
		}
	}()
}

func (t *Transport) record(m *store.Message) {
	if t.messages == nil {
		return
	}
	if err := t.messages.Put(m); err != nil {
		t.log.Warnf("Failed to save sent message %s: %v", m.ID, err)
	}
}

// Disconnect implements session.Transport.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.closing = true
	id := t.handlerID
	t.mu.Unlock()

	t.cancel()
	t.client.Disconnect()
	if id != 0 {
		t.client.RemoveEventHandler(id)
	}
	t.wg.Wait()
}

func (t *Transport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closing
}

func (t *Transport) fail(err error) {
	if t.isClosing() {
		t.log.Debugf("Ignoring error during shutdown: %v", err)
		return
	}
	if h := t.getHandler(); h != nil {
		h.OnError(err)
	}
}
