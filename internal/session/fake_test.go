package session

import (
	"context"
	"fmt"
	"sync"

	"wasend/internal/utils/media"
)

// fakeTransport records calls and delivers callbacks from its own goroutines.
type fakeTransport struct {
	mu      sync.Mutex
	handler Handler
	calls   []string
	nextID  int

	connectErr error
	authErr    error
	authEvent  error // delivered through OnError instead of authenticating
	noAuth     bool  // never report authentication
	noAck      bool  // never acknowledge
	sendErr    error
	lateErr    error // delivered through OnError after a send

	slot      *UploadSlot
	slotErr   error
	uploadURL string
	uploadErr error
	progress  [][2]int64

	slotRequests []media.Type
	uploads      []*UploadSlot
	refs         []MediaReference
	texts        []string
	disconnects  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{uploadURL: "https://mmg.example/uploaded"}
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) SetHandler(h Handler) {
	f.handler = h
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.record("connect")
	return f.connectErr
}

func (f *fakeTransport) Authenticate(ctx context.Context, creds Credentials, passive bool) error {
	f.record(fmt.Sprintf("authenticate %s passive=%t", creds.Login, passive))
	if f.authErr != nil {
		return f.authErr
	}
	switch {
	case f.authEvent != nil:
		go f.handler.OnError(f.authEvent)
	case !f.noAuth:
		go f.handler.OnAuthenticated()
	}
	return nil
}

func (f *fakeTransport) NewMessageID() MessageID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return MessageID(fmt.Sprintf("MSG%03d", f.nextID))
}

func (f *fakeTransport) SendText(ctx context.Context, id MessageID, recipient, text string) error {
	f.record("send_text " + recipient)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return f.finishSend(id)
}

func (f *fakeTransport) finishSend(id MessageID) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.lateErr != nil {
		go f.handler.OnError(f.lateErr)
		return nil
	}
	if !f.noAck {
		go func() {
			// A stray ack for something never sent must not complete the session.
			f.handler.OnAck("UNKNOWN")
			f.handler.OnAck(id)
		}()
	}
	return nil
}

func (f *fakeTransport) RequestUploadSlot(ctx context.Context, t media.Type, path string) (*UploadSlot, error) {
	f.record("request_slot " + string(t))
	f.mu.Lock()
	f.slotRequests = append(f.slotRequests, t)
	f.mu.Unlock()
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	if f.slot != nil {
		slot := *f.slot
		slot.Type, slot.Path = t, path
		return &slot, nil
	}
	return &UploadSlot{URL: "https://mmg.example/slot", Type: t, Path: path}, nil
}

func (f *fakeTransport) Upload(ctx context.Context, slot *UploadSlot, progress ProgressFunc) (string, error) {
	f.record("upload")
	f.mu.Lock()
	f.uploads = append(f.uploads, slot)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	for _, p := range f.progress {
		progress(p[0], p[1])
	}
	return f.uploadURL, nil
}

func (f *fakeTransport) SendMediaReference(ctx context.Context, id MessageID, recipient string, ref MediaReference) error {
	f.record("send_media " + recipient)
	f.mu.Lock()
	f.refs = append(f.refs, ref)
	f.mu.Unlock()
	return f.finishSend(id)
}

func (f *fakeTransport) Disconnect() {
	f.record("disconnect")
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
}
