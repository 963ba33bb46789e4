package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticated
	StateSending
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateSending:
		return "sending"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session runs one connect, authenticate, send, await-ack, disconnect pass.
// A Session is single-use.
type Session struct {
	id        string
	cfg       Config
	transport Transport
	tracker   *Tracker
	uploader  *Uploader
	log       waLog.Logger

	mu       sync.Mutex
	state    State
	used     bool
	onChange func(State)

	authed   chan struct{}
	authOnce sync.Once

	failed   chan struct{}
	failOnce sync.Once
	err      error
}

// New creates a Session on top of transport and registers itself as the
// transport's event handler.
func New(cfg Config, transport Transport, log waLog.Logger) *Session {
	id := uuid.NewString()
	tracker := NewTracker()
	s := &Session{
		id:        id,
		cfg:       cfg,
		transport: transport,
		tracker:   tracker,
		log:       log.Sub("Session/" + id[:8]),
		authed:    make(chan struct{}),
		failed:    make(chan struct{}),
	}
	s.uploader = NewUploader(transport, tracker, s.log)
	transport.SetHandler(s)
	return s
}

// ID returns the session's correlation ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of unacknowledged messages.
func (s *Session) Pending() int {
	return s.tracker.Remaining()
}

// OnStateChange registers fn to be called on every state transition.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SendText sends a text message and blocks until it is acknowledged.
func (s *Session) SendText(ctx context.Context, recipient, text string) (*Ack, error) {
	return s.run(ctx, &OutgoingMessage{
		Recipient: recipient,
		Text:      text,
		Kind:      KindText,
	})
}

// SendMedia sends the file at path and blocks until the media message is
// acknowledged.
func (s *Session) SendMedia(ctx context.Context, recipient, path string) (*Ack, error) {
	return s.run(ctx, &OutgoingMessage{
		Recipient: recipient,
		Path:      path,
	})
}

func (s *Session) run(ctx context.Context, msg *OutgoingMessage) (*Ack, error) {
	if !s.claim() {
		return nil, ErrSessionUsed
	}

	// Unsupported files never reach the transport.
	if msg.Kind == "" {
		mediaType, err := Classify(msg.Path)
		if err != nil {
			s.log.Errorf("Refusing %s: %v", msg.Path, err)
			return nil, err
		}
		msg.Kind = Kind(mediaType)
	}
	return s.execute(ctx, msg)
}

func (s *Session) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return false
	}
	s.used = true
	return true
}

func (s *Session) execute(ctx context.Context, msg *OutgoingMessage) (*Ack, error) {
	start := time.Now()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	s.setState(StateConnecting)
	defer s.close()

	if err := s.transport.Connect(ctx); err != nil {
		return nil, s.abort(classify(fmt.Errorf("connect: %w", err)))
	}
	if err := s.transport.Authenticate(ctx, s.cfg.Credentials, s.cfg.Passive); err != nil {
		return nil, s.abort(fmt.Errorf("%w: %w", ErrAuthentication, err))
	}

	if err := s.wait(ctx, s.authed); err != nil {
		return nil, s.abort(err)
	}
	s.setState(StateAuthenticated)
	s.log.Debugf("Authenticated as %q", s.cfg.Credentials.Login)

	s.setState(StateSending)
	id, err := s.dispatch(ctx, msg)
	if err != nil {
		return nil, s.abort(err)
	}
	msg.ID = id

	if err := s.wait(ctx, s.tracker.Done()); err != nil {
		return nil, s.abort(err)
	}

	ack := &Ack{
		SessionID: s.id,
		MessageID: msg.ID,
		Recipient: msg.Recipient,
		Kind:      msg.Kind,
		Elapsed:   time.Since(start),
	}
	s.log.Infof("Message %s to %s acknowledged", ack.MessageID, ack.Recipient)
	return ack, nil
}

func (s *Session) dispatch(ctx context.Context, msg *OutgoingMessage) (MessageID, error) {
	if msg.IsMedia() {
		return s.uploader.Send(ctx, msg.Recipient, msg.Path)
	}

	id := s.transport.NewMessageID()
	s.tracker.Register(id)
	if err := s.transport.SendText(ctx, id, msg.Recipient, msg.Text); err != nil {
		return id, classify(fmt.Errorf("send text: %w", err))
	}
	return id, nil
}

// wait blocks until ch closes, the transport fails or ctx ends.
func (s *Session) wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-s.failed:
		return s.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: timed out in state %s: %w", ErrTransport, s.State(), ctx.Err())
		}
		return fmt.Errorf("session interrupted: %w", ctx.Err())
	}
}

// abort records err as the session's failure (if none is recorded yet) and
// returns the recorded failure.
func (s *Session) abort(err error) error {
	s.fail(err)
	<-s.failed
	return s.err
}

func (s *Session) fail(err error) {
	s.failOnce.Do(func() {
		s.err = err
		close(s.failed)
	})
}

func (s *Session) close() {
	s.setState(StateClosing)
	s.transport.Disconnect()
	s.setState(StateDisconnected)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	fn := s.onChange
	s.mu.Unlock()

	if prev != state {
		s.log.Debugf("%s -> %s", prev, state)
	}
	if fn != nil {
		fn(state)
	}
}

// OnAuthenticated implements Handler.
func (s *Session) OnAuthenticated() {
	s.authOnce.Do(func() { close(s.authed) })
}

// OnAck implements Handler.
func (s *Session) OnAck(id MessageID) {
	remaining := s.tracker.Acknowledge(id)
	s.log.Debugf("Ack for %s, %d pending", id, remaining)
}

// OnError implements Handler.
func (s *Session) OnError(err error) {
	s.log.Errorf("Transport error: %v", err)
	s.fail(classify(err))
}
