package whatsapp

import (
	"fmt"

	"go.mau.fi/whatsmeow/types/events"

	"wasend/internal/session"
)

// handleEvent maps whatsmeow connection events onto the session handler.
func (t *Transport) handleEvent(evt interface{}) {
	if err := t.eventError(evt); err != nil {
		t.fail(err)
	}
}

// eventError returns the session-level error for evt, or nil when evt does
// not end the session.
func (t *Transport) eventError(evt interface{}) error {
	switch e := evt.(type) {
	case *events.Connected:
		t.log.Debugf("Connected")
		t.connOnce.Do(func() { close(t.connected) })

	// Login rejected
	case *events.LoggedOut:
		return fmt.Errorf("%w: logged out (%s)", session.ErrAuthentication, e.Reason)
	case *events.ConnectFailure:
		return fmt.Errorf("%w: connect failure %s: %s", session.ErrAuthentication, e.Reason, e.Message)
	case *events.TemporaryBan:
		return fmt.Errorf("%w: %s", session.ErrAuthentication, e)
	case *events.ClientOutdated:
		return fmt.Errorf("%w: client outdated", session.ErrAuthentication)

	// Connection lost
	case *events.StreamReplaced:
		return fmt.Errorf("%w: stream replaced by another client", session.ErrTransport)
	case *events.StreamError:
		return fmt.Errorf("%w: stream error %s", session.ErrTransport, e.Code)
	case *events.Disconnected:
		if t.isClosing() {
			return nil
		}
		return fmt.Errorf("%w: disconnected", session.ErrTransport)

	case *events.KeepAliveTimeout:
		t.log.Warnf("Keep alive timeout, last success: %s", e.LastSuccess)
	}
	return nil
}
