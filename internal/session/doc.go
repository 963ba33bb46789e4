// Package session is the messaging-client session core.
//
// A Session performs exactly one pass of
//
//	Disconnected -> Connecting -> Authenticated -> Sending -> Closing -> Disconnected
//
// for a single outgoing message. The protocol itself lives behind the
// Transport interface; the session registers as its Handler, tracks the
// outgoing message ID in a Tracker and blocks the caller until the tracker
// drains, the transport reports an error, or the context ends.
//
// # Basic Usage
//
//	s := session.New(session.Config{Passive: true}, transport, log)
//	ack, err := s.SendText(ctx, "31612345678", "hello")
//
//	s = session.New(cfg, transport, log)
//	ack, err = s.SendMedia(ctx, "31612345678", "photo.jpg")
//	if errors.Is(err, session.ErrUnsupportedMedia) {
//		// nothing was sent, the transport was never contacted
//	}
package session
