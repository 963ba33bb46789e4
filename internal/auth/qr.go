package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// ErrQRTimeout is returned when no code was scanned in time.
var ErrQRTimeout = errors.New("QR code timeout")

// QRHandler handles QR code display and pairing flow.
type QRHandler struct {
	out  io.Writer
	file string // also write each code as PNG here when set
	log  waLog.Logger
}

// NewQRHandler creates a new QRHandler printing codes to out.
func NewQRHandler(out io.Writer, log waLog.Logger) *QRHandler {
	return &QRHandler{out: out, log: log.Sub("QR")}
}

// WithFile makes the handler also save every code as a PNG at path.
func (h *QRHandler) WithFile(path string) *QRHandler {
	h.file = path
	return h
}

// HandleQRChannel processes QR channel items until pairing succeeds or fails.
func (h *QRHandler) HandleQRChannel(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-qrChan:
			if !ok {
				return fmt.Errorf("QR channel closed before pairing finished")
			}
			done, err := h.handleItem(item)
			if done {
				return err
			}
		}
	}
}

func (h *QRHandler) handleItem(item whatsmeow.QRChannelItem) (bool, error) {
	switch item.Event {
	case whatsmeow.QRChannelEventCode:
		h.log.Infof("Scan the QR code below with WhatsApp (Linked Devices)")
		h.displayQR(item.Code)
		if h.file != "" {
			if err := h.SaveQRToFile(item.Code, h.file); err != nil {
				h.log.Warnf("%v", err)
			}
		}
		return false, nil
	case whatsmeow.QRChannelTimeout.Event:
		h.log.Warnf("QR code timeout - please restart to get a new QR code")
		return true, ErrQRTimeout
	case whatsmeow.QRChannelSuccess.Event:
		h.log.Infof("Successfully paired!")
		return true, nil
	case whatsmeow.QRChannelEventError:
		h.log.Errorf("QR error: %v", item.Error)
		return true, item.Error
	default:
		// Covers client-outdated, scanned-without-multidevice and similar.
		return true, fmt.Errorf("pairing failed: %s", item.Event)
	}
}

// displayQR displays a QR code in the terminal.
func (h *QRHandler) displayQR(code string) {
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		h.log.Errorf("Failed to generate QR code: %v", err)
		fmt.Fprintln(h.out, "QR Code content:", code)
		return
	}

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, qr.ToSmallString(false))
	fmt.Fprintln(h.out)
}

// SaveQRToFile saves the QR code to a file.
func (h *QRHandler) SaveQRToFile(code, filepath string) error {
	err := qrcode.WriteFile(code, qrcode.Medium, 256, filepath)
	if err != nil {
		return fmt.Errorf("failed to save QR code: %w", err)
	}
	h.log.Infof("QR code saved to %s", filepath)
	return nil
}
