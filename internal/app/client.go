package app

import (
	"context"
	"errors"
	"fmt"

	"go.mau.fi/whatsmeow"
	wastore "go.mau.fi/whatsmeow/store"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/transport/whatsapp"
)

// Client wraps whatsmeow.Client for a single invocation.
type Client struct {
	WAClient *whatsmeow.Client
	Device   *wastore.Device
	Log      waLog.Logger
}

// NewClient creates a Client for the paired device belonging to login.
func NewClient(ctx context.Context, appStore *store.Store, login string, log waLog.Logger) (*Client, error) {
	device, err := appStore.GetDevice(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNoDevice) {
			return nil, fmt.Errorf("%w: %w (run 'wasend pair' first)", session.ErrAuthentication, err)
		}
		return nil, fmt.Errorf("%w: failed to get device: %w", session.ErrTransport, err)
	}
	return newClient(device, log), nil
}

// NewPairingClient creates a Client for a fresh, unpaired device.
func NewPairingClient(appStore *store.Store, log waLog.Logger) *Client {
	return newClient(appStore.NewDevice(), log)
}

func newClient(device *wastore.Device, log waLog.Logger) *Client {
	waClient := whatsmeow.NewClient(device, log.Sub("whatsmeow"))
	// A dropped connection fails the send instead of silently reconnecting.
	waClient.EnableAutoReconnect = false
	waClient.AutoTrustIdentity = true

	return &Client{
		WAClient: waClient,
		Device:   device,
		Log:      log.Sub("Client"),
	}
}

// Transport wraps the client as a session transport.
func (c *Client) Transport(uploads *store.UploadStore, messages *store.MessageStore, opts whatsapp.Options) *whatsapp.Transport {
	return whatsapp.New(c.WAClient, uploads, messages, opts, c.Log)
}

// Disconnect disconnects from WhatsApp.
func (c *Client) Disconnect() {
	c.WAClient.Disconnect()
}
