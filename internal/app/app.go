package app

import (
	"context"
	"fmt"
	"io"
	"time"

	wastore "go.mau.fi/whatsmeow/store"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"wasend/internal/auth"
	"wasend/internal/infra/config"
	"wasend/internal/infra/logger"
	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/transport/whatsapp"
	"wasend/internal/utils/jid"
)

// App wires configuration, storage and sessions together.
type App struct {
	Config *config.Config
	Log    waLog.Logger
	Store  *store.Store

	UploadStore  *store.UploadStore
	MessageStore *store.MessageStore

	// newTransport is replaced in tests.
	newTransport func(ctx context.Context) (session.Transport, error)
}

// New creates a new App instance.
func New(cfg *config.Config) (*App, error) {
	return NewWithLogger(cfg, logger.New("wasend", cfg.LogLevel))
}

// NewWithLogger creates a new App logging to log.
func NewWithLogger(cfg *config.Config, log waLog.Logger) (*App, error) {
	if err := cfg.EnsureStorePath(); err != nil {
		return nil, fmt.Errorf("failed to ensure store path: %w", err)
	}

	appStore, err := store.New(cfg.DBPath(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if cfg.DeviceName != "" {
		wastore.DeviceProps.Os = proto.String(cfg.DeviceName)
	}

	a := &App{
		Config:       cfg,
		Log:          log,
		Store:        appStore,
		UploadStore:  store.NewUploadStore(appStore),
		MessageStore: store.NewMessageStore(appStore),
	}
	a.newTransport = a.whatsappTransport
	a.pruneUploads()
	return a, nil
}

func (a *App) whatsappTransport(ctx context.Context) (session.Transport, error) {
	client, err := NewClient(ctx, a.Store, a.Config.Login, a.Log)
	if err != nil {
		return nil, err
	}
	return client.Transport(a.UploadStore, a.MessageStore, whatsapp.Options{
		UploadTTL: a.Config.UploadCacheTTL,
	}), nil
}

// pruneUploads drops cached uploads that can no longer be reused.
func (a *App) pruneUploads() {
	if a.Config.UploadCacheTTL <= 0 {
		return
	}
	n, err := a.UploadStore.PruneBefore(time.Now().Add(-a.Config.UploadCacheTTL))
	if err != nil {
		a.Log.Warnf("Failed to prune upload cache: %v", err)
		return
	}
	if n > 0 {
		a.Log.Debugf("Pruned %d expired uploads", n)
	}
}

func (a *App) newSession(ctx context.Context) (*session.Session, error) {
	transport, err := a.newTransport(ctx)
	if err != nil {
		return nil, err
	}
	return session.New(session.Config{
		Credentials: session.Credentials{Login: a.Config.Login},
		Passive:     a.Config.Passive,
		Timeout:     a.Config.Timeout,
	}, transport, a.Log), nil
}

// SendMessage sends text to a recipient and waits for the server ack.
func (a *App) SendMessage(ctx context.Context, to, text string) (*session.Ack, error) {
	s, err := a.newSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.SendText(ctx, to, text)
}

// SendMedia uploads the file at path, sends it to a recipient and waits for
// the server ack.
func (a *App) SendMedia(ctx context.Context, to, path string) (*session.Ack, error) {
	// Unsupported files are refused before a device is even loaded.
	if _, err := session.Classify(path); err != nil {
		return nil, err
	}
	s, err := a.newSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.SendMedia(ctx, to, path)
}

// Pair links a new device by QR code. Codes are printed to out and, when
// qrFile is set, saved as a PNG.
func (a *App) Pair(ctx context.Context, out io.Writer, qrFile string) error {
	client := NewPairingClient(a.Store, a.Log)

	qrChan, err := client.WAClient.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	// Connect (will trigger QR generation)
	if err := client.WAClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Disconnect()

	qrHandler := auth.NewQRHandler(out, a.Log)
	if qrFile != "" {
		qrHandler.WithFile(qrFile)
	}
	if err := qrHandler.HandleQRChannel(ctx, qrChan); err != nil {
		return err
	}

	if id := client.WAClient.Store.ID; id != nil {
		a.Log.Infof("Paired as %s", id.User)
	}
	return nil
}

// History returns the most recent messages sent to recipient.
func (a *App) History(to string, limit int) ([]*store.Message, error) {
	recipient, err := jid.Recipient(to)
	if err != nil {
		return nil, err
	}
	return a.MessageStore.GetByRecipient(recipient.String(), limit)
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
