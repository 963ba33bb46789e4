package auth_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wasend/internal/auth"
)

func feed(items ...whatsmeow.QRChannelItem) <-chan whatsmeow.QRChannelItem {
	ch := make(chan whatsmeow.QRChannelItem, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return ch
}

func TestHandleQRChannelSuccess(t *testing.T) {
	var out bytes.Buffer
	png := filepath.Join(t.TempDir(), "qr.png")
	h := auth.NewQRHandler(&out, waLog.Noop).WithFile(png)

	err := h.HandleQRChannel(context.Background(), feed(
		whatsmeow.QRChannelItem{Event: whatsmeow.QRChannelEventCode, Code: "2@abc,def,ghi"},
		whatsmeow.QRChannelSuccess,
	))
	require.NoError(t, err)
	assert.NotEmpty(t, out.String())

	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestHandleQRChannelFailures(t *testing.T) {
	h := auth.NewQRHandler(&bytes.Buffer{}, waLog.Noop)

	err := h.HandleQRChannel(context.Background(), feed(whatsmeow.QRChannelTimeout))
	assert.ErrorIs(t, err, auth.ErrQRTimeout)

	boom := errors.New("boom")
	err = h.HandleQRChannel(context.Background(), feed(whatsmeow.QRChannelItem{Event: whatsmeow.QRChannelEventError, Error: boom}))
	assert.ErrorIs(t, err, boom)

	err = h.HandleQRChannel(context.Background(), feed())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = h.HandleQRChannel(ctx, make(chan whatsmeow.QRChannelItem))
	assert.ErrorIs(t, err, context.Canceled)
}
