package session

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wasend/internal/utils/media"
)

// Uploader gets a local file to the media servers and emits the
// downloadable-media message that points at it.
type Uploader struct {
	transport Transport
	tracker   *Tracker
	log       waLog.Logger
}

// NewUploader creates an Uploader. Emitted message IDs are registered in tracker.
func NewUploader(transport Transport, tracker *Tracker, log waLog.Logger) *Uploader {
	return &Uploader{
		transport: transport,
		tracker:   tracker,
		log:       log.Sub("Upload"),
	}
}

// Classify maps a file path to its media type without touching the transport.
func Classify(path string) (media.Type, error) {
	t, err := media.FromExtension(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedMedia, err)
	}
	return t, nil
}

// Send uploads path (unless the server already has it) and sends the media
// message to recipient. Returns the ID of the media message.
func (u *Uploader) Send(ctx context.Context, recipient, path string) (MessageID, error) {
	mediaType, err := Classify(path)
	if err != nil {
		return "", err
	}

	slot, err := u.transport.RequestUploadSlot(ctx, mediaType, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadRequest, err)
	}

	ref := MediaReference{
		URL:  slot.URL,
		Type: mediaType,
		Path: path,
	}

	if slot.Duplicate {
		u.log.Infof("%s already on server, skipping upload", path)
		ref.IP = slot.IP
	} else {
		if slot.ResumeOffset > 0 {
			u.log.Infof("Resuming upload of %s at %s", path, humanize.IBytes(uint64(slot.ResumeOffset)))
		}
		url, err := u.transport.Upload(ctx, slot, u.progress(path))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUpload, err)
		}
		ref.URL = url
	}

	id := u.transport.NewMessageID()
	u.tracker.Register(id)
	if err := u.transport.SendMediaReference(ctx, id, recipient, ref); err != nil {
		return id, fmt.Errorf("%w: send %s message: %w", ErrTransport, mediaType, err)
	}
	return id, nil
}

func (u *Uploader) progress(path string) ProgressFunc {
	var next int64
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := sent * 100 / total
		// Log on every 10% step.
		if pct < next {
			return
		}
		next = pct/10*10 + 10
		u.log.Infof("Progress %s: %d%% (%s / %s)", path, pct,
			humanize.IBytes(uint64(sent)), humanize.IBytes(uint64(total)))
	}
}
