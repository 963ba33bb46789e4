package whatsapp

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"

	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/utils/media"
)

// BuildMediaMessage builds the downloadable-media message for an uploaded blob.
func BuildMediaMessage(up *store.Upload, ref session.MediaReference) (*waE2E.Message, error) {
	mimetype := up.Mimetype
	if mimetype == "" {
		mimetype = media.DetectMimeType(ref.Path, ref.Type)
	}

	switch ref.Type {
	case media.TypeImage:
		img := &waE2E.ImageMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.SHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}
		if w, h, ok := imageDimensions(ref.Path); ok {
			img.Width = proto.Uint32(w)
			img.Height = proto.Uint32(h)
		}
		return &waE2E.Message{ImageMessage: img}, nil

	case media.TypeVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.SHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil

	case media.TypeAudio:
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(mimetype),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.SHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", session.ErrUnsupportedMedia, ref.Type)
	}
}

// imageDimensions attempts to detect image dimensions.
func imageDimensions(path string) (uint32, uint32, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return uint32(cfg.Width), uint32(cfg.Height), true
}
