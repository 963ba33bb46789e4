package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.mau.fi/whatsmeow"
)

// Type represents a media type.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
)

// ErrUnsupported is returned for files whose extension is not a known media type.
var ErrUnsupported = errors.New("unsupported media extension")

var (
	imageExts = []string{".jpg", ".png"}
	audioExts = []string{".mp3", ".wav", ".aac", ".wma", ".ogg", ".oga"}
	videoExts = []string{".mp4"}
)

// WhatsmeowType maps our Type to whatsmeow.MediaType.
func (t Type) WhatsmeowType() whatsmeow.MediaType {
	switch t {
	case TypeImage:
		return whatsmeow.MediaImage
	case TypeVideo:
		return whatsmeow.MediaVideo
	case TypeAudio:
		return whatsmeow.MediaAudio
	default:
		return whatsmeow.MediaDocument
	}
}

// Valid reports whether t is one of the sendable media types.
func (t Type) Valid() bool {
	return t == TypeImage || t == TypeVideo || t == TypeAudio
}

// FromExtension classifies a file by its extension.
// Returns ErrUnsupported for anything outside the supported sets.
func FromExtension(filename string) (Type, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case contains(imageExts, ext):
		return TypeImage, nil
	case contains(videoExts, ext):
		return TypeVideo, nil
	case contains(audioExts, ext):
		return TypeAudio, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupported, filepath.Base(filename))
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

// DetectMimeType sniffs the mimetype of a local file, falling back to a
// per-type default when the content is not recognised.
func DetectMimeType(path string, t Type) string {
	if m, err := mimetype.DetectFile(path); err == nil && m.String() != "application/octet-stream" {
		return m.String()
	}
	switch t {
	case TypeImage:
		return "image/jpeg"
	case TypeVideo:
		return "video/mp4"
	case TypeAudio:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// SupportedImageExts returns supported image extensions.
func SupportedImageExts() []string {
	return append([]string(nil), imageExts...)
}

// SupportedVideoExts returns supported video extensions.
func SupportedVideoExts() []string {
	return append([]string(nil), videoExts...)
}

// SupportedAudioExts returns supported audio extensions.
func SupportedAudioExts() []string {
	return append([]string(nil), audioExts...)
}

func contains(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}
