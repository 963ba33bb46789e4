package session

import (
	"errors"
	"fmt"
)

// Error kinds. Every one of them ends the invocation; none is retried.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrUploadRequest    = errors.New("upload request failed")
	ErrUpload           = errors.New("upload failed")
	ErrTransport        = errors.New("transport error")

	ErrSessionUsed = errors.New("session already used")
)

var kinds = []error{ErrAuthentication, ErrUnsupportedMedia, ErrUploadRequest, ErrUpload, ErrTransport}

// classify keeps errors that already carry a kind and treats the rest as
// transport failures.
func classify(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
