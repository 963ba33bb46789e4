package whatsapp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"time"

	"wasend/internal/session"
	"wasend/internal/store"
	"wasend/internal/utils/media"
)

// RequestUploadSlot implements session.Transport.
func (t *Transport) RequestUploadSlot(ctx context.Context, mt media.Type, path string) (*session.UploadSlot, error) {
	if !mt.Valid() {
		return nil, fmt.Errorf("cannot upload %q media", mt)
	}
	slot := &session.UploadSlot{Type: mt, Path: path}

	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	if t.uploads == nil || t.opts.UploadTTL <= 0 {
		return slot, nil
	}

	up, err := t.uploads.Get(hash, string(mt))
	if err != nil {
		t.log.Warnf("Upload cache lookup failed: %v", err)
		return slot, nil
	}
	if up == nil {
		return slot, nil
	}
	if time.Since(up.UploadedAt) > t.opts.UploadTTL {
		if err := t.uploads.Delete(hash, string(mt)); err != nil {
			t.log.Warnf("Failed to drop expired upload of %s: %v", path, err)
		}
		return slot, nil
	}

	t.remember(up)
	slot.URL = up.URL
	slot.Duplicate = true
	return slot, nil
}

// Upload implements session.Transport. whatsmeow encrypts and uploads the
// whole blob in one request, so only slots at offset 0 can be served.
func (t *Transport) Upload(ctx context.Context, slot *session.UploadSlot, progress session.ProgressFunc) (string, error) {
	if slot.ResumeOffset != 0 {
		return "", fmt.Errorf("cannot resume upload at offset %d", slot.ResumeOffset)
	}

	data, err := readWithProgress(slot.Path, progress)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Upload(ctx, data, slot.Type.WhatsmeowType())
	if err != nil {
		return "", err
	}

	up := &store.Upload{
		SHA256:        resp.FileSHA256,
		MediaType:     string(slot.Type),
		URL:           resp.URL,
		DirectPath:    resp.DirectPath,
		MediaKey:      resp.MediaKey,
		FileEncSHA256: resp.FileEncSHA256,
		FileLength:    resp.FileLength,
		Mimetype:      media.DetectMimeType(slot.Path, slot.Type),
		UploadedAt:    time.Now(),
	}
	t.remember(up)
	if t.uploads != nil {
		if err := t.uploads.Put(up); err != nil {
			t.log.Warnf("Failed to cache upload of %s: %v", slot.Path, err)
		}
	}
	return up.URL, nil
}

func (t *Transport) remember(up *store.Upload) {
	t.mu.Lock()
	t.sent[up.URL] = up
	t.mu.Unlock()
}

// lookup resolves a media URL handed out by this transport.
func (t *Transport) lookup(url string) (*store.Upload, error) {
	t.mu.Lock()
	up, ok := t.sent[url]
	t.mu.Unlock()
	if ok {
		return up, nil
	}

	if t.uploads != nil {
		up, err := t.uploads.GetByURL(url)
		if err != nil {
			return nil, err
		}
		if up != nil {
			return up, nil
		}
	}
	return nil, fmt.Errorf("no upload known for %s", url)
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// progressReader reports the number of bytes read so far.
type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    session.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.read, p.total)
	}
	return n, err
}

// readWithProgress loads path into memory. Progress measures reading the
// local file; whatsmeow gives no feedback while the blob is on the wire.
func readWithProgress(path string, fn session.ProgressFunc) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(int(info.Size()))
	pr := &progressReader{r: f, total: info.Size(), fn: fn}
	if _, err := io.Copy(&buf, pr); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
