package store

import (
	"database/sql"
	"errors"
	"time"
)

// Upload describes a media blob already stored on the WhatsApp servers.
type Upload struct {
	SHA256        []byte
	MediaType     string
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	FileLength    uint64
	Mimetype      string
	UploadedAt    time.Time
}

// UploadStore handles upload cache operations.
type UploadStore struct {
	store *Store
}

// NewUploadStore creates a new UploadStore.
func NewUploadStore(s *Store) *UploadStore {
	return &UploadStore{store: s}
}

// Put stores or replaces an upload entry.
func (s *UploadStore) Put(u *Upload) error {
	uploadedAt := u.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	_, err := s.store.Exec(`
		INSERT INTO wasend_uploads (sha256, media_type, url, direct_path, media_key, file_enc_sha256, file_length, mimetype, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sha256, media_type) DO UPDATE SET
			url = excluded.url,
			direct_path = excluded.direct_path,
			media_key = excluded.media_key,
			file_enc_sha256 = excluded.file_enc_sha256,
			file_length = excluded.file_length,
			mimetype = excluded.mimetype,
			uploaded_at = excluded.uploaded_at
	`, u.SHA256, u.MediaType, u.URL, u.DirectPath, u.MediaKey, u.FileEncSHA256, int64(u.FileLength), nullString(u.Mimetype), uploadedAt.Unix())
	return err
}

// Get returns the upload for a plaintext hash, or nil if there is none.
func (s *UploadStore) Get(sha256 []byte, mediaType string) (*Upload, error) {
	return s.scan(s.store.QueryRow(`
		SELECT sha256, media_type, url, direct_path, media_key, file_enc_sha256, file_length, mimetype, uploaded_at
		FROM wasend_uploads WHERE sha256 = ? AND media_type = ?
	`, sha256, mediaType))
}

// GetByURL returns the upload stored under url, or nil if there is none.
func (s *UploadStore) GetByURL(url string) (*Upload, error) {
	return s.scan(s.store.QueryRow(`
		SELECT sha256, media_type, url, direct_path, media_key, file_enc_sha256, file_length, mimetype, uploaded_at
		FROM wasend_uploads WHERE url = ?
		ORDER BY uploaded_at DESC LIMIT 1
	`, url))
}

// Delete removes an upload entry.
func (s *UploadStore) Delete(sha256 []byte, mediaType string) error {
	_, err := s.store.Exec(`DELETE FROM wasend_uploads WHERE sha256 = ? AND media_type = ?`, sha256, mediaType)
	return err
}

// PruneBefore drops entries uploaded before cutoff. The servers expire media
// after a while, so stale entries would produce undownloadable messages.
func (s *UploadStore) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.store.Exec(`DELETE FROM wasend_uploads WHERE uploaded_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UploadStore) scan(row *sql.Row) (*Upload, error) {
	var u Upload
	var fileLength, uploadedAt int64
	var mimetype sql.NullString

	err := row.Scan(&u.SHA256, &u.MediaType, &u.URL, &u.DirectPath, &u.MediaKey, &u.FileEncSHA256, &fileLength, &mimetype, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.FileLength = uint64(fileLength)
	u.Mimetype = mimetype.String
	u.UploadedAt = time.Unix(uploadedAt, 0)
	return &u, nil
}
