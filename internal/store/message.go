package store

import (
	"database/sql"
	"time"
)

// Message is a message sent by this device.
type Message struct {
	ID        string
	Recipient string
	Kind      string
	Text      string
	FilePath  string
	MediaURL  string
	SentAt    time.Time
	AckedAt   *time.Time
}

// MessageStore handles sent message operations.
type MessageStore struct {
	store *Store
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(s *Store) *MessageStore {
	return &MessageStore{store: s}
}

// Put stores or updates a sent message.
func (s *MessageStore) Put(m *Message) error {
	sentAt := m.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	var ackedAt sql.NullInt64
	if m.AckedAt != nil {
		ackedAt = nullInt64(m.AckedAt.Unix())
	}

	_, err := s.store.Exec(`
		INSERT INTO wasend_messages (id, recipient, kind, text_content, file_path, media_url, sent_at, acked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			media_url = COALESCE(excluded.media_url, media_url),
			acked_at = COALESCE(excluded.acked_at, acked_at)
	`, m.ID, m.Recipient, m.Kind, nullString(m.Text), nullString(m.FilePath), nullString(m.MediaURL), sentAt.Unix(), ackedAt)
	return err
}

// MarkAcked records the server acknowledgement time of a message.
func (s *MessageStore) MarkAcked(id string, at time.Time) error {
	_, err := s.store.Exec(`UPDATE wasend_messages SET acked_at = ? WHERE id = ?`, at.Unix(), id)
	return err
}

// Get retrieves a message by ID.
func (s *MessageStore) Get(id string) (*Message, error) {
	row := s.store.QueryRow(`
		SELECT id, recipient, kind, text_content, file_path, media_url, sent_at, acked_at
		FROM wasend_messages WHERE id = ?
	`, id)
	return scanMessage(row)
}

// GetByRecipient returns the most recent messages sent to recipient.
func (s *MessageStore) GetByRecipient(recipient string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.store.Query(`
		SELECT id, recipient, kind, text_content, file_path, media_url, sent_at, acked_at
		FROM wasend_messages WHERE recipient = ?
		ORDER BY sent_at DESC, rowid DESC LIMIT ?
	`, recipient, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*Message, error) {
	var m Message
	var text, path, url sql.NullString
	var sentAt int64
	var ackedAt sql.NullInt64

	if err := row.Scan(&m.ID, &m.Recipient, &m.Kind, &text, &path, &url, &sentAt, &ackedAt); err != nil {
		return nil, err
	}

	m.Text = text.String
	m.FilePath = path.String
	m.MediaURL = url.String
	m.SentAt = time.Unix(sentAt, 0)
	if ackedAt.Valid {
		t := time.Unix(ackedAt.Int64, 0)
		m.AckedAt = &t
	}
	return &m, nil
}
