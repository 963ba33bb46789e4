package store

// schema contains the app-specific tables.
//
// Tables:
//   - wasend_uploads - Media already on the WhatsApp servers, by plaintext hash
//   - wasend_messages - Messages sent by this device
const schema = `
-- ============================================================
-- Uploads (media keys for re-sending without re-uploading)
-- ============================================================
CREATE TABLE IF NOT EXISTS wasend_uploads (
    sha256 BLOB NOT NULL,
    media_type TEXT NOT NULL,

    url TEXT NOT NULL,
    direct_path TEXT NOT NULL,
    media_key BLOB NOT NULL,
    file_enc_sha256 BLOB NOT NULL,
    file_length INTEGER NOT NULL,
    mimetype TEXT,

    uploaded_at INTEGER NOT NULL,
    PRIMARY KEY (sha256, media_type)
);
CREATE INDEX IF NOT EXISTS idx_wasend_uploads_url ON wasend_uploads(url);

-- ============================================================
-- Sent messages
-- ============================================================
CREATE TABLE IF NOT EXISTS wasend_messages (
    id TEXT PRIMARY KEY,
    recipient TEXT NOT NULL,
    kind TEXT NOT NULL,
    text_content TEXT,
    file_path TEXT,
    media_url TEXT,
    sent_at INTEGER NOT NULL,
    acked_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_wasend_messages_recipient ON wasend_messages(recipient, sent_at);
`
