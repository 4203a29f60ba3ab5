package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          INTEGER PRIMARY KEY,
	message     TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id           INTEGER PRIMARY KEY,
	subject      TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY,
	conversation_id INTEGER NOT NULL,
	body            TEXT NOT NULL,
	sender_id       INTEGER NOT NULL,
	sender_name     TEXT NOT NULL DEFAULT '',
	sent_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
