package migrations

import (
	"curator/internal/core"
)

// Migration001CreateKVTable creates the key-value table backing the profile store
var Migration001CreateKVTable = core.Migration{
	Version:     1,
	Name:        "create_kv_table",
	Description: "Create the local profile key-value table",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`,
	DownSQL: `DROP TABLE IF EXISTS kv;`,
}

// Migration002IndexKVUpdatedAt indexes records by modification time
var Migration002IndexKVUpdatedAt = core.Migration{
	Version:     2,
	Name:        "index_kv_updated_at",
	Description: "Index profile records by last update",
	UpSQL:       `CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at);`,
	DownSQL:     `DROP INDEX IF EXISTS idx_kv_updated_at;`,
}
