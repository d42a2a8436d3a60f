// internal/db/migrations.go
package db

import "fmt"

const authSchema = `
CREATE TABLE IF NOT EXISTS google_auth (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    client_id      TEXT NOT NULL,
    client_secret  TEXT NOT NULL,
    access_token   TEXT,
    refresh_token  TEXT,
    token_expiry   INTEGER,
    account_email  TEXT,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);
`

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

const bookshelfSchema = `
CREATE TABLE IF NOT EXISTS drive_folders (
    folder_id    TEXT PRIMARY KEY,
    folder_name  TEXT NOT NULL,
    is_active    INTEGER NOT NULL DEFAULT 1,
    last_synced  INTEGER,
    created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookshelf (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    drive_file_id        TEXT UNIQUE NOT NULL,
    drive_folder_id      TEXT NOT NULL REFERENCES drive_folders(folder_id),
    file_name            TEXT NOT NULL,
    file_size            INTEGER,
    mime_type            TEXT,
    drive_modified_time  TEXT,
    local_path           TEXT,
    download_status      TEXT NOT NULL DEFAULT 'pending',
    download_progress    REAL NOT NULL DEFAULT 0,
    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookshelf_folder ON bookshelf(drive_folder_id);
CREATE INDEX IF NOT EXISTS idx_bookshelf_status ON bookshelf(download_status);
`

func (db *DB) RunMigrations() error {
	_, err := db.Exec(authSchema)
	if err != nil {
		return fmt.Errorf("failed to run auth migrations: %w", err)
	}

	_, err = db.Exec(settingsSchema)
	if err != nil {
		return fmt.Errorf("failed to run settings migrations: %w", err)
	}

	_, err = db.Exec(bookshelfSchema)
	if err != nil {
		return fmt.Errorf("failed to run bookshelf migrations: %w", err)
	}

	return nil
}
