package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jfmyers9/spotify-backup/internal/library"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS export_info (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		record TEXT
	);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		playlist_id INTEGER NOT NULL REFERENCES playlists(id),
		position INTEGER NOT NULL,
		name TEXT,
		artists TEXT,
		album TEXT,
		uri TEXT,
		release_date TEXT,
		item TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		name TEXT,
		artists TEXT,
		uri TEXT,
		release_date TEXT,
		item TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_playlist ON tracks(playlist_id, position);
	CREATE INDEX IF NOT EXISTS idx_tracks_uri ON tracks(uri);
`

// openSQLite opens (or creates) an export database and applies the schema
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent across queries
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// writeSQLite writes lib into a new database at path
func writeSQLite(path string, lib *library.Library, logger zerolog.Logger) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return insertLibrary(context.Background(), db, lib, logger)
}

// insertLibrary stores lib in a single transaction
func insertLibrary(ctx context.Context, db *sql.DB, lib *library.Library, logger zerolog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	info := map[string]string{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}
	if lib.User != nil {
		info["user_id"] = lib.User.ID
		info["display_name"] = lib.User.DisplayName
	}
	for key, value := range info {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO export_info (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to insert export info: %w", err)
		}
	}

	for pos, playlist := range lib.Playlists {
		var record interface{}
		if raw := playlist.Record(); raw != nil {
			record = string(raw)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO playlists (position, name, record) VALUES (?, ?, ?)`,
			pos, playlist.Name, record,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist %q: %w", playlist.Name, err)
		}

		playlistID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get insert id: %w", err)
		}

		if err := insertTracks(ctx, tx, playlistID, playlist, logger); err != nil {
			return err
		}
	}

	for pos, item := range lib.Albums {
		row, err := AlbumRow(item)
		if err != nil {
			logger.Warn().Err(err).Int("index", pos).Msg("Skipping album due to error")
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO albums (position, name, artists, uri, release_date, item) VALUES (?, ?, ?, ?, ?, ?)`,
			pos, row.Name, row.Artists, row.URI, row.ReleaseDate, string(compact(item)),
		); err != nil {
			return fmt.Errorf("failed to insert album: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

func insertTracks(ctx context.Context, tx *sql.Tx, playlistID int64, playlist library.Playlist, logger zerolog.Logger) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (playlist_id, position, name, artists, album, uri, release_date, item)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for pos, item := range playlist.Tracks {
		row, ok, err := TrackRow(item)
		if err != nil {
			logger.Warn().Err(err).
				Str("playlist", playlist.Name).
				Int("index", pos).
				Msg("Skipping track due to error")
			continue
		}
		if !ok {
			continue
		}

		if _, err := stmt.ExecContext(ctx,
			playlistID, pos, row.Name, row.Artists, row.Album, row.URI, row.ReleaseDate, string(compact(item)),
		); err != nil {
			return fmt.Errorf("failed to insert track: %w", err)
		}
	}

	return nil
}

// compact strips insignificant whitespace from a record before storing it
func compact(item json.RawMessage) json.RawMessage {
	out, err := json.Marshal(item)
	if err != nil {
		return item
	}
	return out
}
