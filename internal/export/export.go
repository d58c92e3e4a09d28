package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jfmyers9/spotify-backup/internal/library"
	"github.com/rs/zerolog"
)

// Format is an output file format
type Format string

const (
	FormatJSON   Format = "json"   // Full records as indented JSON
	FormatText   Format = "txt"    // Tab separated rows
	FormatTable  Format = "table"  // Aligned columns for reading in a terminal
	FormatSQLite Format = "sqlite" // SQLite database
)

// Formats lists every supported format
var Formats = []Format{FormatJSON, FormatText, FormatTable, FormatSQLite}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (use json, txt, table or sqlite)", s)
}

// FormatFromPath picks a format from a file extension, e.g. "out.json".
// ".db" maps to sqlite.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch strings.ToLower(ext) {
	case "db", "sqlite3":
		return FormatSQLite, nil
	case "text":
		return FormatText, nil
	}
	return ParseFormat(ext)
}

// Exporter serializes a library
type Exporter struct {
	logger zerolog.Logger
}

// New creates a new Exporter instance
func New(logger zerolog.Logger) *Exporter {
	return &Exporter{
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// WriteFile writes lib to path in the given format.
//
// Output goes to a temporary file next to path that replaces path only
// once it is complete, so a failed export never leaves a truncated file.
func (e *Exporter) WriteFile(path string, format Format, lib *library.Library) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if format == FormatSQLite {
		// SQLite opens the file itself.
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to close temp file: %w", err)
		}
		if err := writeSQLite(tmpName, lib, e.logger); err != nil {
			return err
		}
	} else {
		buf := bufio.NewWriter(tmp)
		if err := e.Write(buf, format, lib); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := buf.Flush(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to close temp file: %w", err)
		}
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// Write serializes lib to w. SQLite output needs a file and is not
// supported here.
func (e *Exporter) Write(w io.Writer, format Format, lib *library.Library) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, lib)
	case FormatText:
		return writeText(w, lib, e.logger)
	case FormatTable:
		return writeTable(w, lib, e.logger)
	case FormatSQLite:
		return fmt.Errorf("format %s can only be written to a file", format)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// document is the top level of JSON output
type document struct {
	Playlists []library.Playlist `json:"playlists"`
	Albums    []json.RawMessage  `json:"albums"`
}

func writeJSON(w io.Writer, lib *library.Library) error {
	doc := document{
		Playlists: lib.Playlists,
		Albums:    lib.Albums,
	}
	if doc.Playlists == nil {
		doc.Playlists = []library.Playlist{}
	}
	if doc.Albums == nil {
		doc.Albums = []json.RawMessage{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
