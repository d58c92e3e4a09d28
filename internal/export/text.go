package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jfmyers9/spotify-backup/internal/library"
	"github.com/rs/zerolog"
)

// Text output uses CRLF line endings so it opens cleanly everywhere.
const crlf = "\r\n"

// section is a titled list of rows, e.g. one playlist
type section struct {
	Title string
	Rows  []Row
}

// collectSections turns a library into playlist sections and the liked
// albums section. Malformed items are logged and skipped.
func collectSections(lib *library.Library, logger zerolog.Logger) (playlists []section, albums []Row) {
	for _, playlist := range lib.Playlists {
		sec := section{Title: playlist.Name}
		for i, item := range playlist.Tracks {
			row, ok, err := TrackRow(item)
			if err != nil {
				logger.Warn().Err(err).
					Str("playlist", playlist.Name).
					Int("index", i).
					Msg("Skipping track due to error")
				continue
			}
			if ok {
				sec.Rows = append(sec.Rows, row)
			}
		}
		playlists = append(playlists, sec)
	}

	for i, item := range lib.Albums {
		row, err := AlbumRow(item)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping album due to error")
			continue
		}
		albums = append(albums, row)
	}

	return playlists, albums
}

func writeText(w io.Writer, lib *library.Library, logger zerolog.Logger) error {
	playlists, albums := collectSections(lib, logger)
	tw := &textWriter{w: w}

	tw.line("Playlists: ")
	tw.line("")
	for _, sec := range playlists {
		tw.line(sec.Title)
		for _, row := range sec.Rows {
			tw.line(strings.Join(row.Fields(), "\t"))
		}
		tw.line("")
	}

	if len(albums) > 0 {
		tw.line("Liked Albums: ")
		tw.line("")
		for _, row := range albums {
			tw.line(strings.Join(row.Fields(), "\t"))
		}
	}

	if tw.err != nil {
		return fmt.Errorf("failed to write text output: %w", tw.err)
	}
	return nil
}

// textWriter remembers the first write error so callers can check once
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s+crlf)
}
