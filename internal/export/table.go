package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jfmyers9/spotify-backup/internal/library"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
)

const (
	// maxColumnWidth caps a column's display width; longer cells are truncated
	maxColumnWidth = 40

	columnGap = "  "
)

var tableHeader = Row{
	Name:        "NAME",
	Artists:     "ARTISTS",
	Album:       "ALBUM",
	URI:         "URI",
	ReleaseDate: "RELEASED",
}

func writeTable(w io.Writer, lib *library.Library, logger zerolog.Logger) error {
	playlists, albums := collectSections(lib, logger)
	if len(albums) > 0 {
		playlists = append(playlists, section{Title: "Liked Albums", Rows: albums})
	}

	tw := &textWriter{w: w}
	for i, sec := range playlists {
		if i > 0 {
			tw.line("")
		}
		tw.line(fmt.Sprintf("%s (%d)", sec.Title, len(sec.Rows)))

		rows := append([]Row{tableHeader}, sec.Rows...)
		widths := columnWidths(rows)
		for _, row := range rows {
			tw.line(formatTableRow(row, widths))
		}
	}

	if tw.err != nil {
		return fmt.Errorf("failed to write table output: %w", tw.err)
	}
	return nil
}

// columnWidths returns the display width of each column, capped at maxColumnWidth
func columnWidths(rows []Row) []int {
	widths := make([]int, len(tableHeader.Fields()))
	for _, row := range rows {
		for i, cell := range row.Fields() {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	return widths
}

// formatTableRow pads or truncates each cell to its column width,
// measured in terminal cells so wide characters line up
func formatTableRow(row Row, widths []int) string {
	fields := row.Fields()
	cells := make([]string, len(fields))
	for i, cell := range fields {
		cells[i] = fitWidth(cell, widths[i])
	}
	// The last column needs no padding.
	return strings.TrimRight(strings.Join(cells, columnGap), " ")
}

// fitWidth returns s at exactly width display cells
func fitWidth(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}
