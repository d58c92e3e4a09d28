package export

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// unknown fills fields missing from a record
const unknown = "Unknown"

// Row is one formatted line of a track or album listing
type Row struct {
	Name        string
	Artists     string
	Album       string
	URI         string
	ReleaseDate string
}

// Fields returns the row's columns in output order
func (r Row) Fields() []string {
	return []string{r.Name, r.Artists, r.Album, r.URI, r.ReleaseDate}
}

var (
	errNotObject    = errors.New("item is not a JSON object")
	errMissingTrack = errors.New("item has no track field")
	errMissingAlbum = errors.New("item has no album field")
)

// TrackRow extracts a row from a saved-track or playlist-track item.
//
// ok is false for items whose track is null or empty, which happens for
// tracks removed from the catalog; those are skipped quietly. A non-nil
// error means the item is malformed.
func TrackRow(item json.RawMessage) (row Row, ok bool, err error) {
	parsed, err := object(item)
	if err != nil {
		return Row{}, false, err
	}

	track := parsed.Get("track")
	if !track.Exists() {
		return Row{}, false, errMissingTrack
	}
	if isEmpty(track) {
		return Row{}, false, nil
	}
	if !track.IsObject() {
		return Row{}, false, errNotObject
	}

	album := track.Get("album")
	return Row{
		Name:        str(track.Get("name")),
		Artists:     artists(track.Get("artists")),
		Album:       str(album.Get("name")),
		URI:         str(track.Get("uri")),
		ReleaseDate: str(album.Get("release_date")),
	}, true, nil
}

// AlbumRow extracts a row from a saved-album item. The album column is
// always "-".
func AlbumRow(item json.RawMessage) (Row, error) {
	parsed, err := object(item)
	if err != nil {
		return Row{}, err
	}

	album := parsed.Get("album")
	if !album.IsObject() {
		return Row{}, errMissingAlbum
	}

	return Row{
		Name:        str(album.Get("name")),
		Artists:     artists(album.Get("artists")),
		Album:       "-",
		URI:         str(album.Get("uri")),
		ReleaseDate: str(album.Get("release_date")),
	}, nil
}

func object(item json.RawMessage) (gjson.Result, error) {
	if !gjson.ValidBytes(item) {
		return gjson.Result{}, errNotObject
	}
	parsed := gjson.ParseBytes(item)
	if !parsed.IsObject() {
		return gjson.Result{}, errNotObject
	}
	return parsed, nil
}

func isEmpty(r gjson.Result) bool {
	if r.Type == gjson.Null {
		return true
	}
	if r.IsObject() {
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

func str(r gjson.Result) string {
	if !r.Exists() || r.Type == gjson.Null {
		return unknown
	}
	return r.String()
}

func artists(r gjson.Result) string {
	var names []string
	for _, artist := range r.Array() {
		names = append(names, str(artist.Get("name")))
	}
	return strings.Join(names, ", ")
}
