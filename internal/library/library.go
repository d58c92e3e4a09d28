package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jfmyers9/spotify-backup/pkg/spotify"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Page sizes accepted by the API for each collection
const (
	savedPageSize         = "50"
	playlistPageSize      = "50"
	playlistTrackPageSize = "100"
)

// LikedSongsName is the name given to the synthetic playlist holding saved tracks
const LikedSongsName = "Liked Songs"

// Lister is the subset of the Spotify client the builder needs
type Lister interface {
	// Me returns the profile of the authenticated user
	Me(ctx context.Context) (*spotify.User, error)

	// List returns every item of a paginated collection in order
	List(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error)
}

// Selection says which parts of the library to export
type Selection struct {
	Liked     bool // Saved tracks and albums
	Playlists bool // The user's playlists and their tracks
}

// ParseSelection parses a --dump value: "playlists", "liked", or both
// separated by a comma in either order
func ParseSelection(s string) (Selection, error) {
	var sel Selection
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "liked":
			sel.Liked = true
		case "playlists":
			sel.Playlists = true
		default:
			return Selection{}, fmt.Errorf("invalid dump selection %q (use playlists, liked, or liked,playlists)", s)
		}
	}
	return sel, nil
}

// Library is everything fetched for one export
type Library struct {
	User      *spotify.User
	Playlists []Playlist
	Albums    []json.RawMessage
}

// Playlist is a playlist record with its tracks resolved.
//
// Fields of the original record are kept verbatim and in order; only
// "tracks" is replaced by the full item list when marshalled.
type Playlist struct {
	Name   string
	Tracks []json.RawMessage
	raw    json.RawMessage
}

// NewPlaylist wraps a playlist record returned by the API
func NewPlaylist(raw json.RawMessage) (Playlist, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Playlist{}, fmt.Errorf("failed to decode playlist: %w", err)
	}
	if fields == nil {
		return Playlist{}, fmt.Errorf("playlist record is null")
	}

	return Playlist{
		Name: gjson.GetBytes(raw, "name").String(),
		raw:  raw,
	}, nil
}

// Record returns the playlist record as the API sent it, or nil for
// the synthetic liked songs playlist
func (p Playlist) Record() json.RawMessage {
	return p.raw
}

// MarshalJSON writes the original record with "tracks" set to the item
// list. Keys keep the order the API sent them in.
func (p Playlist) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(p.Name)
	if err != nil {
		return nil, err
	}

	tracks := p.Tracks
	if tracks == nil {
		tracks = []json.RawMessage{}
	}
	trackList, err := json.Marshal(tracks)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	write := func(key string, value []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		encoded, _ := json.Marshal(key)
		buf.Write(encoded)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('{')
	hasName, hasTracks := false, false
	gjson.ParseBytes(p.raw).ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "name":
			write("name", name)
			hasName = true
		case "tracks":
			write("tracks", trackList)
			hasTracks = true
		default:
			write(key.String(), []byte(value.Raw))
		}
		return true
	})
	if !hasName {
		write("name", name)
	}
	if !hasTracks {
		write("tracks", trackList)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Builder fetches a library through a Lister
type Builder struct {
	lister Lister
	logger zerolog.Logger
}

// NewBuilder creates a new Builder instance
func NewBuilder(lister Lister, logger zerolog.Logger) *Builder {
	return &Builder{
		lister: lister,
		logger: logger.With().Str("component", "library").Logger(),
	}
}

// Build fetches the user profile and the selected collections.
//
// Any fetch error aborts the whole build; a partial library is never
// returned.
func (b *Builder) Build(ctx context.Context, sel Selection) (*Library, error) {
	b.logger.Info().Msg("Loading user info...")
	me, err := b.lister.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user info: %w", err)
	}
	b.logger.Info().Msgf("Logged in as %s (%s)", me.DisplayName, me.ID)

	lib := &Library{User: me}

	if sel.Liked {
		b.logger.Info().Msg("Loading liked albums and songs...")

		tracks, err := b.lister.List(ctx, "me/tracks", url.Values{"limit": {savedPageSize}})
		if err != nil {
			return nil, fmt.Errorf("failed to load liked songs: %w", err)
		}

		albums, err := b.lister.List(ctx, "me/albums", url.Values{"limit": {savedPageSize}})
		if err != nil {
			return nil, fmt.Errorf("failed to load liked albums: %w", err)
		}

		lib.Playlists = append(lib.Playlists, Playlist{Name: LikedSongsName, Tracks: tracks})
		lib.Albums = albums
	}

	if sel.Playlists {
		playlists, err := b.playlists(ctx, me.ID)
		if err != nil {
			return nil, err
		}
		lib.Playlists = append(lib.Playlists, playlists...)
	}

	return lib, nil
}

// playlists loads the user's playlists and the tracks of each
func (b *Builder) playlists(ctx context.Context, userID string) ([]Playlist, error) {
	b.logger.Info().Msg("Loading playlists...")

	path := "users/" + url.PathEscape(userID) + "/playlists"
	records, err := b.lister.List(ctx, path, url.Values{"limit": {playlistPageSize}})
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}
	b.logger.Info().Msgf("Found %d playlists", len(records))

	playlists := make([]Playlist, 0, len(records))
	for i, raw := range records {
		playlist, err := NewPlaylist(raw)
		if err != nil {
			b.logger.Warn().Err(err).Int("index", i).Msg("Skipping playlist")
			continue
		}

		href := gjson.GetBytes(raw, "tracks.href").String()
		total := gjson.GetBytes(raw, "tracks.total").Int()
		b.logger.Info().Msgf("Loading playlist: %s (%d songs)", playlist.Name, total)

		if href == "" {
			b.logger.Warn().Str("playlist", playlist.Name).Msg("Playlist has no tracks link, exporting it without tracks")
			playlists = append(playlists, playlist)
			continue
		}

		tracks, err := b.lister.List(ctx, href, url.Values{"limit": {playlistTrackPageSize}})
		if err != nil {
			return nil, fmt.Errorf("failed to load playlist %q: %w", playlist.Name, err)
		}
		playlist.Tracks = tracks
		playlists = append(playlists, playlist)
	}

	return playlists, nil
}
