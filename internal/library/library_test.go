package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/jfmyers9/spotify-backup/pkg/spotify"
	"github.com/rs/zerolog"
)

// listCall records one List invocation
type listCall struct {
	path   string
	params string
}

// fakeLister serves canned collections keyed by path
type fakeLister struct {
	user        *spotify.User
	collections map[string][]json.RawMessage
	failPath    string
	calls       []listCall
}

func (f *fakeLister) Me(ctx context.Context) (*spotify.User, error) {
	if f.user == nil {
		return nil, spotify.ErrRetriesExhausted
	}
	return f.user, nil
}

func (f *fakeLister) List(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	f.calls = append(f.calls, listCall{path: path, params: params.Encode()})
	if path == f.failPath {
		return nil, &spotify.FetchError{URL: path, Attempts: 3, Err: errors.New("boom")}
	}
	return f.collections[path], nil
}

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = json.RawMessage(item)
	}
	return out
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		user: &spotify.User{ID: "user 1", DisplayName: "Test User"},
		collections: map[string][]json.RawMessage{
			"me/tracks": raws(`{"track":{"name":"Liked 1"}}`, `{"track":{"name":"Liked 2"}}`),
			"me/albums": raws(`{"album":{"name":"Album 1"}}`),
			"users/user%201/playlists": raws(
				`{"name":"Road Trip","id":"p1","tracks":{"href":"https://api.spotify.com/v1/playlists/p1/tracks","total":2}}`,
				`{"name":"Focus","id":"p2","tracks":{"href":"https://api.spotify.com/v1/playlists/p2/tracks","total":1}}`,
			),
			"https://api.spotify.com/v1/playlists/p1/tracks": raws(`{"track":{"name":"A"}}`, `{"track":{"name":"B"}}`),
			"https://api.spotify.com/v1/playlists/p2/tracks": raws(`{"track":{"name":"C"}}`),
		},
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input   string
		want    Selection
		wantErr bool
	}{
		{input: "playlists", want: Selection{Playlists: true}},
		{input: "liked", want: Selection{Liked: true}},
		{input: "liked,playlists", want: Selection{Liked: true, Playlists: true}},
		{input: "playlists,liked", want: Selection{Liked: true, Playlists: true}},
		{input: "playlists, liked", want: Selection{Liked: true, Playlists: true}},
		{input: "", wantErr: true},
		{input: "albums", wantErr: true},
		{input: "liked,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSelection(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSelection(%q) = %+v, expected %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Run("liked and playlists", func(t *testing.T) {
		lister := newFakeLister()
		builder := NewBuilder(lister, zerolog.Nop())

		lib, err := builder.Build(context.Background(), Selection{Liked: true, Playlists: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if lib.User.ID != "user 1" {
			t.Errorf("expected user id %q, got %q", "user 1", lib.User.ID)
		}

		var names []string
		for _, p := range lib.Playlists {
			names = append(names, p.Name)
		}
		wantNames := []string{LikedSongsName, "Road Trip", "Focus"}
		if !reflect.DeepEqual(names, wantNames) {
			t.Errorf("expected playlists %v, got %v", wantNames, names)
		}

		if got := len(lib.Playlists[0].Tracks); got != 2 {
			t.Errorf("expected 2 liked tracks, got %d", got)
		}
		if got := len(lib.Playlists[1].Tracks); got != 2 {
			t.Errorf("expected 2 tracks in Road Trip, got %d", got)
		}
		if got := len(lib.Albums); got != 1 {
			t.Errorf("expected 1 album, got %d", got)
		}

		wantCalls := []listCall{
			{path: "me/tracks", params: "limit=50"},
			{path: "me/albums", params: "limit=50"},
			{path: "users/user%201/playlists", params: "limit=50"},
			{path: "https://api.spotify.com/v1/playlists/p1/tracks", params: "limit=100"},
			{path: "https://api.spotify.com/v1/playlists/p2/tracks", params: "limit=100"},
		}
		if !reflect.DeepEqual(lister.calls, wantCalls) {
			t.Errorf("unexpected calls:\n got  %v\n want %v", lister.calls, wantCalls)
		}
	})

	t.Run("playlists only", func(t *testing.T) {
		lister := newFakeLister()
		lib, err := NewBuilder(lister, zerolog.Nop()).Build(context.Background(), Selection{Playlists: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(lib.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(lib.Playlists))
		}
		if lib.Albums != nil {
			t.Errorf("expected no albums, got %d", len(lib.Albums))
		}
		for _, call := range lister.calls {
			if call.path == "me/tracks" || call.path == "me/albums" {
				t.Errorf("unexpected call to %s", call.path)
			}
		}
	})

	t.Run("playlist without tracks link", func(t *testing.T) {
		lister := newFakeLister()
		lister.collections["users/user%201/playlists"] = raws(`{"name":"Broken"}`, `null`)

		lib, err := NewBuilder(lister, zerolog.Nop()).Build(context.Background(), Selection{Playlists: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lib.Playlists) != 1 || lib.Playlists[0].Name != "Broken" {
			t.Fatalf("expected only the Broken playlist, got %+v", lib.Playlists)
		}
		if len(lib.Playlists[0].Tracks) != 0 {
			t.Errorf("expected no tracks, got %d", len(lib.Playlists[0].Tracks))
		}
	})

	t.Run("fetch failure aborts", func(t *testing.T) {
		lister := newFakeLister()
		lister.failPath = "https://api.spotify.com/v1/playlists/p1/tracks"

		lib, err := NewBuilder(lister, zerolog.Nop()).Build(context.Background(), Selection{Liked: true, Playlists: true})
		if !errors.Is(err, spotify.ErrRetriesExhausted) {
			t.Fatalf("expected ErrRetriesExhausted, got %v", err)
		}
		if lib != nil {
			t.Error("expected no library on failure")
		}

		// Nothing is requested after the failed collection.
		last := lister.calls[len(lister.calls)-1]
		if last.path != lister.failPath {
			t.Errorf("expected last call to %s, got %s", lister.failPath, last.path)
		}
	})

	t.Run("user info failure", func(t *testing.T) {
		lister := newFakeLister()
		lister.user = nil

		_, err := NewBuilder(lister, zerolog.Nop()).Build(context.Background(), Selection{Playlists: true})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if len(lister.calls) != 0 {
			t.Errorf("expected no list calls, got %d", len(lister.calls))
		}
	})
}

func TestPlaylist_MarshalJSON(t *testing.T) {
	raw := json.RawMessage(`{"name":"Road Trip","id":"p1","public":false,"tracks":{"href":"x","total":2}}`)
	playlist, err := NewPlaylist(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	playlist.Tracks = raws(`{"track":{"name":"A"}}`)

	data, err := json.Marshal(playlist)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if decoded["id"] != "p1" {
		t.Errorf("expected id p1, got %v", decoded["id"])
	}
	if decoded["public"] != false {
		t.Errorf("expected public false, got %v", decoded["public"])
	}
	tracks, ok := decoded["tracks"].([]interface{})
	if !ok {
		t.Fatalf("expected tracks to be a list, got %T", decoded["tracks"])
	}
	if len(tracks) != 1 {
		t.Errorf("expected 1 track, got %d", len(tracks))
	}

	// Keys keep the API's order rather than being sorted.
	expected := `{"name":"Road Trip","id":"p1","public":false,"tracks":[{"track":{"name":"A"}}]}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}

	// A synthetic playlist has only a name and tracks.
	data, err = json.Marshal(Playlist{Name: LikedSongsName})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(data) != `{"name":"Liked Songs","tracks":[]}` {
		t.Errorf("unexpected JSON %s", data)
	}
}
