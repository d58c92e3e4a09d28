package spotify

import (
	"encoding/json"
)

// Page is one page of a cursor-paginated collection.
//
// Items are left as raw JSON: tracks, albums and playlists pass through
// the client untouched. Next is empty on the last page. Total is what
// the server reported for the first page and may drift during a walk.
type Page struct {
	Items []json.RawMessage `json:"items"`
	Next  string            `json:"next"`
	Total int               `json:"total"`
}

// User is the subset of the /me profile the client needs, plus the
// full record as returned by the API.
type User struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Raw         json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps a copy of the record.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	u.Raw = append(json.RawMessage(nil), data...)
	return nil
}
