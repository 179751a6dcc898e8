package domain

import "time"

// PlaylistImage is the optional cover of a playlist
type PlaylistImage struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt,omitempty"`
}

// TacticsPlaylist is a curated collection of tactics. Its first three tags
// are the key tactics are matched against.
type TacticsPlaylist struct {
	ID             string         `json:"id" validate:"required"`
	Title          string         `json:"title" validate:"required"`
	Description    string         `json:"description"`
	TacticalPreset string         `json:"tacticalpreset"`
	Decade         int            `json:"decade"`
	Image          *PlaylistImage `json:"image,omitempty" validate:"omitempty"`
	Formations     []string       `json:"formations,omitempty"`
	Tags           []string       `json:"tags"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PlaylistPage is a playlist together with the tactics matched to it
type PlaylistPage struct {
	Playlist TacticsPlaylist `json:"playlist"`
	Tactics  []MatchedTactic `json:"tactics"`
	Liked    bool            `json:"liked"`
	Likes    int64           `json:"likes"`
}

// PopularPlaylist is a playlist with its like count
type PopularPlaylist struct {
	TacticsPlaylist
	Likes int64 `json:"likes"`
}

// HomeSections groups the collections shown on the landing page
type HomeSections struct {
	Featured []Tactic          `json:"featured"`
	Recent   []TacticsPlaylist `json:"recent"`
	Popular  []PopularPlaylist `json:"popular"`
}

// StyleResults lists everything carrying one tag
type StyleResults struct {
	Tag       string            `json:"tag"`
	Playlists []TacticsPlaylist `json:"playlists"`
	Tactics   []Tactic          `json:"tactics"`
}

// SearchResults holds the outcome of one search dispatch. Seq orders
// dispatches of a live search session; Error carries the text of a failed
// sub-search.
type SearchResults struct {
	Seq       uint64            `json:"seq,omitempty"`
	Query     string            `json:"query"`
	Playlists []TacticsPlaylist `json:"playlists"`
	Tactics   []Tactic          `json:"tactics"`
	Error     string            `json:"error,omitempty"`
}

// PlaylistLikes is a playlist id paired with its like count
type PlaylistLikes struct {
	PlaylistID string `json:"playlist_id"`
	Likes      int64  `json:"likes"`
}

// LikeState is a device's like state for one playlist after a toggle or lookup
type LikeState struct {
	PlaylistID string `json:"playlist_id"`
	Liked      bool   `json:"liked"`
	Likes      int64  `json:"likes"`
}
