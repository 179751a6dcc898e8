package domain

// RecordKind identifies the payload of a catalog record
type RecordKind string

const (
	RecordKindTactic   RecordKind = "tactic"
	RecordKindPlaylist RecordKind = "playlist"
)

// CatalogRecord is a single catalog change delivered through ingestion
type CatalogRecord struct {
	Kind     RecordKind       `json:"kind"`
	Tactic   *Tactic          `json:"tactic,omitempty"`
	Playlist *TacticsPlaylist `json:"playlist,omitempty"`
}

// ID returns the id of the wrapped tactic or playlist
func (r *CatalogRecord) ID() string {
	switch r.Kind {
	case RecordKindTactic:
		if r.Tactic != nil {
			return r.Tactic.ID
		}
	case RecordKindPlaylist:
		if r.Playlist != nil {
			return r.Playlist.ID
		}
	}
	return ""
}

// StaticPage is one of the fixed informational pages
type StaticPage struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Body  string `json:"body"`
}
