// Package tagmatch decides which tactics belong to a playlist. Playlists and
// tactics are joined only by tags: a tactic belongs to a playlist when it
// carries at least two of the playlist's first three tags.
package tagmatch

import "github.com/tactics-catalog/internal/domain"

const (
	// KeySize is the number of leading playlist tags used as the match key.
	KeySize = 3

	// MinMatches is the overlap a tactic needs to be kept.
	MinMatches = 2
)

// Result describes the overlap between a playlist key and a tactic's tags
type Result struct {
	MatchCount     int  `json:"matchCount"`
	IsPerfectMatch bool `json:"isPerfectMatch"`
}

// Key returns the playlist tags used for matching and whether there are
// enough of them.
func Key(playlistTags []string) ([]string, bool) {
	if len(playlistTags) < KeySize {
		return nil, false
	}
	return playlistTags[:KeySize], true
}

// Match counts how many key tags appear in tacticTags. Each key tag is
// tested for membership, so duplicates in tacticTags count once.
func Match(key, tacticTags []string) Result {
	set := make(map[string]struct{}, len(tacticTags))
	for _, tag := range tacticTags {
		set[tag] = struct{}{}
	}

	count := 0
	for _, tag := range key {
		if _, ok := set[tag]; ok {
			count++
		}
	}

	return Result{
		MatchCount:     count,
		IsPerfectMatch: len(key) == KeySize && count == KeySize,
	}
}

// Filter returns the tactics of the playlist's implicit set in input order,
// each annotated with its match result. A playlist with fewer than three
// tags has no set.
func Filter(playlist domain.TacticsPlaylist, tactics []domain.Tactic) []domain.MatchedTactic {
	key, ok := Key(playlist.Tags)
	if !ok {
		return []domain.MatchedTactic{}
	}

	matched := make([]domain.MatchedTactic, 0, len(tactics))
	for _, tactic := range tactics {
		res := Match(key, tactic.Tags)
		if res.MatchCount < MinMatches {
			continue
		}
		matched = append(matched, domain.MatchedTactic{
			Tactic:         tactic,
			MatchCount:     res.MatchCount,
			IsPerfectMatch: res.IsPerfectMatch,
		})
	}
	return matched
}
