package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/kafka"
	"github.com/tactics-catalog/internal/tagmatch"
)

func TestDemoRecords_AreValidAndMatchable(t *testing.T) {
	records := demoRecords(10)
	require.Len(t, records, len(demoStyles)+10)

	decoder := kafka.NewRecordDecoder()
	var playlists []domain.TacticsPlaylist
	var tactics []domain.Tactic
	for _, r := range records {
		require.NoError(t, decoder.Validate(r))
		switch r.Kind {
		case domain.RecordKindPlaylist:
			playlists = append(playlists, *r.Playlist)
		case domain.RecordKindTactic:
			tactics = append(tactics, *r.Tactic)
		}
	}

	matched := tagmatch.Filter(playlists[0], tactics)
	require.NotEmpty(t, matched)
	var perfect, partial int
	for _, m := range matched {
		if m.IsPerfectMatch {
			perfect++
		} else {
			partial++
		}
	}
	assert.Positive(t, perfect)
	assert.Positive(t, partial)
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	data, err := json.Marshal(demoRecords(2))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	records, err := loadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records, len(demoStyles)+2)

	_, err = loadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Low block", displayName("low-block"))
	assert.Equal(t, "", displayName(""))
}
