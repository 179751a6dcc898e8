package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tactics-catalog/internal/domain"
)

type call struct {
	pattern string
	limit   int
}

type fakeRepository struct {
	mu            sync.Mutex
	playlistCalls []call
	tacticCalls   []call
	playlists     []domain.TacticsPlaylist
	tactics       []domain.Tactic
	playlistErr   error
	tacticErr     error
}

func (r *fakeRepository) SearchPlaylists(_ context.Context, pattern string, limit int) ([]domain.TacticsPlaylist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playlistCalls = append(r.playlistCalls, call{pattern, limit})
	return r.playlists, r.playlistErr
}

func (r *fakeRepository) SearchTactics(_ context.Context, pattern string, limit int) ([]domain.Tactic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tacticCalls = append(r.tacticCalls, call{pattern, limit})
	return r.tactics, r.tacticErr
}

func TestPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"press", "%press%"},
		{"100%", `%100\%%`},
		{"high_press", `%high\_press%`},
		{`back\slash`, `%back\\slash%`},
		{"", "%%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pattern(tt.in), tt.in)
	}
}

func TestCatalogSearcher_DispatchesBothSearches(t *testing.T) {
	repo := &fakeRepository{
		playlists: []domain.TacticsPlaylist{{ID: "p1"}},
		tactics:   []domain.Tactic{{ID: "t1"}, {ID: "t2"}},
	}
	s := NewCatalogSearcher(repo, 0, 0, testLogger())

	res := s.Search(context.Background(), "Barça")

	assert.Equal(t, []call{{"%Barça%", DefaultPlaylistLimit}}, repo.playlistCalls)
	assert.Equal(t, []call{{"%Barça%", DefaultTacticLimit}}, repo.tacticCalls)
	assert.Len(t, res.Playlists, 1)
	assert.Len(t, res.Tactics, 2)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Barça", res.Query)
}

func TestCatalogSearcher_CustomLimits(t *testing.T) {
	repo := &fakeRepository{}
	s := NewCatalogSearcher(repo, 2, 3, testLogger())
	s.Search(context.Background(), "x")

	require.Len(t, repo.playlistCalls, 1)
	assert.Equal(t, 2, repo.playlistCalls[0].limit)
	assert.Equal(t, 3, repo.tacticCalls[0].limit)
}

func TestCatalogSearcher_BlankQuery(t *testing.T) {
	repo := &fakeRepository{}
	s := NewCatalogSearcher(repo, 0, 0, testLogger())

	res := s.Search(context.Background(), "  ")
	assert.Empty(t, repo.playlistCalls)
	assert.Empty(t, repo.tacticCalls)
	assert.NotNil(t, res.Playlists)
	assert.NotNil(t, res.Tactics)
}

func TestCatalogSearcher_PartialFailure(t *testing.T) {
	repo := &fakeRepository{
		playlistErr: errors.New("relation does not exist"),
		tactics:     []domain.Tactic{{ID: "t1"}},
	}
	s := NewCatalogSearcher(repo, 0, 0, testLogger())

	res := s.Search(context.Background(), "press")
	assert.Empty(t, res.Playlists)
	assert.NotNil(t, res.Playlists)
	assert.Len(t, res.Tactics, 1)
	assert.Contains(t, res.Error, "searching playlists")
	assert.Contains(t, res.Error, "relation does not exist")
}

func TestCatalogSearcher_NilResultsBecomeEmpty(t *testing.T) {
	s := NewCatalogSearcher(&fakeRepository{}, 0, 0, testLogger())
	res := s.Search(context.Background(), "press")
	assert.NotNil(t, res.Playlists)
	assert.NotNil(t, res.Tactics)
}
