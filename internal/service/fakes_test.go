package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/likes"
)

type fakeRepository struct {
	playlists   []domain.TacticsPlaylist
	tactics     []domain.Tactic
	err         error
	tacticCalls int
}

func (f *fakeRepository) GetPlaylist(_ context.Context, playlistID string) (*domain.TacticsPlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.playlists {
		if p.ID == playlistID {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrPlaylistNotFound
}

func (f *fakeRepository) GetPlaylistsByIDs(_ context.Context, ids []string) ([]domain.TacticsPlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []domain.TacticsPlaylist{}
	for _, p := range f.playlists {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListPlaylists(_ context.Context, limit int) ([]domain.TacticsPlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.playlists) {
		limit = len(f.playlists)
	}
	return append([]domain.TacticsPlaylist{}, f.playlists[:limit]...), nil
}

func (f *fakeRepository) ListPlaylistsByTag(_ context.Context, tag string) ([]domain.TacticsPlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.TacticsPlaylist{}
	for _, p := range f.playlists {
		for _, t := range p.Tags {
			if t == tag {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) ListTactics(_ context.Context) ([]domain.Tactic, error) {
	f.tacticCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tactics, nil
}

func (f *fakeRepository) ListVerifiedTactics(_ context.Context, limit int) ([]domain.Tactic, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Tactic{}
	for _, t := range f.tactics {
		if t.Verified && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListTacticsByTag(_ context.Context, tag string) ([]domain.Tactic, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Tactic{}
	for _, t := range f.tactics {
		if t.HasTag(tag) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakePopularity struct {
	mu     sync.Mutex
	counts map[string]int64
	top    []domain.PlaylistLikes
	err    error
}

func newFakePopularity() *fakePopularity {
	return &fakePopularity{counts: make(map[string]int64)}
}

func (f *fakePopularity) IncrementLikes(_ context.Context, playlistID string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[playlistID] += delta
	return f.counts[playlistID], nil
}

func (f *fakePopularity) GetLikes(_ context.Context, playlistID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[playlistID], nil
}

func (f *fakePopularity) TopPlaylists(_ context.Context, n int) ([]domain.PlaylistLikes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.top) {
		n = len(f.top)
	}
	return f.top[:n], nil
}

type memoryStorage struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{slots: make(map[string][]byte)}
}

func (m *memoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[key], nil
}

func (m *memoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), value...)
	return nil
}

type fakeSearcher struct {
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) domain.SearchResults {
	f.queries = append(f.queries, query)
	return domain.SearchResults{
		Query:     query,
		Playlists: []domain.TacticsPlaylist{},
		Tactics:   []domain.Tactic{},
	}
}

type likeUpdate struct {
	playlistID string
	likes      int64
}

type recordingNotifier struct {
	updates []likeUpdate
}

func (r *recordingNotifier) BroadcastLikeUpdate(playlistID string, likes int64) {
	r.updates = append(r.updates, likeUpdate{playlistID: playlistID, likes: likes})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalogConfig() *config.CatalogConfig {
	return &config.DefaultConfig().Catalog
}

func newRegistry() *likes.Registry {
	return likes.NewRegistry(newMemoryStorage(), "", 0, testLogger())
}

func tactic(id string, verified bool, tags ...string) domain.Tactic {
	return domain.Tactic{ID: id, TacticName: "Tactic " + id, Verified: verified, Tags: tags}
}

func tacticsPlaylist(id string, tags ...string) domain.TacticsPlaylist {
	return domain.TacticsPlaylist{ID: id, Title: "Playlist " + id, Tags: tags}
}
