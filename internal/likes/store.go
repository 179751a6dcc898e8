// Package likes keeps the set of playlists a device has liked. The set lives
// in memory and is mirrored to a Storage slot that is read when the store is
// opened and rewritten on every toggle.
package likes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tactics-catalog/internal/domain"
)

// DefaultNamespace is the storage slot name liked sets are kept under
const DefaultNamespace = "liked-tactics-storage"

// Storage is the persistence port of a Store. Get returns nil, nil when the
// slot has never been written.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// snapshot is the persisted form of a liked set
type snapshot struct {
	State struct {
		LikedTactics []domain.TacticsPlaylist `json:"likedTactics"`
	} `json:"state"`
	Version int `json:"version"`
}

// Store holds one liked set
type Store struct {
	storage Storage
	key     string
	logger  *slog.Logger

	mu    sync.RWMutex
	items []domain.TacticsPlaylist
}

// Open reads the liked set stored under key. An unreadable payload yields an
// empty set; only a storage failure is returned as an error.
func Open(ctx context.Context, storage Storage, key string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		storage: storage,
		key:     key,
		logger:  logger,
		items:   []domain.TacticsPlaylist{},
	}

	data, err := storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading liked set: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("discarding unreadable liked set", "key", key, "error", err)
		return s, nil
	}

	seen := make(map[string]bool, len(snap.State.LikedTactics))
	for _, p := range snap.State.LikedTactics {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		s.items = append(s.items, p)
	}
	return s, nil
}

// Toggle removes the playlist if it is liked and appends it otherwise. It
// returns whether the playlist is liked afterwards. The whole set is written
// back to storage; a failed write is logged and not reported.
func (s *Store) Toggle(ctx context.Context, playlist domain.TacticsPlaylist) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(playlist.ID)
	liked := idx < 0
	if liked {
		s.items = append(s.items, playlist)
	} else {
		next := make([]domain.TacticsPlaylist, 0, len(s.items)-1)
		next = append(next, s.items[:idx]...)
		next = append(next, s.items[idx+1:]...)
		s.items = next
	}

	s.persist(ctx)
	return liked
}

// IsLiked reports whether a playlist with the given id is in the set
func (s *Store) IsLiked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Items returns a copy of the liked set in the order playlists were liked
func (s *Store) Items() []domain.TacticsPlaylist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TacticsPlaylist, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of liked playlists
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the current set. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	var snap snapshot
	snap.State.LikedTactics = s.items

	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("failed to encode liked set", "key", s.key, "error", err)
		return
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("failed to persist liked set", "key", s.key, "error", err)
	}
}
