package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tactics-catalog/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPlaylistLimit caps playlist matches per search
	DefaultPlaylistLimit = 5

	// DefaultTacticLimit caps tactic matches per search
	DefaultTacticLimit = 10
)

// Repository runs pattern searches against the catalog
type Repository interface {
	SearchPlaylists(ctx context.Context, pattern string, limit int) ([]domain.TacticsPlaylist, error)
	SearchTactics(ctx context.Context, pattern string, limit int) ([]domain.Tactic, error)
}

// Searcher dispatches the catalog searches for one query
type Searcher interface {
	Search(ctx context.Context, query string) domain.SearchResults
}

// CatalogSearcher searches playlists and tactics concurrently
type CatalogSearcher struct {
	repo          Repository
	playlistLimit int
	tacticLimit   int
	logger        *slog.Logger
}

// NewCatalogSearcher creates a searcher. Non-positive limits use defaults.
func NewCatalogSearcher(repo Repository, playlistLimit, tacticLimit int, logger *slog.Logger) *CatalogSearcher {
	if playlistLimit <= 0 {
		playlistLimit = DefaultPlaylistLimit
	}
	if tacticLimit <= 0 {
		tacticLimit = DefaultTacticLimit
	}
	return &CatalogSearcher{
		repo:          repo,
		playlistLimit: playlistLimit,
		tacticLimit:   tacticLimit,
		logger:        logger,
	}
}

// Pattern turns free text into a substring pattern, escaping the LIKE
// wildcards it contains
func Pattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}

// Search runs both searches. A failed search contributes an empty list and
// its error text; the other list is still returned.
func (s *CatalogSearcher) Search(ctx context.Context, query string) domain.SearchResults {
	res := domain.SearchResults{
		Query:     query,
		Playlists: []domain.TacticsPlaylist{},
		Tactics:   []domain.Tactic{},
	}
	if strings.TrimSpace(query) == "" {
		return res
	}

	pattern := Pattern(query)
	var playlistErr, tacticErr error

	var g errgroup.Group
	g.Go(func() error {
		playlists, err := s.repo.SearchPlaylists(ctx, pattern, s.playlistLimit)
		if err != nil {
			playlistErr = fmt.Errorf("searching playlists: %w", err)
			return nil
		}
		if playlists != nil {
			res.Playlists = playlists
		}
		return nil
	})
	g.Go(func() error {
		tactics, err := s.repo.SearchTactics(ctx, pattern, s.tacticLimit)
		if err != nil {
			tacticErr = fmt.Errorf("searching tactics: %w", err)
			return nil
		}
		if tactics != nil {
			res.Tactics = tactics
		}
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(playlistErr, tacticErr); err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		res.Error = err.Error()
	}
	return res
}
