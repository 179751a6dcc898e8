package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/likes"
	"github.com/tactics-catalog/internal/search"
	"github.com/tactics-catalog/internal/tagmatch"
	"golang.org/x/sync/errgroup"
)

// CatalogRepository is the read side of the catalog store
type CatalogRepository interface {
	GetPlaylist(ctx context.Context, playlistID string) (*domain.TacticsPlaylist, error)
	GetPlaylistsByIDs(ctx context.Context, ids []string) ([]domain.TacticsPlaylist, error)
	ListPlaylists(ctx context.Context, limit int) ([]domain.TacticsPlaylist, error)
	ListPlaylistsByTag(ctx context.Context, tag string) ([]domain.TacticsPlaylist, error)
	ListTactics(ctx context.Context) ([]domain.Tactic, error)
	ListVerifiedTactics(ctx context.Context, limit int) ([]domain.Tactic, error)
	ListTacticsByTag(ctx context.Context, tag string) ([]domain.Tactic, error)
}

// Popularity tracks how many devices like each playlist
type Popularity interface {
	IncrementLikes(ctx context.Context, playlistID string, delta int64) (int64, error)
	GetLikes(ctx context.Context, playlistID string) (int64, error)
	TopPlaylists(ctx context.Context, n int) ([]domain.PlaylistLikes, error)
}

// CatalogService provides business logic for browsing the catalog
type CatalogService struct {
	repo       CatalogRepository
	popularity Popularity
	likes      *likes.Registry
	searcher   search.Searcher
	pages      *Pages
	config     *config.CatalogConfig
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	repo CatalogRepository,
	popularity Popularity,
	registry *likes.Registry,
	searcher search.Searcher,
	pages *Pages,
	cfg *config.CatalogConfig,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:       repo,
		popularity: popularity,
		likes:      registry,
		searcher:   searcher,
		pages:      pages,
		config:     cfg,
		logger:     logger,
	}
}

// PlaylistPage returns a playlist with the tactics whose tags match it.
// deviceID may be empty, in which case the liked flag is false.
func (s *CatalogService) PlaylistPage(ctx context.Context, deviceID, playlistID string) (*domain.PlaylistPage, error) {
	playlist, err := s.repo.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("getting playlist: %w", err)
	}

	tactics, err := s.repo.ListTactics(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tactics: %w", err)
	}

	page := &domain.PlaylistPage{
		Playlist: *playlist,
		Tactics:  tagmatch.Filter(*playlist, tactics),
	}
	for i := range page.Tactics {
		page.Tactics[i].Positions = page.Tactics[i].DisplayPositions()
	}

	if _, ok := tagmatch.Key(playlist.Tags); !ok {
		s.logger.Debug("playlist has too few tags to match",
			"playlist_id", playlistID,
			"tags", len(playlist.Tags),
		)
	}

	if deviceID != "" {
		store, err := s.likes.Store(ctx, deviceID)
		if err != nil {
			s.logger.Warn("failed to open liked store", "device_id", deviceID, "error", err)
		} else {
			page.Liked = store.IsLiked(playlistID)
		}
	}

	count, err := s.popularity.GetLikes(ctx, playlistID)
	if err != nil {
		s.logger.Warn("failed to get playlist likes", "playlist_id", playlistID, "error", err)
	}
	page.Likes = count

	return page, nil
}

// Search runs a one-shot catalog search
func (s *CatalogService) Search(ctx context.Context, query string) domain.SearchResults {
	return s.searcher.Search(ctx, query)
}

// Home returns the landing page sections
func (s *CatalogService) Home(ctx context.Context) (*domain.HomeSections, error) {
	size := s.config.HomeSectionSize
	home := &domain.HomeSections{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		featured, err := s.repo.ListVerifiedTactics(gctx, size)
		if err != nil {
			return fmt.Errorf("listing featured tactics: %w", err)
		}
		home.Featured = featured
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.ListPlaylists(gctx, size)
		if err != nil {
			return fmt.Errorf("listing recent playlists: %w", err)
		}
		home.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	home.Popular = s.popular(ctx, size, home.Recent)
	return home, nil
}

// popular ranks playlists by like count, falling back to recent playlists
// when nothing has been liked yet or popularity is unavailable.
func (s *CatalogService) popular(ctx context.Context, size int, fallback []domain.TacticsPlaylist) []domain.PopularPlaylist {
	top, err := s.popularity.TopPlaylists(ctx, size)
	if err != nil {
		s.logger.Warn("failed to get top playlists", "error", err)
		top = nil
	}

	if len(top) > 0 {
		ids := make([]string, len(top))
		for i, entry := range top {
			ids[i] = entry.PlaylistID
		}
		playlists, err := s.repo.GetPlaylistsByIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to get popular playlists", "error", err)
		} else if ranked := rankPlaylists(top, playlists); len(ranked) > 0 {
			return ranked
		}
	}

	popular := make([]domain.PopularPlaylist, len(fallback))
	for i, p := range fallback {
		popular[i] = domain.PopularPlaylist{TacticsPlaylist: p}
	}
	return popular
}

// rankPlaylists orders playlists by the ranking in top, skipping ids that no
// longer exist in the catalog.
func rankPlaylists(top []domain.PlaylistLikes, playlists []domain.TacticsPlaylist) []domain.PopularPlaylist {
	byID := make(map[string]domain.TacticsPlaylist, len(playlists))
	for _, p := range playlists {
		byID[p.ID] = p
	}

	ranked := make([]domain.PopularPlaylist, 0, len(top))
	for _, entry := range top {
		p, ok := byID[entry.PlaylistID]
		if !ok {
			continue
		}
		ranked = append(ranked, domain.PopularPlaylist{TacticsPlaylist: p, Likes: entry.Likes})
	}
	return ranked
}

// Style returns the playlists and tactics carrying a tag
func (s *CatalogService) Style(ctx context.Context, tag string) (*domain.StyleResults, error) {
	if tag == "" {
		return nil, domain.ErrInvalidRequest
	}

	results := &domain.StyleResults{Tag: tag}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		playlists, err := s.repo.ListPlaylistsByTag(gctx, tag)
		if err != nil {
			return fmt.Errorf("listing playlists by tag: %w", err)
		}
		results.Playlists = playlists
		return nil
	})
	g.Go(func() error {
		tactics, err := s.repo.ListTacticsByTag(gctx, tag)
		if err != nil {
			return fmt.Errorf("listing tactics by tag: %w", err)
		}
		results.Tactics = tactics
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Page returns a static informational page
func (s *CatalogService) Page(name string) (domain.StaticPage, error) {
	return s.pages.Get(name)
}
