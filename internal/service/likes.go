package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/likes"
)

// PlaylistGetter fetches a single playlist
type PlaylistGetter interface {
	GetPlaylist(ctx context.Context, playlistID string) (*domain.TacticsPlaylist, error)
}

// LikeNotifier pushes like count changes to subscribed clients
type LikeNotifier interface {
	BroadcastLikeUpdate(playlistID string, likes int64)
}

// LikeService manages per-device liked sets and playlist like counts
type LikeService struct {
	repo       PlaylistGetter
	likes      *likes.Registry
	popularity Popularity
	notifier   LikeNotifier
	logger     *slog.Logger
}

// NewLikeService creates a new like service. notifier may be nil.
func NewLikeService(
	repo PlaylistGetter,
	registry *likes.Registry,
	popularity Popularity,
	notifier LikeNotifier,
	logger *slog.Logger,
) *LikeService {
	return &LikeService{
		repo:       repo,
		likes:      registry,
		popularity: popularity,
		notifier:   notifier,
		logger:     logger,
	}
}

// Toggle flips the liked state of a playlist for a device
func (s *LikeService) Toggle(ctx context.Context, deviceID, playlistID string) (*domain.LikeState, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}

	store, err := s.likes.Store(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("opening liked store: %w", err)
	}

	// A liked playlist is unliked from the stored copy so entries for
	// playlists removed from the catalog can still be dropped.
	playlist, ok := findItem(store.Items(), playlistID)
	if !ok {
		fetched, err := s.repo.GetPlaylist(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("getting playlist: %w", err)
		}
		playlist = *fetched
	}

	liked := store.Toggle(ctx, playlist)
	state := &domain.LikeState{PlaylistID: playlistID, Liked: liked}

	delta := int64(-1)
	if liked {
		delta = 1
	}
	count, err := s.popularity.IncrementLikes(ctx, playlistID, delta)
	if err != nil {
		s.logger.Warn("failed to update playlist likes", "playlist_id", playlistID, "error", err)
		return state, nil
	}
	state.Likes = count

	if s.notifier != nil {
		s.notifier.BroadcastLikeUpdate(playlistID, count)
	}

	s.logger.Debug("toggled like",
		"device_id", deviceID,
		"playlist_id", playlistID,
		"liked", liked,
		"likes", count,
	)
	return state, nil
}

// IsLiked reports a device's like state for a playlist
func (s *LikeService) IsLiked(ctx context.Context, deviceID, playlistID string) (*domain.LikeState, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}

	store, err := s.likes.Store(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("opening liked store: %w", err)
	}

	state := &domain.LikeState{PlaylistID: playlistID, Liked: store.IsLiked(playlistID)}
	count, err := s.popularity.GetLikes(ctx, playlistID)
	if err != nil {
		s.logger.Warn("failed to get playlist likes", "playlist_id", playlistID, "error", err)
	}
	state.Likes = count
	return state, nil
}

// List returns a device's liked playlists in the order they were liked
func (s *LikeService) List(ctx context.Context, deviceID string) ([]domain.TacticsPlaylist, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}

	store, err := s.likes.Store(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("opening liked store: %w", err)
	}
	return store.Items(), nil
}

func findItem(items []domain.TacticsPlaylist, id string) (domain.TacticsPlaylist, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.TacticsPlaylist{}, false
}
