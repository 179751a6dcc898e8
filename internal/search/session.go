package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tactics-catalog/internal/domain"
)

// Session is a live search fed by successive input values. Input is
// debounced; every dispatched search gets a sequence number and only the
// response of the latest one is delivered.
type Session struct {
	debouncer *Debouncer
	searcher  Searcher
	deliver   func(domain.SearchResults)
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewSession creates a session delivering results through deliver. deliver
// is never called concurrently with itself.
func NewSession(
	ctx context.Context,
	searcher Searcher,
	debouncer *Debouncer,
	deliver func(domain.SearchResults),
	logger *slog.Logger,
) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		debouncer: debouncer,
		searcher:  searcher,
		deliver:   deliver,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Input handles a new value of the search box. Blank input clears results
// at once without searching.
func (s *Session) Input(query string) {
	if strings.TrimSpace(query) == "" {
		s.debouncer.Cancel()
		s.clear(query)
		return
	}
	s.debouncer.Trigger(func() {
		s.dispatch(query)
	})
}

func (s *Session) clear(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	s.deliver(domain.SearchResults{
		Seq:       s.seq,
		Query:     query,
		Playlists: []domain.TacticsPlaylist{},
		Tactics:   []domain.Tactic{},
	})
}

func (s *Session) dispatch(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	res := s.searcher.Search(s.ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		s.logger.Debug("dropping stale search response", "query", query, "seq", seq)
		return
	}
	res.Seq = seq
	s.deliver(res)
}

// Close stops pending dispatches and waits for in-flight searches
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.cancel()
	s.wg.Wait()
}
