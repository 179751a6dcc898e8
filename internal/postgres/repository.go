package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tactics-catalog/internal/config"
	"github.com/tactics-catalog/internal/domain"
)

// Repository provides PostgreSQL-based catalog access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tactics_playlists (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tacticalpreset VARCHAR(255) NOT NULL DEFAULT '',
			decade INT NOT NULL DEFAULT 0,
			image JSONB,
			formations TEXT[],
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tactics (
			id VARCHAR(64) PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			tactic_name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			formation_id VARCHAR(64) NOT NULL DEFAULT '',
			position_id JSONB NOT NULL DEFAULT '[]',
			focuses_id TEXT[] NOT NULL DEFAULT '{}',
			role_id TEXT[] NOT NULL DEFAULT '{}',
			build_up_style TEXT NOT NULL DEFAULT '',
			defensive_approach TEXT NOT NULL DEFAULT '',
			share_code TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			club VARCHAR(255) NOT NULL DEFAULT '',
			season VARCHAR(32) NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			manager VARCHAR(255) NOT NULL DEFAULT '',
			year VARCHAR(16) NOT NULL DEFAULT '',
			clubcountry VARCHAR(128) NOT NULL DEFAULT '',
			league VARCHAR(128) NOT NULL DEFAULT '',
			tacticalpreset VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS playlist_likes (
			playlist_id VARCHAR(64) PRIMARY KEY,
			likes BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tactics_tags ON tactics USING GIN (tags)`,
		`CREATE INDEX IF NOT EXISTS idx_tactics_created ON tactics(created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_tags ON tactics_playlists USING GIN (tags)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_created ON tactics_playlists(created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// GetPlaylist retrieves a playlist by ID
func (r *Repository) GetPlaylist(ctx context.Context, playlistID string) (*domain.TacticsPlaylist, error) {
	row, err := queryRow(ctx, r.pool, getPlaylistQuery(playlistID))
	if err != nil {
		return nil, fmt.Errorf("building playlist query: %w", err)
	}

	playlist, err := scanPlaylist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("getting playlist: %w", err)
	}
	return &playlist, nil
}

// GetPlaylistsByIDs retrieves the playlists with the given IDs, in no
// particular order
func (r *Repository) GetPlaylistsByIDs(ctx context.Context, ids []string) ([]domain.TacticsPlaylist, error) {
	if len(ids) == 0 {
		return []domain.TacticsPlaylist{}, nil
	}
	playlists, err := r.queryPlaylists(ctx, playlistsByIDsQuery(ids))
	if err != nil {
		return nil, fmt.Errorf("getting playlists by ids: %w", err)
	}
	return playlists, nil
}

// ListPlaylists retrieves the most recently created playlists
func (r *Repository) ListPlaylists(ctx context.Context, limit int) ([]domain.TacticsPlaylist, error) {
	playlists, err := r.queryPlaylists(ctx, listPlaylistsQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	return playlists, nil
}

// ListPlaylistsByTag retrieves playlists carrying a tag
func (r *Repository) ListPlaylistsByTag(ctx context.Context, tag string) ([]domain.TacticsPlaylist, error) {
	playlists, err := r.queryPlaylists(ctx, playlistsByTagQuery(tag))
	if err != nil {
		return nil, fmt.Errorf("listing playlists by tag: %w", err)
	}
	return playlists, nil
}

// SearchPlaylists matches pattern against playlist titles and descriptions
func (r *Repository) SearchPlaylists(ctx context.Context, pattern string, limit int) ([]domain.TacticsPlaylist, error) {
	playlists, err := r.queryPlaylists(ctx, searchPlaylistsQuery(pattern, limit))
	if err != nil {
		return nil, fmt.Errorf("searching playlists: %w", err)
	}
	return playlists, nil
}

// ListTactics retrieves every tactic in creation order
func (r *Repository) ListTactics(ctx context.Context) ([]domain.Tactic, error) {
	tactics, err := r.queryTactics(ctx, listTacticsQuery())
	if err != nil {
		return nil, fmt.Errorf("listing tactics: %w", err)
	}
	return tactics, nil
}

// ListVerifiedTactics retrieves up to limit verified tactics
func (r *Repository) ListVerifiedTactics(ctx context.Context, limit int) ([]domain.Tactic, error) {
	tactics, err := r.queryTactics(ctx, verifiedTacticsQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("listing verified tactics: %w", err)
	}
	return tactics, nil
}

// ListTacticsByTag retrieves tactics carrying a tag
func (r *Repository) ListTacticsByTag(ctx context.Context, tag string) ([]domain.Tactic, error) {
	tactics, err := r.queryTactics(ctx, tacticsByTagQuery(tag))
	if err != nil {
		return nil, fmt.Errorf("listing tactics by tag: %w", err)
	}
	return tactics, nil
}

// SearchTactics matches pattern against tactic names, descriptions and clubs
func (r *Repository) SearchTactics(ctx context.Context, pattern string, limit int) ([]domain.Tactic, error) {
	tactics, err := r.queryTactics(ctx, searchTacticsQuery(pattern, limit))
	if err != nil {
		return nil, fmt.Errorf("searching tactics: %w", err)
	}
	return tactics, nil
}

// UpsertPlaylist inserts or replaces a playlist
func (r *Repository) UpsertPlaylist(ctx context.Context, p domain.TacticsPlaylist) error {
	var imageJSON []byte
	if p.Image != nil {
		var err error
		imageJSON, err = json.Marshal(p.Image)
		if err != nil {
			return fmt.Errorf("marshaling image: %w", err)
		}
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO tactics_playlists (id, title, description, tacticalpreset, decade, image, formations, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET title = $2, description = $3, tacticalpreset = $4, decade = $5,
			image = $6, formations = $7, tags = $8
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.TacticalPreset,
		p.Decade,
		imageJSON,
		p.Formations,
		nonNil(p.Tags),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("upserting playlist: %w", err)
	}
	return nil
}

// UpsertTactic inserts or replaces a tactic
func (r *Repository) UpsertTactic(ctx context.Context, t domain.Tactic) error {
	positions := t.Positions
	if positions == nil {
		positions = []domain.Position{}
	}
	positionsJSON, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("marshaling positions: %w", err)
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO tactics (id, created_at, tactic_name, description, formation_id, position_id,
			focuses_id, role_id, build_up_style, defensive_approach, share_code, tags, club, season,
			verified, manager, year, clubcountry, league, tacticalpreset, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id)
		DO UPDATE SET tactic_name = $3, description = $4, formation_id = $5, position_id = $6,
			focuses_id = $7, role_id = $8, build_up_style = $9, defensive_approach = $10,
			share_code = $11, tags = $12, club = $13, season = $14, verified = $15, manager = $16,
			year = $17, clubcountry = $18, league = $19, tacticalpreset = $20, notes = $21
	`
	_, err = r.pool.Exec(ctx, query,
		t.ID,
		createdAt,
		t.TacticName,
		t.Description,
		t.FormationID,
		positionsJSON,
		nonNil(t.FocusIDs),
		nonNil(t.RoleIDs),
		t.BuildUpStyle,
		t.DefensiveApproach,
		t.ShareCode,
		nonNil(t.Tags),
		t.Club,
		t.Season,
		t.Verified,
		t.Manager,
		t.Year,
		t.ClubCountry,
		t.League,
		t.TacticalPreset,
		t.Notes,
	)
	if err != nil {
		return fmt.Errorf("upserting tactic: %w", err)
	}
	return nil
}

// BatchUpsertLikeCounts stores like counts for many playlists
func (r *Repository) BatchUpsertLikeCounts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO playlist_likes (playlist_id, likes, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (playlist_id)
		DO UPDATE SET likes = $2, updated_at = $3
	`
	now := time.Now()

	for playlistID, likes := range counts {
		batch.Queue(query, playlistID, likes, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range counts {
		_, err := br.Exec()
		if err != nil {
			return fmt.Errorf("batch upserting like counts: %w", err)
		}
	}
	return nil
}

// GetAllLikeCounts retrieves every stored like count
func (r *Repository) GetAllLikeCounts(ctx context.Context) (map[string]int64, error) {
	query := `SELECT playlist_id, likes FROM playlist_likes`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("getting like counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var playlistID string
		var likes int64
		if err := rows.Scan(&playlistID, &likes); err != nil {
			return nil, fmt.Errorf("scanning like count: %w", err)
		}
		counts[playlistID] = likes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating like counts: %w", err)
	}
	return counts, nil
}

func (r *Repository) queryPlaylists(ctx context.Context, q sq.SelectBuilder) ([]domain.TacticsPlaylist, error) {
	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []domain.TacticsPlaylist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (r *Repository) queryTactics(ctx context.Context, q sq.SelectBuilder) ([]domain.Tactic, error) {
	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tactics := []domain.Tactic{}
	for rows.Next() {
		t, err := scanTactic(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tactic: %w", err)
		}
		tactics = append(tactics, t)
	}
	return tactics, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
