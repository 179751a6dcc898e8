package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tactics-catalog/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var playlistColumns = []string{
	"id", "title", "description", "tacticalpreset", "decade", "image",
	"COALESCE(formations, '{}')", "tags", "created_at",
}

var tacticColumns = []string{
	"id", "created_at", "tactic_name", "description", "formation_id", "position_id",
	"focuses_id", "role_id", "build_up_style", "defensive_approach", "share_code", "tags",
	"club", "season", "verified", "manager", "year", "clubcountry", "league",
	"tacticalpreset", "notes",
}

func getPlaylistQuery(playlistID string) sq.SelectBuilder {
	return psql.Select(playlistColumns...).
		From("tactics_playlists").
		Where(sq.Eq{"id": playlistID})
}

func playlistsByIDsQuery(ids []string) sq.SelectBuilder {
	return psql.Select(playlistColumns...).
		From("tactics_playlists").
		Where(sq.Eq{"id": ids})
}

func listPlaylistsQuery(limit int) sq.SelectBuilder {
	q := psql.Select(playlistColumns...).
		From("tactics_playlists").
		OrderBy("created_at DESC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func playlistsByTagQuery(tag string) sq.SelectBuilder {
	return psql.Select(playlistColumns...).
		From("tactics_playlists").
		Where(sq.Expr("? = ANY(tags)", tag)).
		OrderBy("created_at DESC", "id")
}

func searchPlaylistsQuery(pattern string, limit int) sq.SelectBuilder {
	return psql.Select(playlistColumns...).
		From("tactics_playlists").
		Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		}).
		OrderBy("created_at", "id").
		Limit(uint64(limit))
}

func listTacticsQuery() sq.SelectBuilder {
	return psql.Select(tacticColumns...).
		From("tactics").
		OrderBy("created_at", "id")
}

func verifiedTacticsQuery(limit int) sq.SelectBuilder {
	return psql.Select(tacticColumns...).
		From("tactics").
		Where(sq.Eq{"verified": true}).
		OrderBy("created_at", "id").
		Limit(uint64(limit))
}

func tacticsByTagQuery(tag string) sq.SelectBuilder {
	return psql.Select(tacticColumns...).
		From("tactics").
		Where(sq.Expr("? = ANY(tags)", tag)).
		OrderBy("created_at", "id")
}

func searchTacticsQuery(pattern string, limit int) sq.SelectBuilder {
	return psql.Select(tacticColumns...).
		From("tactics").
		Where(sq.Or{
			sq.ILike{"tactic_name": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"club": pattern},
		}).
		OrderBy("created_at", "id").
		Limit(uint64(limit))
}

func query(ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) (pgx.Rows, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return db.Query(ctx, sql, args...)
}

func queryRow(ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) (pgx.Row, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryRow(ctx, sql, args...), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (domain.TacticsPlaylist, error) {
	var p domain.TacticsPlaylist
	var imageJSON []byte
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.TacticalPreset,
		&p.Decade,
		&imageJSON,
		&p.Formations,
		&p.Tags,
		&p.CreatedAt,
	)
	if err != nil {
		return p, err
	}
	if len(imageJSON) > 0 && string(imageJSON) != "null" {
		var img domain.PlaylistImage
		if err := json.Unmarshal(imageJSON, &img); err != nil {
			return p, fmt.Errorf("decoding image: %w", err)
		}
		p.Image = &img
	}
	if len(p.Formations) == 0 {
		p.Formations = nil
	}
	return p, nil
}

func scanTactic(row rowScanner) (domain.Tactic, error) {
	var t domain.Tactic
	var positionsJSON []byte
	err := row.Scan(
		&t.ID,
		&t.CreatedAt,
		&t.TacticName,
		&t.Description,
		&t.FormationID,
		&positionsJSON,
		&t.FocusIDs,
		&t.RoleIDs,
		&t.BuildUpStyle,
		&t.DefensiveApproach,
		&t.ShareCode,
		&t.Tags,
		&t.Club,
		&t.Season,
		&t.Verified,
		&t.Manager,
		&t.Year,
		&t.ClubCountry,
		&t.League,
		&t.TacticalPreset,
		&t.Notes,
	)
	if err != nil {
		return t, err
	}
	if len(positionsJSON) > 0 {
		if err := json.Unmarshal(positionsJSON, &t.Positions); err != nil {
			return t, fmt.Errorf("decoding positions: %w", err)
		}
	}
	return t, nil
}
