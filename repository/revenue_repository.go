package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillarena/database"
	"skillarena/models"
	"skillarena/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RevenueRepository implements the service.RevenueRepository interface.
// Revenue records are append-only: there is no update or delete path.
type RevenueRepository struct {
	q queryable
}

// NewRevenueRepository creates a new revenue repository
func NewRevenueRepository(db *database.DB) *RevenueRepository {
	return &RevenueRepository{q: db.Pool}
}

// newRevenueRepositoryWithTx creates a new revenue repository with a transaction
func newRevenueRepositoryWithTx(tx queryable) *RevenueRepository {
	return &RevenueRepository{q: tx}
}

// Record appends a new revenue record. A second record for the same match id
// violates the unique index and is reported as service.ErrDuplicateMatchRecord,
// which is the storage-level backstop against double settlement.
func (r *RevenueRepository) Record(ctx context.Context, record *models.RevenueRecord) error {
	participants := record.Participants
	if participants == nil {
		participants = []models.RevenueParticipant{}
	}
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	query := `
		INSERT INTO revenue_records
		(source, game_type, tournament_ref, amount, commission_rate, description, match_id, participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		record.Source,
		record.GameType,
		record.TournamentRef,
		record.Amount,
		record.CommissionRate,
		record.Description,
		record.MatchID,
		participantsJSON,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("match %s: %w", record.MatchID, service.ErrDuplicateMatchRecord)
		}
		return fmt.Errorf("failed to record revenue for match %s: %w", record.MatchID, err)
	}

	return nil
}

// GetByMatchID retrieves the revenue record for a match, if any
func (r *RevenueRepository) GetByMatchID(ctx context.Context, matchID string) (*models.RevenueRecord, error) {
	query := `
		SELECT id, source, game_type, tournament_ref, amount, commission_rate, description, match_id, participants, created_at
		FROM revenue_records
		WHERE match_id = $1
	`

	record, err := scanRevenueRecord(r.q.QueryRow(ctx, query, matchID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue record for match %s: %w", matchID, err)
	}

	return record, nil
}

// List returns revenue records matching the filter, newest first, with the
// total count for pagination.
func (r *RevenueRepository) List(ctx context.Context, filter models.RevenueFilter, limit, offset int) ([]*models.RevenueRecord, int64, error) {
	if limit <= 0 {
		limit = 50
	}

	where, args := buildRevenueWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM revenue_records` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count revenue records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, source, game_type, tournament_ref, amount, commission_rate, description, match_id, participants, created_at
		FROM revenue_records%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list revenue records: %w", err)
	}
	defer rows.Close()

	var records []*models.RevenueRecord
	for rows.Next() {
		record, err := scanRevenueRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan revenue record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate revenue records: %w", err)
	}

	return records, total, nil
}

// GetStats aggregates revenue by source over a time range
func (r *RevenueRepository) GetStats(ctx context.Context, from, to time.Time) (*models.RevenueStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(SUM(amount) FILTER (WHERE source = 'lobby'), 0) AS lobby,
			COALESCE(SUM(amount) FILTER (WHERE source = 'tournament'), 0) AS tournament,
			COUNT(*) AS record_count
		FROM revenue_records
		WHERE created_at >= $1 AND created_at < $2
	`

	stats := &models.RevenueStats{From: from, To: to}
	err := r.q.QueryRow(ctx, query, from, to).Scan(
		&stats.TotalRevenue,
		&stats.LobbyRevenue,
		&stats.TournamentRevenue,
		&stats.RecordCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue stats: %w", err)
	}

	return stats, nil
}

// GetDailyRevenue buckets revenue by day over a time range
func (r *RevenueRepository) GetDailyRevenue(ctx context.Context, from, to time.Time) ([]*models.DailyRevenuePoint, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COALESCE(SUM(amount), 0) AS revenue,
		       COUNT(*) AS record_count
		FROM revenue_records
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily revenue: %w", err)
	}
	defer rows.Close()

	var points []*models.DailyRevenuePoint
	for rows.Next() {
		var point models.DailyRevenuePoint
		if err := rows.Scan(&point.Day, &point.Revenue, &point.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily revenue point: %w", err)
		}
		points = append(points, &point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily revenue: %w", err)
	}

	return points, nil
}

// GetTopPlayers ranks real users by attributed lobby revenue over a time
// range. Half of each lobby-game ledger amount is attributed to each listed
// real participant; bots are excluded.
func (r *RevenueRepository) GetTopPlayers(ctx context.Context, from, to time.Time, limit int) ([]*models.TopPlayerEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT p->>'participant_id' AS participant_id,
		       MAX(p->>'username') AS username,
		       COALESCE(SUM(rr.amount / 2), 0) AS attributed_revenue,
		       COUNT(*) AS games_played
		FROM revenue_records rr,
		     jsonb_array_elements(rr.participants) AS p
		WHERE rr.source = 'lobby'
		  AND rr.created_at >= $1 AND rr.created_at < $2
		  AND (p->>'is_bot')::boolean = false
		GROUP BY p->>'participant_id'
		ORDER BY attributed_revenue DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	defer rows.Close()

	var entries []*models.TopPlayerEntry
	for rows.Next() {
		var entry models.TopPlayerEntry
		if err := rows.Scan(&entry.ParticipantID, &entry.Username, &entry.AttributedRevenue, &entry.GamesPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan top player entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top players: %w", err)
	}

	return entries, nil
}

func buildRevenueWhere(filter models.RevenueFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Source != nil {
		args = append(args, *filter.Source)
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanRevenueRecord(row pgx.Row) (*models.RevenueRecord, error) {
	var record models.RevenueRecord
	var participantsJSON []byte

	err := row.Scan(
		&record.ID,
		&record.Source,
		&record.GameType,
		&record.TournamentRef,
		&record.Amount,
		&record.CommissionRate,
		&record.Description,
		&record.MatchID,
		&participantsJSON,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(participantsJSON) > 0 {
		if err := json.Unmarshal(participantsJSON, &record.Participants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
		}
	}

	return &record, nil
}
