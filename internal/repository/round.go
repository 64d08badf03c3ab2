package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golf-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RoundRepository mirrors the in-memory round collection to SQLite. Every
// mutation persists the full collection in one transaction; there is no
// delta persistence, so the table is always a complete snapshot of the last
// committed state.
type RoundRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRoundRepository(sqlDB *sql.DB, logger zerolog.Logger) *RoundRepository {
	return &RoundRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// LoadAll reads the last-persisted round collection straight from durable
// storage. Rows that fail to decode are skipped with a log; a broken row
// must never take the whole collection down.
func (r *RoundRepository) LoadAll(ctx context.Context) ([]*domain.Round, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, scores, current_hole_index, starting_hole_number, is_finished
		FROM rounds
		ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.Round
	for rows.Next() {
		var (
			id         string
			dateStr    string
			scoresJSON string
			holeIndex  int
			startHole  int
			finished   bool
		)
		if err := rows.Scan(&id, &dateStr, &scoresJSON, &holeIndex, &startHole, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}

		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			r.logger.Warn().Err(err).Str("round_id", id).Str("date", dateStr).Msg("skipping round with unparsable date")
			continue
		}

		scores := make(map[int]*domain.HoleScore)
		if err := json.Unmarshal([]byte(scoresJSON), &scores); err != nil {
			r.logger.Warn().Err(err).Str("round_id", id).Msg("skipping round with corrupt scores")
			continue
		}

		rounds = append(rounds, &domain.Round{
			ID:                 id,
			Date:               date,
			Scores:             scores,
			CurrentHoleIndex:   holeIndex,
			StartingHoleNumber: startHole,
			IsFinished:         finished,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate round rows: %w", err)
	}

	r.logger.Debug().Int("count", len(rounds)).Msg("loaded rounds from storage")
	return rounds, nil
}

// ReplaceAll overwrites durable storage with the given collection.
func (r *RoundRepository) ReplaceAll(ctx context.Context, rounds []*domain.Round) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds`); err != nil {
		return fmt.Errorf("failed to clear rounds: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, round := range rounds {
		scoresJSON, err := json.Marshal(round.Scores)
		if err != nil {
			return fmt.Errorf("failed to encode scores for round %s: %w", round.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO rounds (id, date, scores, current_hole_index, starting_hole_number, is_finished, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			round.ID,
			round.Date.UTC().Format(time.RFC3339),
			string(scoresJSON),
			round.CurrentHoleIndex,
			round.StartingHoleNumber,
			round.IsFinished,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert round %s: %w", round.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rounds: %w", err)
	}

	r.logger.Debug().Int("count", len(rounds)).Msg("persisted round collection")
	return nil
}
