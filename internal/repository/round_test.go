package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golf-tracker/internal/config"
	"golf-tracker/internal/database"
	"golf-tracker/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RoundRepository {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoundRepository(db, zerolog.Nop())
}

func TestReplaceAllRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dist := 212
	rounds := []*domain.Round{
		{
			ID:   "20-08-2026",
			Date: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
			Scores: map[int]*domain.HoleScore{
				1: {
					HoleNumber:    1,
					ApproachShots: 2,
					Putts:         2,
					Shots: []domain.ShotDetail{
						{
							ID:        "abc123",
							Club:      domain.ClubDriver,
							Timestamp: time.Date(2026, 8, 20, 10, 35, 0, 0, time.UTC),
							Location:  &domain.GeoLocation{Lat: 40.4540, Lon: -3.7480},
							Distance:  &dist,
						},
					},
					TeeLocation: &domain.GeoLocation{Lat: 40.4530, Lon: -3.7492},
				},
			},
			CurrentHoleIndex:   4,
			StartingHoleNumber: 5,
			IsFinished:         true,
		},
		{
			ID:                 "19-08-2026",
			Date:               time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC),
			Scores:             map[int]*domain.HoleScore{},
			StartingHoleNumber: 1,
		},
	}

	require.NoError(t, repo.ReplaceAll(ctx, rounds))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(rounds, loaded); diff != "" {
		t.Errorf("round collection mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAllOverwritesCompletely(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []*domain.Round{
		{ID: "a", Date: time.Now().UTC().Truncate(time.Second), Scores: map[int]*domain.HoleScore{}, StartingHoleNumber: 1},
		{ID: "b", Date: time.Now().UTC().Truncate(time.Second), Scores: map[int]*domain.HoleScore{}, StartingHoleNumber: 1},
	}
	require.NoError(t, repo.ReplaceAll(ctx, first))

	second := []*domain.Round{first[0]}
	require.NoError(t, repo.ReplaceAll(ctx, second))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", loaded[0].ID)
}

func TestLoadAllSkipsCorruptRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	good := []*domain.Round{
		{ID: "good", Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Scores: map[int]*domain.HoleScore{}, StartingHoleNumber: 1},
	}
	require.NoError(t, repo.ReplaceAll(ctx, good))

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO rounds (id, date, scores, current_hole_index, starting_hole_number, is_finished, created_at, updated_at)
		VALUES ('corrupt', '2026-08-21T00:00:00Z', 'not json', 0, 1, 0, '', '')`)
	require.NoError(t, err)

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
}

func TestLoadAllEmptyStore(t *testing.T) {
	repo := newTestRepo(t)
	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
