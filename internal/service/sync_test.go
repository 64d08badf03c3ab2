package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golf-tracker/internal/api"
	"golf-tracker/internal/domain"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu        sync.Mutex
	rounds    []api.RemoteRound
	fetchErr  error
	saveErr   error
	deleteErr error
	fetches   int
	saved     []api.RoundPayload
	deleted   []string
}

func (f *fakeRemote) FetchRounds(ctx context.Context) ([]api.RemoteRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rounds, nil
}

func (f *fakeRemote) SaveRound(ctx context.Context, payload api.RoundPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, payload)
	return nil
}

func (f *fakeRemote) DeleteRound(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func makeLocalRound(id string, date time.Time) *domain.Round {
	faker := gofakeit.New(uint64(date.Unix()))
	return &domain.Round{
		ID:   id,
		Date: date,
		Scores: map[int]*domain.HoleScore{
			1: {HoleNumber: 1, ApproachShots: faker.Number(1, 5), Putts: faker.Number(1, 3)},
			2: {HoleNumber: 2, ApproachShots: faker.Number(1, 5), Putts: faker.Number(1, 3)},
		},
		StartingHoleNumber: 1,
	}
}

func makeRemoteRound(id string, date time.Time) api.RemoteRound {
	return api.RemoteRound{
		ID:   id,
		Date: date.Format(time.RFC3339),
		Scores: map[int]*domain.HoleScore{
			1: {HoleNumber: 1, ApproachShots: 3, Putts: 2},
		},
	}
}

func newSyncFixture(t *testing.T, remote *fakeRemote, local []*domain.Round) (*SyncService, *RoundService, *memPersister) {
	t.Helper()
	repo := &memPersister{rounds: local}
	store := NewRoundService(testCatalog(t), repo, nil, zerolog.Nop())
	store.Load(context.Background())
	syncSvc := NewSyncService(remote, repo, store, true, zerolog.Nop())
	return syncSvc, store, repo
}

func storeIDs(store *RoundService) []string {
	var ids []string
	for _, m := range store.Metadata(context.Background()) {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestReconcileRemoteWinsWhenNoLocalOnly(t *testing.T) {
	day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	remote := &fakeRemote{rounds: []api.RemoteRound{
		makeRemoteRound("20-08-2026", day),
		makeRemoteRound("19-08-2026", day.AddDate(0, 0, -1)),
	}}
	local := []*domain.Round{makeLocalRound("20-08-2026", day)}

	syncSvc, store, _ := newSyncFixture(t, remote, local)
	syncSvc.ReconcileOnStartup(context.Background())

	assert.False(t, syncSvc.Conflict().Pending)
	if diff := cmp.Diff([]string{"20-08-2026", "19-08-2026"}, storeIDs(store)); diff != "" {
		t.Errorf("round ids mismatch (-want +got):\n%s", diff)
	}

	// Remote records carry no in-progress state.
	got, ok := store.Get("20-08-2026")
	require.True(t, ok)
	assert.True(t, got.IsFinished)
	assert.Equal(t, 0, got.CurrentHoleIndex)
	assert.Equal(t, 1, got.StartingHoleNumber)
}

func TestReconcileFetchFailureKeepsLocal(t *testing.T) {
	day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	remote := &fakeRemote{fetchErr: fmt.Errorf("network down")}
	local := []*domain.Round{makeLocalRound("20-08-2026", day)}

	syncSvc, store, _ := newSyncFixture(t, remote, local)
	syncSvc.ReconcileOnStartup(context.Background())

	assert.False(t, syncSvc.Conflict().Pending)
	assert.Equal(t, []string{"20-08-2026"}, storeIDs(store))
}

func TestReconcileSuspendsOnLocalOnlyRounds(t *testing.T) {
	day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	remote := &fakeRemote{rounds: []api.RemoteRound{makeRemoteRound("18-08-2026", day.AddDate(0, 0, -2))}}
	local := []*domain.Round{
		makeLocalRound("20-08-2026", day),
		makeLocalRound("19-08-2026", day.AddDate(0, 0, -1)),
	}

	syncSvc, store, _ := newSyncFixture(t, remote, local)
	syncSvc.ReconcileOnStartup(context.Background())

	state := syncSvc.Conflict()
	assert.True(t, state.Pending)
	assert.Equal(t, 2, state.LocalOnly)

	// No automatic resolution: the store still holds the local set.
	assert.Equal(t, []string{"20-08-2026", "19-08-2026"}, storeIDs(store))
}

func TestResolveDiscardAdoptsRemoteExactly(t *testing.T) {
	day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	remote := &fakeRemote{rounds: []api.RemoteRound{makeRemoteRound("18-08-2026", day.AddDate(0, 0, -2))}}
	local := []*domain.Round{makeLocalRound("20-08-2026", day)}

	syncSvc, store, _ := newSyncFixture(t, remote, local)
	syncSvc.ReconcileOnStartup(context.Background())
	require.True(t, syncSvc.Conflict().Pending)

	require.NoError(t, syncSvc.Resolve(context.Background(), false))

	assert.Equal(t, []string{"18-08-2026"}, storeIDs(store))
	assert.False(t, syncSvc.Conflict().Pending)
}

func TestResolveKeepMergesSortedWithoutDuplicates(t *testing.T) {
	day := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	remote := &fakeRemote{rounds: []api.RemoteRound{
		makeRemoteRound("18-08-2026", day.AddDate(0, 0, -2)),
		makeRemoteRound("15-08-2026", day.AddDate(0, 0, -5)),
	}}
	local := []*domain.Round{
		makeLocalRound("20-08-2026", day),
		makeLocalRound("18-08-2026", day.AddDate(0, 0, -2)), // already remote
		makeLocalRound("19-08-2026", day.AddDate(0, 0, -1)),
	}

	syncSvc, store, _ := newSyncFixture(t, remote, local)
	syncSvc.ReconcileOnStartup(context.Background())
	require.True(t, syncSvc.Conflict().Pending)

	require.NoError(t, syncSvc.Resolve(context.Background(), true))

	want := []string{"20-08-2026", "19-08-2026", "18-08-2026", "15-08-2026"}
	if diff := cmp.Diff(want, storeIDs(store)); diff != "" {
		t.Errorf("merged ids mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveWithoutPendingConflict(t *testing.T) {
	syncSvc, _, _ := newSyncFixture(t, &fakeRemote{}, nil)
	err := syncSvc.Resolve(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoConflict)
}

func TestReconcileSkippedWhenDisabled(t *testing.T) {
	remote := &fakeRemote{}
	repo := &memPersister{}
	store := NewRoundService(testCatalog(t), repo, nil, zerolog.Nop())
	syncSvc := NewSyncService(remote, repo, store, false, zerolog.Nop())

	syncSvc.ReconcileOnStartup(context.Background())
	assert.Zero(t, remote.fetches)
}

func TestPushRoundPayload(t *testing.T) {
	remote := &fakeRemote{}
	syncSvc, store, _ := newSyncFixture(t, remote, nil)

	ctx := context.Background()
	round, err := store.Create(ctx, 1)
	require.NoError(t, err)
	_, err = store.UpdateScore(ctx, round.ID, 1, StrokeApproach, 1, nil, nil)
	require.NoError(t, err)
	_, err = store.UpdateScore(ctx, round.ID, 1, StrokePutt, 1, nil, nil)
	require.NoError(t, err)
	_, err = store.UpdateScore(ctx, round.ID, 1, StrokePutt, 1, nil, nil)
	require.NoError(t, err)

	require.NoError(t, syncSvc.PushRound(ctx, round.ID))

	require.Len(t, remote.saved, 1)
	payload := remote.saved[0]
	assert.Equal(t, round.ID, payload.ID)
	assert.Equal(t, 3, payload.TotalScore)
	require.Contains(t, payload.Scores, 1)
	assert.Equal(t, 1, payload.Scores[1].ApproachShots)
	assert.Equal(t, 2, payload.Scores[1].Putts)

	_, err = time.Parse(time.RFC3339, payload.Date)
	assert.NoError(t, err, "push date is ISO-8601")
}

func TestPushFailureLeavesRoundFinished(t *testing.T) {
	remote := &fakeRemote{saveErr: fmt.Errorf("quota exceeded")}
	syncSvc, store, _ := newSyncFixture(t, remote, nil)

	ctx := context.Background()
	round, err := store.Create(ctx, 1)
	require.NoError(t, err)
	store.Finish(ctx, round.ID)

	err = syncSvc.PushRound(ctx, round.ID)
	assert.Error(t, err)

	got, ok := store.Get(round.ID)
	require.True(t, ok)
	assert.True(t, got.IsFinished, "push failure never un-finishes the round")
}

func TestRunPushesFinishedRoundOnce(t *testing.T) {
	remote := &fakeRemote{}
	syncSvc, store, _ := newSyncFixture(t, remote, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncSvc.Run(ctx)

	round, err := store.Create(ctx, 1)
	require.NoError(t, err)

	store.Finish(ctx, round.ID)
	store.Finish(ctx, round.ID) // idempotent, no second announcement

	require.Eventually(t, func() bool {
		return remote.saveCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give a second push a chance to (wrongly) happen.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, remote.saveCount())
}

func TestDeleteRemoteWrapsFailureAsWarning(t *testing.T) {
	remote := &fakeRemote{deleteErr: fmt.Errorf("script error")}
	syncSvc, _, _ := newSyncFixture(t, remote, nil)

	err := syncSvc.DeleteRemote(context.Background(), "20-08-2026")
	assert.ErrorIs(t, err, ErrRemoteDelete)
}

func TestDeleteRemoteDisabledIsNoOp(t *testing.T) {
	remote := &fakeRemote{}
	repo := &memPersister{}
	store := NewRoundService(testCatalog(t), repo, nil, zerolog.Nop())
	syncSvc := NewSyncService(remote, repo, store, false, zerolog.Nop())

	assert.NoError(t, syncSvc.DeleteRemote(context.Background(), "x"))
	assert.Empty(t, remote.deleted)
}
