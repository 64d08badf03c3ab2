package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golf-tracker/internal/api"
	"golf-tracker/internal/constants"
	"golf-tracker/internal/domain"
	"golf-tracker/internal/score"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RemoteStore is the spreadsheet-backed key-value store rounds sync to.
type RemoteStore interface {
	FetchRounds(ctx context.Context) ([]api.RemoteRound, error)
	SaveRound(ctx context.Context, payload api.RoundPayload) error
	DeleteRound(ctx context.Context, id string) error
}

// ConflictState describes a suspended startup reconciliation waiting on an
// explicit keep-or-discard decision.
type ConflictState struct {
	Pending   bool `json:"pending"`
	LocalOnly int  `json:"localOnly"`
}

// SyncService reconciles the local round collection with the remote store:
// once at startup, on explicit finish (via the store's notification
// channel), and on manual per-round sync requests. It holds no round state
// of its own beyond the transient pending remote set of an unresolved
// conflict.
type SyncService struct {
	remote  RemoteStore
	repo    Persister
	store   *RoundService
	logger  zerolog.Logger
	enabled bool

	mu        sync.Mutex
	pending   []*domain.Round
	localOnly int
	inFlight  map[string]bool
}

func NewSyncService(remote RemoteStore, repo Persister, store *RoundService, enabled bool, logger zerolog.Logger) *SyncService {
	return &SyncService{
		remote:   remote,
		repo:     repo,
		store:    store,
		logger:   logger,
		enabled:  enabled,
		inFlight: make(map[string]bool),
	}
}

// Run consumes finish notifications and pushes each round once. Push
// failures are logged and not retried; the round stays finished locally.
func (s *SyncService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case round, ok := <-s.store.Finished():
			if !ok {
				return
			}
			if err := s.push(ctx, round); err != nil {
				s.logger.Warn().Err(err).Str("round_id", round.ID).Msg("cloud save failed, round kept locally")
			} else {
				s.logger.Info().Str("round_id", round.ID).Msg("round pushed to remote store")
			}
		}
	}
}

// ReconcileOnStartup runs the one startup reconciliation. Remote wins
// unconditionally when every local round is already known remotely;
// otherwise the decision is suspended and surfaced via Conflict. A fetch
// failure leaves local state untouched: local is the fallback of record.
func (s *SyncService) ReconcileOnStartup(ctx context.Context) {
	if !s.enabled {
		s.logger.Info().Msg("remote store not configured, skipping sync")
		return
	}

	var (
		remoteRounds []api.RemoteRound
		localRounds  []*domain.Round
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, constants.RemoteAPITimeout)
		defer cancel()
		var err error
		remoteRounds, err = s.remote.FetchRounds(fetchCtx)
		return err
	})
	g.Go(func() error {
		// Read durable storage directly, not the in-memory state: local
		// edits racing the fetch must not skew the diff.
		var err error
		localRounds, err = s.repo.LoadAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("startup sync failed, keeping local rounds")
		return
	}

	remote := s.mapRemote(remoteRounds)
	localOnly := diffLocalOnly(localRounds, remote)

	if len(localOnly) == 0 {
		s.store.ReplaceCollection(ctx, remote)
		s.logger.Info().Int("rounds", len(remote)).Msg("startup sync complete, remote set adopted")
		return
	}

	s.mu.Lock()
	s.pending = remote
	s.localOnly = len(localOnly)
	s.mu.Unlock()

	s.logger.Info().
		Int("local_only", len(localOnly)).
		Int("remote", len(remote)).
		Msg("unsynced local rounds found, awaiting keep-or-discard decision")
}

// Conflict reports whether a reconciliation is suspended and how many
// local-only rounds hang in the balance.
func (s *SyncService) Conflict() ConflictState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ConflictState{Pending: s.pending != nil, LocalOnly: s.localOnly}
}

// Resolve applies the user's decision on a suspended reconciliation.
// Keep unions the pending remote set with the local-only rounds, recomputed
// against the freshest storage read; discard adopts the remote set as-is.
func (s *SyncService) Resolve(ctx context.Context, keep bool) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.localOnly = 0
	s.mu.Unlock()

	if pending == nil {
		return ErrNoConflict
	}

	if !keep {
		s.store.ReplaceCollection(ctx, pending)
		s.logger.Info().Int("rounds", len(pending)).Msg("local-only rounds discarded, remote set adopted")
		return nil
	}

	localRounds, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to re-read local rounds for merge")
		return fmt.Errorf("failed to re-read local rounds: %w", err)
	}

	merged := append([]*domain.Round{}, pending...)
	merged = append(merged, diffLocalOnly(localRounds, pending)...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	s.store.ReplaceCollection(ctx, merged)
	s.logger.Info().Int("rounds", len(merged)).Msg("local-only rounds kept, merged with remote set")
	return nil
}

// PushRound is the manual "sync to cloud" action: awaited, guarded against
// re-entrant pushes of the same round.
func (s *SyncService) PushRound(ctx context.Context, roundID string) error {
	round, ok := s.store.Get(roundID)
	if !ok {
		return fmt.Errorf("round %s not found", roundID)
	}
	return s.push(ctx, round)
}

// DeleteRemote requests deletion of a round from the remote store. The
// local delete has already happened; failure here is a warning, and the
// round may reappear after the next reconciliation.
func (s *SyncService) DeleteRemote(ctx context.Context, roundID string) error {
	if !s.enabled {
		return nil
	}
	delCtx, cancel := context.WithTimeout(ctx, constants.RemoteAPITimeout)
	defer cancel()

	if err := s.remote.DeleteRound(delCtx, roundID); err != nil {
		s.logger.Warn().Err(err).Str("round_id", roundID).Msg("remote delete failed")
		return fmt.Errorf("%w: %s: %v", ErrRemoteDelete, roundID, err)
	}
	return nil
}

func (s *SyncService) push(ctx context.Context, round *domain.Round) error {
	if !s.enabled {
		return fmt.Errorf("remote store not configured")
	}

	s.mu.Lock()
	if s.inFlight[round.ID] {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSyncInFlight, round.ID)
	}
	s.inFlight[round.ID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, round.ID)
		s.mu.Unlock()
	}()

	pushCtx, cancel := context.WithTimeout(ctx, constants.RemoteAPITimeout)
	defer cancel()

	payload := api.RoundPayload{
		ID:         round.ID,
		Date:       round.Date.UTC().Format(time.RFC3339),
		TotalScore: score.Total(round.Scores),
		Scores:     round.Scores,
	}
	return s.remote.SaveRound(pushCtx, payload)
}

// mapRemote converts fetched records to local rounds. The remote store
// holds no in-progress concept: every remote round comes back finished,
// positioned at the first hole.
func (s *SyncService) mapRemote(records []api.RemoteRound) []*domain.Round {
	rounds := make([]*domain.Round, 0, len(records))
	for _, rec := range records {
		date, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			s.logger.Warn().Str("round_id", rec.ID).Str("date", rec.Date).Msg("remote round has unparsable date")
		}
		scores := rec.Scores
		if scores == nil {
			scores = make(map[int]*domain.HoleScore)
		}
		rounds = append(rounds, &domain.Round{
			ID:                 rec.ID,
			Date:               date,
			Scores:             scores,
			CurrentHoleIndex:   0,
			StartingHoleNumber: 1,
			IsFinished:         true,
		})
	}
	return rounds
}

// diffLocalOnly returns the local rounds whose id is absent from the
// remote set.
func diffLocalOnly(local, remote []*domain.Round) []*domain.Round {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = struct{}{}
	}
	var out []*domain.Round
	for _, r := range local {
		if _, ok := remoteIDs[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}
