package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golf-tracker/internal/constants"
	"golf-tracker/internal/course"
	"golf-tracker/internal/domain"
	"golf-tracker/internal/geo"
	"golf-tracker/internal/geolocate"
	"golf-tracker/internal/score"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Persister is the durable storage the round collection is mirrored to
// after every mutation.
type Persister interface {
	LoadAll(ctx context.Context) ([]*domain.Round, error)
	ReplaceAll(ctx context.Context, rounds []*domain.Round) error
}

// StrokeKind selects which counter of a hole score a delta applies to.
type StrokeKind string

const (
	StrokeApproach StrokeKind = "approach"
	StrokePutt     StrokeKind = "putt"
)

func ParseStrokeKind(s string) (StrokeKind, error) {
	switch StrokeKind(s) {
	case StrokeApproach, StrokePutt:
		return StrokeKind(s), nil
	}
	return "", fmt.Errorf("invalid stroke kind %q", s)
}

// Direction moves the current hole pointer through the catalog.
type Direction int

const (
	DirectionNext Direction = 1
	DirectionPrev Direction = -1
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "next":
		return DirectionNext, nil
	case "prev":
		return DirectionPrev, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

// RoundService is the single source of truth for all rounds and the
// "current" round/hole pointers. Every mutation rewrites the collection in
// memory and then persists it in full, strictly after the mutation.
type RoundService struct {
	catalog *course.Catalog
	repo    Persister
	sensor  geolocate.Sensor
	logger  zerolog.Logger

	mu             sync.Mutex
	rounds         []*domain.Round
	currentRoundID string

	// finished rounds are announced here for the reconciler to push;
	// local state never waits on the remote outcome.
	finishedCh chan *domain.Round

	now func() time.Time
}

func NewRoundService(catalog *course.Catalog, repo Persister, sensor geolocate.Sensor, logger zerolog.Logger) *RoundService {
	return &RoundService{
		catalog:    catalog,
		repo:       repo,
		sensor:     sensor,
		logger:     logger,
		finishedCh: make(chan *domain.Round, 16),
		now:        time.Now,
	}
}

// Finished is the notification channel carrying snapshots of rounds that
// were just finished locally and want a remote push.
func (s *RoundService) Finished() <-chan *domain.Round {
	return s.finishedCh
}

// Load hydrates the in-memory collection from durable storage. A read or
// parse failure falls back to an empty collection; startup never blocks on
// a broken store.
func (s *RoundService) Load(ctx context.Context) {
	rounds, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load rounds, starting empty")
		rounds = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = rounds
	s.logger.Info().Int("rounds", len(rounds)).Msg("round collection loaded")
}

// Create starts a new round at the given hole (0 means hole 1), generates
// its date-derived id, seeds the tee location from the catalog when one is
// known, persists, and makes the round current.
func (s *RoundService) Create(ctx context.Context, startingHoleNumber int) (*domain.Round, error) {
	if startingHoleNumber == 0 {
		startingHoleNumber = 1
	}
	startIndex := s.catalog.IndexOfHole(startingHoleNumber)
	if startIndex < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHole, startingHoleNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	round := &domain.Round{
		ID:                 s.generateID(now),
		Date:               now,
		Scores:             make(map[int]*domain.HoleScore),
		CurrentHoleIndex:   startIndex,
		StartingHoleNumber: startingHoleNumber,
		IsFinished:         false,
	}
	s.ensureTeeLocation(round, startingHoleNumber)

	s.rounds = append(s.rounds, round)
	s.currentRoundID = round.ID
	s.persist(ctx)

	s.logger.Info().
		Str("round_id", round.ID).
		Int("starting_hole", startingHoleNumber).
		Msg("round created")

	return round.Clone(), nil
}

// Select makes an existing round current and restores its saved hole
// position. Unknown ids are a silent no-op.
func (s *RoundService) Select(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.find(id)
	if round == nil {
		s.logger.Debug().Str("round_id", id).Msg("select: round not found, ignoring")
		return
	}

	s.currentRoundID = round.ID
	if !round.IsFinished {
		if hole, ok := s.catalog.At(round.CurrentHoleIndex); ok {
			if s.ensureTeeLocation(round, hole.Number) {
				s.persist(ctx)
			}
		}
	}
	s.logger.Info().Str("round_id", id).Int("hole_index", round.CurrentHoleIndex).Msg("round selected")
}

// UpdateScore applies a ±1 delta to one counter of one hole of a round.
// Counters floor at zero. Approach increments with a club recorded append a
// ShotDetail annotated with the distance from the last known reference
// point; approach decrements pop the newest detail unconditionally. Putt
// updates touch only the counter. Unknown round ids are a silent no-op.
func (s *RoundService) UpdateScore(ctx context.Context, roundID string, holeNumber int, kind StrokeKind, delta int, club *domain.Club, location *domain.GeoLocation) (*domain.HoleScore, error) {
	if _, ok := s.catalog.ByNumber(holeNumber); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHole, holeNumber)
	}

	// The sensor read happens before taking the lock: a slow fix must not
	// stall unrelated mutations. Failure or timeout just means no location.
	if location == nil && kind == StrokeApproach && delta > 0 && club != nil {
		location = s.readSensor(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.find(roundID)
	if round == nil {
		s.logger.Debug().Str("round_id", roundID).Msg("update: round not found, ignoring")
		return nil, nil
	}
	if round.IsFinished {
		return nil, ErrRoundFinished
	}

	entry := round.Scores[holeNumber]
	if entry == nil {
		entry = &domain.HoleScore{HoleNumber: holeNumber}
		round.Scores[holeNumber] = entry
		s.seedTee(entry)
	}

	switch kind {
	case StrokeApproach:
		entry.ApproachShots = floorAdd(entry.ApproachShots, delta)
		if delta > 0 && club != nil {
			entry.Shots = append(entry.Shots, s.buildShot(entry, *club, location))
		} else if delta < 0 && len(entry.Shots) > 0 {
			// Pops whatever was appended last, located or not.
			entry.Shots = entry.Shots[:len(entry.Shots)-1]
		}
	case StrokePutt:
		entry.Putts = floorAdd(entry.Putts, delta)
	default:
		return nil, fmt.Errorf("invalid stroke kind %q", kind)
	}

	s.persist(ctx)

	s.logger.Debug().
		Str("round_id", roundID).
		Int("hole", holeNumber).
		Str("kind", string(kind)).
		Int("delta", delta).
		Int("approach", entry.ApproachShots).
		Int("putts", entry.Putts).
		Msg("score updated")

	return entry.Clone(), nil
}

// Advance moves the current round's hole pointer one step through the
// catalog, wrapping circularly, and seeds the new hole's tee location.
func (s *RoundService) Advance(ctx context.Context, direction Direction) (course.Hole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.find(s.currentRoundID)
	if round == nil {
		return course.Hole{}, ErrNoCurrentRound
	}

	n := s.catalog.Len()
	round.CurrentHoleIndex = ((round.CurrentHoleIndex+int(direction))%n + n) % n

	hole, _ := s.catalog.At(round.CurrentHoleIndex)
	if !round.IsFinished {
		s.ensureTeeLocation(round, hole.Number)
	}
	s.persist(ctx)

	s.logger.Debug().
		Str("round_id", round.ID).
		Int("hole", hole.Number).
		Msg("advanced to hole")

	return hole, nil
}

// Finish marks a round finished. The transition is monotonic and the call
// idempotent: only the first transition announces the round for a remote
// push. Local state is committed regardless of what the push later does.
func (s *RoundService) Finish(ctx context.Context, roundID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.find(roundID)
	if round == nil {
		s.logger.Debug().Str("round_id", roundID).Msg("finish: round not found, ignoring")
		return
	}
	if round.IsFinished {
		return
	}

	round.IsFinished = true
	s.persist(ctx)
	s.logger.Info().Str("round_id", roundID).Msg("round finished")

	select {
	case s.finishedCh <- round.Clone():
	default:
		s.logger.Warn().Str("round_id", roundID).Msg("push queue full, round not queued for sync")
	}
}

// Delete removes a round locally. Optimistic: the caller requests the
// remote deletion afterward and treats its failure as a warning only.
func (s *RoundService) Delete(ctx context.Context, roundID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.rounds {
		if r.ID == roundID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.rounds = append(s.rounds[:idx], s.rounds[idx+1:]...)
	if s.currentRoundID == roundID {
		s.currentRoundID = ""
	}
	s.persist(ctx)

	s.logger.Info().Str("round_id", roundID).Msg("round deleted locally")
	return true
}

// Metadata snapshots every round for the list view, newest first.
func (s *RoundService) Metadata(ctx context.Context) []domain.RoundMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RoundMetadata, 0, len(s.rounds))
	for _, r := range s.rounds {
		out = append(out, domain.RoundMetadata{
			ID:         r.ID,
			Date:       r.Date,
			TotalScore: score.Total(r.Scores),
			IsComplete: r.IsFinished || len(r.Scores) == s.catalog.Len(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Get returns a snapshot of one round.
func (s *RoundService) Get(id string) (*domain.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(id); r != nil {
		return r.Clone(), true
	}
	return nil, false
}

// Current returns a snapshot of the round being played.
func (s *RoundService) Current() (*domain.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(s.currentRoundID); r != nil {
		return r.Clone(), true
	}
	return nil, false
}

// ReplaceCollection is the reconciler's entry point: it swaps the whole
// in-memory collection and persists the result. The current pointer is
// dropped when its round no longer exists.
func (s *RoundService) ReplaceCollection(ctx context.Context, rounds []*domain.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds = rounds
	if s.currentRoundID != "" && s.find(s.currentRoundID) == nil {
		s.currentRoundID = ""
	}
	s.persist(ctx)
	s.logger.Info().Int("rounds", len(rounds)).Msg("round collection replaced")
}

func (s *RoundService) find(id string) *domain.Round {
	if id == "" {
		return nil
	}
	for _, r := range s.rounds {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// generateID derives a round id from the calendar date, suffixed with the
// count of same-day rounds. The suffix is bumped past any id still present
// so that deleting and recreating within a day cannot collide.
func (s *RoundService) generateID(date time.Time) string {
	key := date.Format(constants.RoundIDDateLayout)

	n := 0
	for _, r := range s.rounds {
		if r.ID == key || strings.HasPrefix(r.ID, key+"-") {
			n++
		}
	}
	if n == 0 {
		return key
	}

	id := fmt.Sprintf("%s-%d", key, n)
	for s.find(id) != nil {
		n++
		id = fmt.Sprintf("%s-%d", key, n)
	}
	return id
}

// ensureTeeLocation seeds the hole's tee location from the catalog when the
// catalog has one and the round does not yet. Creates the score entry if
// needed. Reports whether anything changed.
func (s *RoundService) ensureTeeLocation(round *domain.Round, holeNumber int) bool {
	hole, ok := s.catalog.ByNumber(holeNumber)
	if !ok || hole.Tee == nil {
		return false
	}
	entry := round.Scores[holeNumber]
	if entry == nil {
		entry = &domain.HoleScore{HoleNumber: holeNumber}
		round.Scores[holeNumber] = entry
	}
	if entry.TeeLocation != nil {
		return false // first write wins
	}
	tee := *hole.Tee
	entry.TeeLocation = &tee
	return true
}

func (s *RoundService) seedTee(entry *domain.HoleScore) {
	if entry.TeeLocation != nil {
		return
	}
	if hole, ok := s.catalog.ByNumber(entry.HoleNumber); ok && hole.Tee != nil {
		tee := *hole.Tee
		entry.TeeLocation = &tee
	}
}

func (s *RoundService) buildShot(entry *domain.HoleScore, club domain.Club, location *domain.GeoLocation) domain.ShotDetail {
	shot := domain.ShotDetail{
		ID:        gonanoid.Must(),
		Club:      club,
		Timestamp: s.now(),
		Location:  location,
	}
	if location != nil {
		if ref := lastReference(entry); ref != nil {
			d := geo.DistanceYards(*ref, *location)
			shot.Distance = &d
		}
	}
	return shot
}

// lastReference is the point the next shot's distance is measured from: the
// newest located shot, else the tee, else nothing.
func lastReference(entry *domain.HoleScore) *domain.GeoLocation {
	for i := len(entry.Shots) - 1; i >= 0; i-- {
		if entry.Shots[i].Location != nil {
			return entry.Shots[i].Location
		}
	}
	return entry.TeeLocation
}

func (s *RoundService) readSensor(ctx context.Context) *domain.GeoLocation {
	if s.sensor == nil {
		return nil
	}
	sensorCtx, cancel := context.WithTimeout(ctx, constants.SensorTimeout)
	defer cancel()

	loc, err := s.sensor.Current(sensorCtx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("sensor read failed, recording stroke without location")
		return nil
	}
	return &loc
}

// persist mirrors the collection to durable storage, strictly after the
// mutation that produced it. A write failure is logged, never fatal: the
// in-memory state stays authoritative and the next mutation retries.
func (s *RoundService) persist(ctx context.Context) {
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.ReplaceAll(dbCtx, s.rounds); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist round collection")
	}
}

func floorAdd(n, delta int) int {
	if n+delta < 0 {
		return 0
	}
	return n + delta
}
