package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"golf-tracker/internal/course"
	"golf-tracker/internal/domain"
	"golf-tracker/internal/score"
	"golf-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TrackerServer is the thin HTTP surface over the round store and the sync
// reconciler: round list, active play, and scorecard review.
type TrackerServer struct {
	rounds  *service.RoundService
	sync    *service.SyncService
	catalog *course.Catalog
	logger  zerolog.Logger
}

func NewTrackerServer(rounds *service.RoundService, syncSvc *service.SyncService, catalog *course.Catalog, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{rounds: rounds, sync: syncSvc, catalog: catalog, logger: logger}
}

func (s *TrackerServer) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/course", s.handleCourse)

	r.Route("/rounds", func(r chi.Router) {
		r.Get("/", s.handleListRounds)
		r.Post("/", s.handleCreateRound)

		r.Get("/current", s.handleCurrentRound)
		r.Post("/current/score", s.handleUpdateScore)
		r.Post("/current/advance", s.handleAdvance)

		r.Route("/{roundID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteRound)
			r.Post("/select", s.handleSelectRound)
			r.Post("/finish", s.handleFinishRound)
			r.Post("/sync", s.handleSyncRound)
			r.Get("/scorecard", s.handleScorecard)
		})
	})

	r.Route("/sync", func(r chi.Router) {
		r.Get("/conflict", s.handleConflict)
		r.Post("/resolve", s.handleResolve)
	})

	return r
}

func (s *TrackerServer) handleCourse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"holes":    s.catalog.Holes(),
		"totalPar": s.catalog.TotalPar(),
	})
}

func (s *TrackerServer) handleListRounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rounds": s.rounds.Metadata(r.Context()),
	})
}

type createRoundRequest struct {
	StartingHoleNumber int `json:"startingHoleNumber"`
}

func (s *TrackerServer) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req createRoundRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	round, err := s.rounds.Create(r.Context(), req.StartingHoleNumber)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

func (s *TrackerServer) handleSelectRound(w http.ResponseWriter, r *http.Request) {
	// Unknown ids are a deliberate no-op; the client re-reads state anyway.
	s.rounds.Select(r.Context(), chi.URLParam(r, "roundID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	if !s.rounds.Delete(r.Context(), roundID) {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}

	resp := map[string]any{"deleted": true}
	if err := s.sync.DeleteRemote(r.Context(), roundID); err != nil {
		// Local delete stands; the round may reappear after the next sync.
		resp["warning"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *TrackerServer) handleFinishRound(w http.ResponseWriter, r *http.Request) {
	s.rounds.Finish(r.Context(), chi.URLParam(r, "roundID"))
	// The remote push is asynchronous; local finish already committed.
	w.WriteHeader(http.StatusAccepted)
}

func (s *TrackerServer) handleSyncRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")
	if err := s.sync.PushRound(r.Context(), roundID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": true})
}

func (s *TrackerServer) handleCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, ok := s.rounds.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no current round")
		return
	}

	hole, _ := s.catalog.At(round.CurrentHoleIndex)
	writeJSON(w, http.StatusOK, map[string]any{
		"round":         round,
		"hole":          hole,
		"totalScore":    score.Total(round.Scores),
		"relativeScore": score.Relative(s.catalog, round.Scores),
	})
}

type updateScoreRequest struct {
	RoundID    string              `json:"roundId,omitempty"`
	HoleNumber int                 `json:"holeNumber,omitempty"`
	Kind       string              `json:"kind"`
	Delta      int                 `json:"delta"`
	Club       string              `json:"club,omitempty"`
	Location   *domain.GeoLocation `json:"location,omitempty"`
}

func (s *TrackerServer) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var req updateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := service.ParseStrokeKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		writeError(w, http.StatusBadRequest, "delta must be +1 or -1")
		return
	}

	var club *domain.Club
	if req.Club != "" {
		c := domain.Club(req.Club)
		if !c.Valid() {
			writeError(w, http.StatusBadRequest, "unknown club")
			return
		}
		club = &c
	}

	roundID := req.RoundID
	holeNumber := req.HoleNumber
	if roundID == "" || holeNumber == 0 {
		current, ok := s.rounds.Current()
		if !ok {
			writeError(w, http.StatusNotFound, "no current round")
			return
		}
		if roundID == "" {
			roundID = current.ID
		}
		if holeNumber == 0 {
			if hole, ok := s.catalog.At(current.CurrentHoleIndex); ok {
				holeNumber = hole.Number
			}
		}
	}

	entry, err := s.rounds.UpdateScore(r.Context(), roundID, holeNumber, kind, req.Delta, club, req.Location)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type advanceRequest struct {
	Direction string `json:"direction"`
}

func (s *TrackerServer) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	direction, err := service.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hole, err := s.rounds.Advance(r.Context(), direction)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hole)
}

func (s *TrackerServer) handleScorecard(w http.ResponseWriter, r *http.Request) {
	round, ok := s.rounds.Get(chi.URLParam(r, "roundID"))
	if !ok {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"round":         round,
		"holes":         s.catalog.Holes(),
		"totalScore":    score.Total(round.Scores),
		"relativeScore": score.Relative(s.catalog, round.Scores),
		"holesPlayed":   score.HolesPlayed(round.Scores),
	})
}

func (s *TrackerServer) handleConflict(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.Conflict())
}

type resolveRequest struct {
	Keep bool `json:"keep"`
}

func (s *TrackerServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.sync.Resolve(r.Context(), req.Keep); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolved": true, "kept": req.Keep})
}

func (s *TrackerServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoundFinished), errors.Is(err, service.ErrSyncInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownHole):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoCurrentRound), errors.Is(err, service.ErrNoConflict):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
