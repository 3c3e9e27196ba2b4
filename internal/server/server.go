package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"elo-ledger/internal/domain"
	"elo-ledger/internal/ingest"
	"elo-ledger/internal/service"

	"github.com/rs/zerolog"
)

const maxIngestBody = 8 << 20

// RankingsServer is the JSON admin/read surface over the core. Structured
// results only; store errors never leak past the service boundary.
type RankingsServer struct {
	replaySvc *service.ReplayService
	undoSvc   *service.UndoService
	playerSvc *service.PlayerService
	ingestSvc *service.IngestService
	logger    zerolog.Logger
}

func NewRankingsServer(
	replaySvc *service.ReplayService,
	undoSvc *service.UndoService,
	playerSvc *service.PlayerService,
	ingestSvc *service.IngestService,
	logger zerolog.Logger,
) *RankingsServer {
	return &RankingsServer{
		replaySvc: replaySvc,
		undoSvc:   undoSvc,
		playerSvc: playerSvc,
		ingestSvc: ingestSvc,
		logger:    logger,
	}
}

func (s *RankingsServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/replay", s.handleReplay)
	mux.HandleFunc("POST /v1/tournaments/undo", s.handleUndo)
	mux.HandleFunc("POST /v1/tournaments/rollback", s.handleRollback)
	mux.HandleFunc("POST /v1/raw-matches", s.handleIngest)
	mux.HandleFunc("POST /v1/raw-matches/pull", s.handlePullFeed)
	mux.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /v1/players", s.handleSearch)
	mux.HandleFunc("GET /v1/players/{id}", s.handlePlayer)
}

func (s *RankingsServer) handleReplay(w http.ResponseWriter, r *http.Request) {
	summary, err := s.replaySvc.RunFullReplay(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *RankingsServer) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		s.writeError(w, domain.Validation("body must be {\"name\": ...}"))
		return
	}

	result, err := s.undoSvc.UndoTournamentByName(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *RankingsServer) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TournamentID int64 `json:"tournament_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TournamentID <= 0 {
		s.writeError(w, domain.Validation("body must be {\"tournament_id\": ...}"))
		return
	}

	result, err := s.undoSvc.RollbackTournamentByID(r.Context(), req.TournamentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *RankingsServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	var body []byte
	var err error
	if body, err = readBody(r); err != nil {
		s.writeError(w, err)
		return
	}

	records, err := ingest.Decode(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.ingestSvc.IngestRecords(r.Context(), records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *RankingsServer) handlePullFeed(w http.ResponseWriter, r *http.Request) {
	result, err := s.ingestSvc.PullFeed(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *RankingsServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	players, err := s.playerSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *RankingsServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	players, err := s.playerSvc.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *RankingsServer) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, domain.Validation("player id must be an integer"))
		return
	}

	detail, err := s.playerSvc.GetPlayer(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *RankingsServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *RankingsServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrAmbiguousIdentity):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReplayInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrTransientStore):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	} else {
		s.logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}

	s.writeJSON(w, status, map[string]string{
		"error":  http.StatusText(status),
		"detail": err.Error(),
	})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		return nil, domain.Validation("failed to read request body: %v", err)
	}
	return body, nil
}
