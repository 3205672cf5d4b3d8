package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yangwenmai/laosrs/internal/activity"
	"github.com/yangwenmai/laosrs/internal/model"
	"github.com/yangwenmai/laosrs/internal/report"
	"github.com/yangwenmai/laosrs/internal/scheduler"
)

// ---------------------------------------------------------------------------
// POST /api/reviews
// ---------------------------------------------------------------------------

type reviewRequest struct {
	ItemID    string         `json:"itemId"`
	ItemType  model.ItemType `json:"itemType"`
	IsCorrect *bool          `json:"isCorrect"`
}

func (s *Server) handleRecordReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IsCorrect == nil {
		writeError(w, http.StatusBadRequest, "isCorrect is required")
		return
	}

	item, err := s.progress.UpdateItemProgress(r.Context(), req.ItemID, req.ItemType, *req.IsCorrect)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ---------------------------------------------------------------------------
// GET /api/reviews/due
// ---------------------------------------------------------------------------

func (s *Server) handleDueReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.DueForReview())
}

// ---------------------------------------------------------------------------
// GET /api/items
// ---------------------------------------------------------------------------

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("state")
	if raw == "" {
		writeJSON(w, http.StatusOK, s.progress.Items())
		return
	}
	state, err := model.ParseSrsState(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := s.progress.ItemsByState(state)
	if items == nil {
		items = []model.ProgressItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ---------------------------------------------------------------------------
// Analytics
// ---------------------------------------------------------------------------

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.progress.Stats())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Dashboard())
}

type badgesResponse struct {
	Earned []scheduler.Badge `json:"earned"`
	All    []scheduler.Badge `json:"all"`
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, badgesResponse{
		Earned: s.scheduler.EarnedBadges(),
		All:    s.scheduler.AllBadges(),
	})
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	current, err := strconv.Atoi(r.URL.Query().Get("current"))
	if err != nil || current < scheduler.MinDifficulty || current > scheduler.MaxDifficulty {
		writeError(w, http.StatusBadRequest, "current must be an integer between 1 and 4")
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.RecommendDifficulty(current))
}

// ---------------------------------------------------------------------------
// Levels
// ---------------------------------------------------------------------------

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	level, ok := s.progress.LevelProgress(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "level not found")
		return
	}
	writeJSON(w, http.StatusOK, level)
}

func (s *Server) handleUnlockLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.progress.UnlockLevel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.progress.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	settings, err := s.progress.UpdateSettings(r.Context(), patch)
	if errors.Is(err, model.ErrInvalidSettings) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ---------------------------------------------------------------------------
// Export / import / reset
// ---------------------------------------------------------------------------

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.progress.ExportProgress()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export progress")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="progress.json"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap := s.progress.Snapshot()
	f, err := report.Build(snap.Items, snap.Stats, s.loc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="progress.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		s.log.WithError(err).Error("write xlsx")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if !s.progress.ImportProgress(r.Context(), string(raw)) {
		msg := "invalid progress document"
		if err := s.progress.Err(); err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Dashboard())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.progress.ClearAllProgress(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Activity sessions
// ---------------------------------------------------------------------------

type sessionsResponse struct {
	ActiveSessionIDs []string           `json:"activeSessionIds"`
	Ticket           *activity.Ticket   `json:"ticket"`
	LastEvidence     *activity.Evidence `json:"lastEvidence"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	resp := sessionsResponse{ActiveSessionIDs: s.bridge.ActiveSessionIDs()}
	if t, ok := s.bridge.Ticket(); ok {
		resp.Ticket = &t
	}
	if ev, ok := s.bridge.LastEvidence(); ok {
		resp.LastEvidence = &ev
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req activity.TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Theme == "" {
		req.Theme = s.progress.Settings().Theme
	}
	ticket, err := s.bridge.CreateTicket(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.bridge.InjectTicket(ticket)
	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var ev activity.Evidence
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if ev.SessionID == "" {
		ev.SessionID = id
	}
	if ev.SessionID != id {
		writeError(w, http.StatusBadRequest, "sessionId does not match path")
		return
	}

	err := s.bridge.SubmitEvidence(r.Context(), ev)
	if errors.Is(err, activity.ErrInvalidEvidence) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("session_id", id).Error("apply evidence")
		writeError(w, http.StatusInternalServerError, "failed to apply evidence")
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Dashboard())
}
