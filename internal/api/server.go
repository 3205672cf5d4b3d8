package api

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yangwenmai/laosrs/internal/activity"
	"github.com/yangwenmai/laosrs/internal/progress"
	"github.com/yangwenmai/laosrs/internal/scheduler"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Deps are the components the HTTP layer serves.
type Deps struct {
	Progress  *progress.Store
	Scheduler *scheduler.Scheduler
	Bridge    *activity.Bridge

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
	// Location is used for dates in spreadsheet exports. Defaults to UTC.
	Location *time.Location
	Logger   log.FieldLogger
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	progress  *progress.Store
	scheduler *scheduler.Scheduler
	bridge    *activity.Bridge
	origin    string
	loc       *time.Location
	log       log.FieldLogger
	mux       *http.ServeMux
}

// New creates a new API server.
func New(d Deps) *Server {
	srv := &Server{
		progress:  d.Progress,
		scheduler: d.Scheduler,
		bridge:    d.Bridge,
		origin:    d.CORSOrigin,
		loc:       d.Location,
		log:       d.Logger,
		mux:       http.NewServeMux(),
	}
	if srv.origin == "" {
		srv.origin = "*"
	}
	if srv.loc == nil {
		srv.loc = time.UTC
	}
	if srv.log == nil {
		srv.log = log.StandardLogger()
	}
	srv.log = srv.log.WithField("component", "api")
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.cors(limitBody(jsonContent(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/reviews", s.handleRecordReview)
	s.mux.HandleFunc("GET /api/reviews/due", s.handleDueReviews)
	s.mux.HandleFunc("GET /api/items", s.handleListItems)

	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/badges", s.handleBadges)
	s.mux.HandleFunc("GET /api/difficulty", s.handleDifficulty)

	s.mux.HandleFunc("GET /api/levels/{id}", s.handleGetLevel)
	s.mux.HandleFunc("POST /api/levels/{id}/unlock", s.handleUnlockLevel)

	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)

	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("GET /api/export.xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("DELETE /api/progress", s.handleClear)

	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/evidence", s.handleSubmitEvidence)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := s.log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
