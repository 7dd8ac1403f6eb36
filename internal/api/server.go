// Package api provides the HTTP API for observing and steering the simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/holdfast/internal/engine"
	"github.com/talgya/holdfast/internal/errs"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/metrics"
	"github.com/talgya/holdfast/internal/persistence"
	"github.com/talgya/holdfast/internal/report"
	"github.com/talgya/holdfast/internal/snapshot"
	"github.com/talgya/holdfast/internal/stronghold"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

// Server serves the game state over HTTP. The simulation is shared with the
// day loop, which must advance it through Do.
type Server struct {
	Sim          *engine.Simulation
	DB           *persistence.DB   // optional
	Metrics      *metrics.Recorder // optional, served at /metrics
	Addr         string
	AdminKey     string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins  []string
	SnapshotPath string
	Seed         int64

	mu  sync.RWMutex
	srv *http.Server
}

// Do runs fn with exclusive access to the simulation.
func (s *Server) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	actionLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/strongholds", s.handleStrongholds)
	mux.HandleFunc("GET /api/v1/strongholds/{id}", s.handleStrongholdDetail)
	mux.HandleFunc("GET /api/v1/legacy", s.handleLegacy)
	mux.HandleFunc("GET /api/v1/messages", s.handleMessages)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/action", s.adminOnly(RateLimitMiddleware(actionLimiter, s.handleAction)))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.srv = &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "", "metrics", s.Metrics != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]any{
		"name":  "Holdfast",
		"day":   s.Sim.Day,
		"date":  engine.SimDate(s.Sim.Day),
		"stats": s.Sim.Stats,
	}
	if l := s.Sim.Legacy; l != nil {
		status["family"] = l.FamilyName
		status["legacy_score"] = l.LegacyScore
	}
	writeJSON(w, status)
}

func (s *Server) handleStrongholds(w http.ResponseWriter, r *http.Request) {
	type strongholdSummary struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Type     stronghold.Type `json:"type"`
		Level    int             `json:"level"`
		Gold     int             `json:"gold"`
		Staff    int             `json:"staff"`
		Threats  int             `json:"threats"`
		Missions int             `json:"missions"`
	}

	s.mu.RLock()
	out := make([]strongholdSummary, 0, len(s.Sim.Strongholds))
	for _, h := range s.Sim.Strongholds {
		out = append(out, strongholdSummary{
			ID:       h.ID,
			Name:     h.Name,
			Type:     h.Type,
			Level:    h.Level,
			Gold:     h.Resources.Gold,
			Staff:    len(h.Staff),
			Threats:  len(h.Threats),
			Missions: len(h.Missions),
		})
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b strongholdSummary) int { return strings.Compare(a.ID, b.ID) })
	writeJSON(w, out)
}

func (s *Server) handleStrongholdDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.Sim.Strongholds[r.PathValue("id")]
	if !ok {
		http.Error(w, "stronghold not found", http.StatusNotFound)
		return
	}
	svc := s.Sim.StrongholdService()
	available := []string{}
	for _, u := range svc.AvailableUpgrades(h) {
		available = append(available, u.ID)
	}
	writeJSON(w, map[string]any{
		"stronghold":         h,
		"defense":            svc.CalculateDefense(h),
		"available_upgrades": available,
	})
}

func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Sim.Legacy == nil {
		http.Error(w, "no legacy started", http.StatusNotFound)
		return
	}
	writeJSON(w, s.Sim.Legacy)
}

// handleMessages returns the newest messages first. Saved messages come from
// the database; without one, the in-memory log is used.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxMessageLimit)
	}

	if s.DB != nil {
		msgs, err := s.DB.RecentMessages(limit)
		if err != nil {
			slog.Error("load messages failed", "error", err)
			http.Error(w, "messages unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, msgs)
		return
	}

	s.mu.RLock()
	out := make([]report.Message, 0, limit)
	for i := len(s.Sim.Messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.Sim.Messages[i])
	}
	s.mu.RUnlock()
	writeJSON(w, out)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.StrongholdService().Catalog().All())
}

// actionRequest is the JSON body of POST /api/v1/action. Type selects the
// action; the remaining fields are read as that action needs them.
type actionRequest struct {
	Type string `json:"type"`

	StrongholdID   string                `json:"stronghold_id,omitempty"`
	StrongholdType string                `json:"stronghold_type,omitempty"`
	LocationID     string                `json:"location_id,omitempty"`
	Name           string                `json:"name,omitempty"`
	Description    string                `json:"description,omitempty"`
	Role           string                `json:"role,omitempty"`
	StaffID        string                `json:"staff_id,omitempty"`
	UpgradeID      string                `json:"upgrade_id,omitempty"`
	MissionType    string                `json:"mission_type,omitempty"`
	Difficulty     int                   `json:"difficulty,omitempty"`
	FamilyName     string                `json:"family_name,omitempty"`
	GrantedBy      string                `json:"granted_by,omitempty"`
	Relation       string                `json:"relation,omitempty"`
	Age            int                   `json:"age,omitempty"`
	Class          string                `json:"class,omitempty"`
	Cost           int                   `json:"cost,omitempty"`
	HeirID         string                `json:"heir_id,omitempty"`
	Gold           int                   `json:"gold,omitempty"`
	Retirement     bool                  `json:"retirement,omitempty"`
	Organizations  []legacy.Organization `json:"organizations,omitempty"`
}

func (req actionRequest) action() (engine.Action, error) {
	switch req.Type {
	case "found_stronghold":
		return engine.FoundStronghold{ID: req.StrongholdID, Name: req.Name, Type: stronghold.Type(req.StrongholdType), LocationID: req.LocationID}, nil
	case "recruit_staff":
		return engine.RecruitStaff{StrongholdID: req.StrongholdID, Name: req.Name, Role: stronghold.Role(req.Role)}, nil
	case "fire_staff":
		return engine.FireStaff{StrongholdID: req.StrongholdID, StaffID: req.StaffID}, nil
	case "purchase_upgrade":
		return engine.PurchaseUpgrade{StrongholdID: req.StrongholdID, UpgradeID: req.UpgradeID}, nil
	case "start_mission":
		return engine.StartMission{
			StrongholdID: req.StrongholdID,
			StaffID:      req.StaffID,
			Type:         stronghold.MissionType(req.MissionType),
			Difficulty:   req.Difficulty,
			Description:  req.Description,
		}, nil
	case "init_legacy":
		return engine.InitLegacy{FamilyName: req.FamilyName}, nil
	case "grant_title":
		return engine.GrantTitle{Name: req.Name, Description: req.Description, GrantedBy: req.GrantedBy}, nil
	case "register_heir":
		return engine.RegisterHeir{Name: req.Name, Relation: req.Relation, Age: req.Age, Class: req.Class}, nil
	case "record_monument":
		return engine.RecordMonument{Name: req.Name, Description: req.Description, LocationID: req.LocationID, Cost: req.Cost}, nil
	case "succession":
		return engine.Succession{HeirID: req.HeirID, Gold: req.Gold, Retirement: req.Retirement, Organizations: req.Organizations}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", req.Type)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	act, err := req.action()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.Sim.Dispatch(act)
	day := s.Sim.Day
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "action": act.ActionName(), "day": day})
}

// handleSnapshot saves the state to the database and writes a snapshot file.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil && s.SnapshotPath == "" {
		http.Error(w, "no snapshot target configured", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DB != nil {
		if err := s.DB.SaveState(s.Sim); err != nil {
			slog.Error("snapshot save failed", "error", err)
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
	}
	if s.SnapshotPath != "" {
		if err := snapshot.Write(s.SnapshotPath, snapshot.FromSimulation(s.Sim, s.Seed)); err != nil {
			slog.Error("snapshot write failed", "path", s.SnapshotPath, "error", err)
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, map[string]any{
		"day":     s.Sim.Day,
		"message": "snapshot saved",
	})
}

// statusFor maps a domain error code to an HTTP status.
func statusFor(err error) int {
	switch errs.CodeOf(err) {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInsufficientResources:
		return http.StatusConflict
	case errs.CodeInvalidOperation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error(), "code": errs.CodeOf(err)}
	var e *errs.Error
	if errors.As(err, &e) {
		body["reason"] = e.Reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
