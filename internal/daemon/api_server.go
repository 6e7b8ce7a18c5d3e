package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docsort/internal/api"
	"docsort/internal/config"
	"docsort/internal/docs"
	"docsort/internal/logging"
	"docsort/internal/settings"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/rows", authMiddleware(token, srv.handleRows))
	mux.HandleFunc("/api/rows/", authMiddleware(token, srv.handleRowAction))
	mux.HandleFunc("/api/deposit", authMiddleware(token, srv.handleDeposit))
	mux.HandleFunc("/api/history", authMiddleware(token, srv.handleHistory))
	mux.HandleFunc("/api/settings", authMiddleware(token, srv.handleSettings))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.FromStatus(status.Pipeline)
	payload.Running = status.Running
	payload.PID = s.daemon.PID()
	payload.Preflight = api.FromPreflight(status.Preflight)
	payload.JournalDBPath = status.JournalDBPath
	payload.LockFilePath = status.LockFilePath
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var status docs.Status
	if value := strings.TrimSpace(r.URL.Query().Get("status")); value != "" {
		parsed, ok := docs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		status = parsed
	}
	var docType docs.DocumentType
	if value := strings.TrimSpace(r.URL.Query().Get("type")); value != "" {
		parsed, ok := docs.ParseDocumentType(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown document type %q", value))
			return
		}
		docType = parsed
	}

	rows, err := s.daemon.Pipeline().Rows(r.Context(), status, docType)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.RowListResponse{Rows: api.FromRows(rows)})
}

// handleRowAction dispatches /api/rows/{id}/resolve, /api/rows/{id}/check,
// and /api/rows/check-all.
func (s *apiServer) handleRowAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/rows/")
	if rest == "check-all" {
		s.handleCheckAll(w, r)
		return
	}

	rowID, action, ok := strings.Cut(rest, "/")
	if !ok || rowID == "" {
		s.writeError(w, http.StatusNotFound, "row not found")
		return
	}

	switch action {
	case "resolve":
		s.handleResolve(w, r, rowID)
	case "check":
		s.handleCheck(w, r, rowID)
	default:
		s.writeError(w, http.StatusNotFound, "unknown row action")
	}
}

func (s *apiServer) handleResolve(w http.ResponseWriter, r *http.Request, rowID string) {
	var req api.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid resolve request")
		return
	}
	docType, ok := docs.ParseDocumentType(req.Type)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown document type %q", req.Type))
		return
	}

	found, err := s.daemon.Pipeline().Resolve(r.Context(), rowID, req.DocNumber, docType, req.SourcePath)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "row not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

func (s *apiServer) handleCheck(w http.ResponseWriter, r *http.Request, rowID string) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid check request")
		return
	}

	found, err := s.daemon.Pipeline().SetChecked(r.Context(), rowID, req.Checked)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "row not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"checked": req.Checked})
}

func (s *apiServer) handleCheckAll(w http.ResponseWriter, r *http.Request) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid check request")
		return
	}

	changed, err := s.daemon.Pipeline().CheckAll(r.Context(), req.Checked)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CheckAllResponse{Changed: changed})
}

func (s *apiServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.daemon.Pipeline().Deposit(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DepositResponse{Deposited: count})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	event := strings.TrimSpace(query.Get("event"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	entries, err := s.daemon.Journal().Recent(r.Context(), event, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromEntries(entries)})
}

func (s *apiServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		current, err := s.daemon.Settings().Load()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.SettingsPayload{
			SourceFolder: current.SourceFolder,
			DestFolder:   current.DestFolder,
			ExportFolder: current.ExportFolder,
		})
	case http.MethodPut:
		var payload api.SettingsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid settings payload")
			return
		}
		current, err := s.daemon.Settings().Load()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		merged := settings.Merge(current, settings.Settings{
			SourceFolder: payload.SourceFolder,
			DestFolder:   payload.DestFolder,
			ExportFolder: payload.ExportFolder,
		})
		if err := s.daemon.Settings().Save(merged); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.SettingsPayload{
			SourceFolder: merged.SourceFolder,
			DestFolder:   merged.DestFolder,
			ExportFolder: merged.ExportFolder,
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
