package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/daemon"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// Server exposes daemon control over HTTP on the configured bind address.
type Server struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	token    string
	listener net.Listener
	server   *http.Server
}

// NewServer configures the HTTP API server. The listener is opened
// immediately so callers can report the effective address before serving.
func NewServer(bind, token string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("api server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(bind) == "" {
		bind = "127.0.0.1:7878"
	}

	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", bind, err)
	}

	s := &Server{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "api"),
		token:  strings.TrimSpace(token),
	}
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.listener = listener
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() {
	s.logger.Info("api server listening", logging.String("addr", s.Addr()))
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", logging.Error(err))
		}
	}()
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("api server shutdown", logging.Error(err))
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/queue", s.handleQueueList)
	mux.HandleFunc("POST /api/queue", s.handleQueueAdd)
	mux.HandleFunc("GET /api/queue/{id}", s.handleQueueGet)
	mux.HandleFunc("DELETE /api/queue/{id}", s.handleQueueRemove)
	mux.HandleFunc("POST /api/queue/retry", s.handleQueueRetry)
	mux.HandleFunc("POST /api/queue/reset", s.handleQueueReset)
	mux.HandleFunc("POST /api/queue/clear", s.handleQueueClear)
	mux.HandleFunc("POST /api/notifications/test", s.handleNotificationTest)
	return s.authenticate(mux)
}

// authenticate enforces bearer token auth when a token is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			supplied, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(supplied)), []byte(s.token)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	resp := StatusResponse{
		Running:     status.Running,
		PID:         status.PID,
		QueueStats:  make(map[string]int, len(status.QueueStats)),
		LastError:   status.LastError,
		QueueDBPath: status.QueueDBPath,
		LockPath:    status.LockFilePath,
	}
	for k, v := range status.QueueStats {
		resp.QueueStats[string(k)] = v
	}
	resp.StageHealth = make([]StageHealth, 0, len(status.StageHealth))
	for _, health := range status.StageHealth {
		resp.StageHealth = append(resp.StageHealth, FromStageHealth(health))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.daemon.QueueHealth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Total:      health.Total,
		Pending:    health.Pending,
		Processing: health.Processing,
		Failed:     health.Failed,
		Review:     health.Review,
		Completed:  health.Completed,
	})
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, raw := range r.URL.Query()["status"] {
		if parsed, ok := queue.ParseStatus(raw); ok {
			statuses = append(statuses, parsed)
		}
	}
	items, err := s.daemon.ListQueue(r.Context(), statuses)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := QueueListResponse{Items: make([]QueueItem, 0, len(items))}
	for _, item := range items {
		if item == nil {
			continue
		}
		resp.Items = append(resp.Items, FromQueueItem(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var req AddTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.daemon.AddTopic(r.Context(), req.Topic)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, FromQueueItem(item))
}

func (s *Server) handleQueueGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}
	item, err := s.daemon.GetQueueItem(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("queue item %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, FromQueueItem(item))
}

func (s *Server) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}
	removed, err := s.daemon.RemoveItem(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("queue item %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: 1})
}

func (s *Server) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	var req RetryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	updated, err := s.daemon.RetryFailed(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: updated})
}

func (s *Server) handleQueueReset(w http.ResponseWriter, r *http.Request) {
	updated, err := s.daemon.ResetStuck(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: updated})
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	var (
		removed int64
		err     error
	)
	switch scope := strings.TrimSpace(r.URL.Query().Get("scope")); scope {
	case "", "all":
		removed, err = s.daemon.ClearQueue(r.Context())
	case "completed":
		removed, err = s.daemon.ClearCompleted(r.Context())
	case "failed":
		removed, err = s.daemon.ClearFailed(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown clear scope %q", scope))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: removed})
}

func (s *Server) handleNotificationTest(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, message)
		return
	}
	writeJSON(w, http.StatusOK, NotificationTestResponse{Sent: sent, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
