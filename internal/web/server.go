package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/controller"
	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/logging"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server represents the HTTP API server
type Server struct {
	port    int
	logger  *logging.Logger
	cfg     *config.Config
	ctrl    *controller.Controller
	limiter *RateLimiter
}

// NewServer creates a new web server from the global configuration
func NewServer(port int) *Server {
	cfg := config.Get()

	logger, err := logging.New(controller.LoggerConfig(cfg, "web"))
	if err != nil {
		logger = logging.GetDefault()
	}
	return NewServerWithController(port, cfg, controller.NewWithConfig(cfg, logger), logger)
}

// NewServerWithController creates a server around an existing controller
func NewServerWithController(port int, cfg *config.Config, ctrl *controller.Controller, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		port:    port,
		logger:  logger,
		cfg:     cfg,
		ctrl:    ctrl,
		limiter: NewRateLimiter(cfg.Server.RateLimit.RequestsPerMinute, cfg.Server.RateLimit.Burst),
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	api := func(h http.HandlerFunc) http.Handler {
		return s.limiter.Middleware(requireAPIKey(s.cfg.Server.APIKey, h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/nli/parse", api(s.handleParse))
	mux.Handle("GET /api/nli/examples", api(s.handleExamples))
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return withRequestID(logRequest(s.logger, mux))
}

// Start starts the web server
func (s *Server) Start() error {
	return s.Run(context.Background())
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API at http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// StatusFor maps a controller error onto an HTTP status code
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeParseRequest decodes and validates the JSON body of a parse call
func DecodeParseRequest(data []byte) (controller.ParseRequest, error) {
	var req controller.ParseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return req, nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	var req controller.ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.logger.Warn("Failed to decode request: %v", err)
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx := r.Context()
	if timeout := s.cfg.Engine.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := s.ctrl.Parse(ctx, req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Parse failed: %v", err)
		}
		writeError(w, r, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Examples())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health())
}

func (s *Server) health() HealthResponse {
	cache := "disabled"
	if s.ctrl.CacheStats().Enabled {
		cache = "enabled"
	}
	return HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Checks: map[string]string{
			"engine": "ok",
			"cache":  cache,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Success:   false,
		Error:     msg,
		RequestID: RequestID(r.Context()),
	})
}
