package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dasmlab/translateapi/pkg/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxBodyBytes caps the size of a /translate request body.
	DefaultMaxBodyBytes = 1 << 20

	healthCheckTimeout = 5 * time.Second

	// defaultWriteTimeout is raised when the provider timeout leaves less
	// than writeTimeoutMargin to write the response.
	defaultWriteTimeout = 2 * time.Minute
	writeTimeoutMargin  = 10 * time.Second
)

// Options configures an HTTPServer.
type Options struct {
	// Addr is the listen address, e.g. "0.0.0.0:8080".
	Addr string
	// Engine is reported by /health.
	Engine string
	// MaxBodyBytes caps request bodies; DefaultMaxBodyBytes when zero.
	MaxBodyBytes int64
}

// HTTPServer serves the translation endpoint plus health, language and
// metrics routes.
type HTTPServer struct {
	service      *service.TranslationService
	logger       *logrus.Logger
	engine       string
	maxBodyBytes int64
	server       *http.Server
}

// NewHTTPServer creates a new HTTP server around svc.
func NewHTTPServer(svc *service.TranslationService, logger *logrus.Logger, opts Options) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &HTTPServer{
		service:      svc,
		logger:       logger,
		engine:       opts.Engine,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(svc),
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// writeTimeout keeps the connection open long enough for a provider call that
// runs to its timeout to still be answered with a JSON 500.
func writeTimeout(svc *service.TranslationService) time.Duration {
	if svc == nil || svc.Timeout+writeTimeoutMargin <= defaultWriteTimeout {
		return defaultWriteTimeout
	}
	return svc.Timeout + writeTimeoutMargin
}

// Handler returns the fully wrapped route tree.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/translate", s.handleTranslate)
	mux.HandleFunc("/languages", s.handleLanguages)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Preflights are answered by CORS before a request ID is assigned.
	return CORS(RequestContext(s.logger, mux))
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener. It returns nil after Shutdown.
func (s *HTTPServer) Serve(lis net.Listener) error {
	s.logger.WithFields(logrus.Fields{
		"addr": lis.Addr().String(),
	}).Info("HTTP server listening")

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// translateBody is the /translate request body. JSON null leaves a field
// empty, which the service then treats as absent.
type translateBody struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResult struct {
	TranslatedText string `json:"translatedText"`
}

type errorBody struct {
	Error string `json:"error"`
}

// handleTranslate handles POST /translate.
func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	log := LoggerFrom(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	req, err := s.decodeTranslate(w, r)
	if err != nil {
		log.WithError(err).Debug("Rejected translate request body")
		s.writeServiceError(w, err)
		return
	}

	translated, err := s.service.TranslateWithLogger(r.Context(), log, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, translateResult{TranslatedText: translated})
}

func (s *HTTPServer) decodeTranslate(w http.ResponseWriter, r *http.Request) (service.Request, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.Request{}, service.NewValidationError("Request body exceeds %d bytes", tooLarge.Limit)
		}
		return service.Request{}, service.NewValidationError("Invalid JSON body: %v", err)
	}

	var body translateBody
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return service.Request{}, service.NewValidationError("Invalid JSON body: %v", err)
		}
	}

	return service.Request{
		Text:   body.Text,
		Source: body.Source,
		Target: body.Target,
	}, nil
}

// writeServiceError maps validation failures to 400 and everything else to 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error()})
		return
	}

	msg := err.Error()
	if msg == "" {
		msg = "translation failed"
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
}

// handleLanguages lists the provider's language codes.
func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	langs, err := s.service.SupportedLanguages(r.Context())
	if err != nil {
		LoggerFrom(r.Context()).WithError(err).Error("Failed to list languages")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if langs == nil {
		langs = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": langs,
	})
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.service.CheckHealth(ctx); err != nil {
		LoggerFrom(r.Context()).WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"engine": s.engine,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"engine": s.engine,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
