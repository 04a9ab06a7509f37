package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/siteqa"
	"github.com/google/uuid"
)

// Request limits.
const (
	MaxMessageChars = 1000
	maxRequestBytes = 64 << 10

	ShutdownTimeout = 10 * time.Second
)

// Server serves the question answering API:
//
//	POST /api/chat     answer a question
//	GET  /api/health   index and model status
//	POST /api/rebuild  rebuild the index from stored documents
type Server struct {
	ln     net.Listener
	server *http.Server

	// Addr is the bind address, e.g. "127.0.0.1:8080". Set before Open.
	Addr string

	Answerer siteqa.Answerer
	Admin    siteqa.IndexAdmin
	Logger   *slog.Logger
}

// NewServer creates a Server. Call Open to start listening.
func NewServer(answerer siteqa.Answerer, admin siteqa.IndexAdmin, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{Answerer: answerer, Admin: admin, Logger: logger}
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the API routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/rebuild", s.handleRebuild)
	return s.logRequests(mux)
}

// Open binds to Addr and serves in the background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return siteqa.Errorf(siteqa.ECONFIG, "listen on %s: %v", s.Addr, err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

// chatResponse is an AnswerResult tagged with the conversation id.
type chatResponse struct {
	*siteqa.AnswerResult
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeError(w, r, siteqa.Errorf(siteqa.EINVALID, "invalid JSON body"))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.writeError(w, r, siteqa.Errorf(siteqa.EINVALID, "message required"))
		return
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		s.writeError(w, r, siteqa.Errorf(siteqa.EINVALID, "message must be at most %d characters", MaxMessageChars))
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	res, err := s.Answerer.AnswerQuestion(r.Context(), message, req.Debug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{AnswerResult: res, ConversationID: conversationID})
}

// handleHealth responds 503 when the index cannot be served.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.Admin.Health(r.Context())
	status := http.StatusOK
	if h.Status != siteqa.HealthOK {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, h)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	res, err := s.Admin.RebuildIndex(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// errorStatus maps application error codes to HTTP status codes.
var errorStatus = map[string]int{
	siteqa.EINVALID:     http.StatusBadRequest,
	siteqa.ENOTFOUND:    http.StatusNotFound,
	siteqa.ECONFLICT:    http.StatusConflict,
	siteqa.ERATELIMITED: http.StatusTooManyRequests,
	siteqa.EUNAVAILABLE: http.StatusServiceUnavailable,
}

// ErrorStatusCode returns the HTTP status for an application error code.
func ErrorStatusCode(code string) int {
	if status, ok := errorStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := siteqa.ErrorCode(err)
	status := ErrorStatusCode(code)

	message := siteqa.ErrorMessage(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
		message = "Internal error."
	}
	if retry := siteqa.ErrorRetryAfter(err); retry > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("writing response", "err", err)
	}
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func(begin time.Time) {
			s.Logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(rec, r)
	})
}
