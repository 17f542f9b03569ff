package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mrericsingh-eng/normalize/internal/processing"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 100

	// statusClientClosed is nginx's code for a client that hung up first.
	statusClientClosed = 499

	internalErrorDetail = "An internal error occurred"
)

// Error kinds reported in the "error" field.
const (
	kindBadRequest       = "BadRequest"
	kindNotFound         = "NotFound"
	kindMethodNotAllowed = "MethodNotAllowed"
	kindInternal         = "InternalError"
	kindUnavailable      = "Unavailable"
	kindCanceled         = "Canceled"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Server is the HTTP front of the processor.
type Server struct {
	proc   *processing.Processor
	stats  *Stats
	logger *zap.Logger
	mux    *http.ServeMux
}

func NewServer(proc *processing.Processor, stats *Stats, logger *zap.Logger) *Server {
	if stats == nil {
		stats = NewStats()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{proc: proc, stats: stats, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Router returns the mux wrapped in request ID, logging and recovery
// middleware.
func (s *Server) Router() http.Handler {
	return withRequestID(s.withLogging(s.withRecovery(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleNotFound)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/normalize", s.handleNormalize)
	s.mux.HandleFunc("/normalize/batch", s.handleBatch)
	s.mux.HandleFunc("/stats", s.handleStats)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, kindNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// POST /normalize: one message in, one normalized record out.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.stats.AddRequest()

	var in processing.NormalizeIn
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	if err := validate(in); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}

	out, err := s.proc.Normalize(r.Context(), in)
	if err != nil {
		s.writeProcessingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /normalize/batch: 1..100 messages, answered in input order.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.stats.AddRequest()

	var ins []processing.NormalizeIn
	if err := decodeBody(w, r, &ins); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	if len(ins) == 0 || len(ins) > maxBatchSize {
		writeError(w, http.StatusBadRequest, kindBadRequest,
			fmt.Sprintf("batch must hold 1 to %d messages, got %d", maxBatchSize, len(ins)))
		return
	}
	for i, in := range ins {
		if err := validate(in); err != nil {
			writeError(w, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("item %d: %v", i, err))
			return
		}
	}

	outs, err := s.proc.NormalizeBatch(r.Context(), ins)
	if err != nil {
		s.writeProcessingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outs)
}

// GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) writeProcessingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, processing.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "server is shutting down")
		return
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		s.logger.Debug("client went away",
			zap.String("request_id", RequestID(r.Context())))
		writeError(w, statusClientClosed, kindCanceled, "request canceled by client")
		return
	}
	s.logger.Error("normalize failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, kindInternal, internalErrorDetail)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, kindMethodNotAllowed,
		fmt.Sprintf("%s not allowed, use %s", r.Method, method))
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &tooBig):
			return fmt.Errorf("request body exceeds %d bytes", tooBig.Limit)
		case errors.As(err, &typeErr) && typeErr.Field == "":
			return fmt.Errorf("body must be a JSON %s, got %s", jsonKind(v), typeErr.Value)
		case errors.As(err, &typeErr):
			return fmt.Errorf("field %q must be a %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		default:
			return fmt.Errorf("invalid JSON body: %v", err)
		}
	}
	return nil
}

func jsonKind(v any) string {
	if _, ok := v.(*[]processing.NormalizeIn); ok {
		return "array"
	}
	return "object"
}

func validate(in processing.NormalizeIn) error {
	if strings.TrimSpace(in.MessageID) == "" {
		return errors.New("message_id is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorBody{Error: kind, Detail: detail})
}
