package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/PabloGalante/vision-relay/internal/app/vision"
	"github.com/PabloGalante/vision-relay/internal/domain"
	"github.com/PabloGalante/vision-relay/internal/observability"
)

const (
	DefaultMaxUploadBytes = 20 << 20
	multipartMemory       = 32 << 20
)

type Options struct {
	// MaxUploadBytes caps the multipart body. <= 0 uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

type Server struct {
	svc            *vision.Service
	maxUploadBytes int64
}

func NewServer(svc *vision.Service, opts Options) http.Handler {
	s := &Server{svc: svc, maxUploadBytes: opts.MaxUploadBytes}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultMaxUploadBytes
	}

	mux := http.NewServeMux()

	// /api/vision → analyze an uploaded image (POST, multipart)
	mux.HandleFunc("/api/vision", s.handleVision)

	// /api/assistants → catalog (GET)
	mux.HandleFunc("/api/assistants", s.handleAssistants)

	// /api/queries → recent query ledger (GET)
	mux.HandleFunc("/api/queries", s.handleQueries)

	mux.HandleFunc("/healthz", s.handleHealthz)

	return chainMiddlewares(mux,
		withRecover,
		withLogging,
		withRequestID,
		withCORS,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type visionResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

type assistantResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
}

type listAssistantsResponse struct {
	Assistants []assistantResponse `json:"assistants"`
}

type queryResponse struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id,omitempty"`
	Assistant   string    `json:"assistant"`
	Backend     string    `json:"backend"`
	Prompt      string    `json:"prompt"`
	ImageBytes  int       `json:"image_bytes"`
	ThreadID    string    `json:"thread_id,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
	Polls       int       `json:"polls"`
	Outcome     string    `json:"outcome"`
	FailureKind string    `json:"failure_kind,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	DurationMS  int64     `json:"duration_ms"`
}

type listQueriesResponse struct {
	Queries []queryResponse `json:"queries"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: domain.MsgImageTooLarge + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return
		}
		// Not multipart at all: there is no image part to read.
		badRequest(w, domain.MsgNoImage)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, domain.MsgNoImage)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		internalError(w, err)
		return
	}
	if len(image) == 0 {
		badRequest(w, domain.MsgNoImage)
		return
	}

	// The query runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())

	reply, err := s.svc.Analyze(ctx, vision.AnalyzeInput{
		Prompt:    r.FormValue("prompt"),
		Image:     image,
		MIMEType:  header.Header.Get("Content-Type"),
		Assistant: r.FormValue("assistant"),
		RequestID: observability.RequestIDFromContext(ctx),
	})
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, visionResponse{Response: reply.Text})
}

func (s *Server) handleAssistants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	list := s.svc.Assistants()
	def, _ := s.svc.DefaultAssistant()

	resp := listAssistantsResponse{Assistants: make([]assistantResponse, 0, len(list))}
	for _, a := range list {
		resp.Assistants = append(resp.Assistants, assistantResponse{
			ID:          a.Slug,
			Name:        a.Name,
			Description: a.Description,
			Default:     a.Slug == def.Slug,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.svc.RecentQueries(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := listQueriesResponse{Queries: make([]queryResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Queries = append(resp.Queries, toQueryResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Query Helpers
// ─────────────────────────────────────────────

func toQueryResponse(rec *domain.QueryRecord) queryResponse {
	return queryResponse{
		ID:          string(rec.ID),
		RequestID:   rec.RequestID,
		Assistant:   rec.Assistant,
		Backend:     rec.Backend,
		Prompt:      rec.Prompt,
		ImageBytes:  rec.ImageBytes,
		ThreadID:    string(rec.ThreadID),
		RunID:       string(rec.RunID),
		Polls:       rec.Polls,
		Outcome:     string(rec.Outcome),
		FailureKind: string(rec.FailureKind),
		Stage:       string(rec.Stage),
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		DurationMS:  rec.Duration.Milliseconds(),
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure renders any query error as {"error", "details"}.
func writeFailure(w http.ResponseWriter, err error) {
	f := domain.AsFailure(err)
	writeJSON(w, f.HTTPStatus(), errorResponse{
		Error:   f.Message,
		Details: f.Details,
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
