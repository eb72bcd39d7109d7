package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/metrics"
	"renovation-quote/internal/usecase"
)

const (
	correlationHeader     = "X-Correlation-Id"
	defaultMaxUploadBytes = 32 << 20
)

// ImageDescriber turns one image into a text description.
type ImageDescriber interface {
	Describe(ctx context.Context, imageURL string, role domain.ImageType) (string, error)
}

// ChatUseCase runs the estimation conversation.
type ChatUseCase interface {
	Start(ctx context.Context, in usecase.StartInput) (usecase.ChatOutput, error)
	Continue(ctx context.Context, in usecase.ContinueInput) (usecase.ChatOutput, error)
}

// EstimateUseCase produces a one-shot structured estimate.
type EstimateUseCase interface {
	Generate(ctx context.Context, in usecase.EstimateInput) (usecase.Estimate, error)
}

// LeadUseCase records a visitor's interest level.
type LeadUseCase interface {
	Record(ctx context.Context, in usecase.LeadInput) (domain.Lead, error)
}

// ProjectUseCase saves and reads back renovation projects.
type ProjectUseCase interface {
	Save(ctx context.Context, in usecase.SaveProjectInput) (usecase.SavedProject, error)
	Get(ctx context.Context, id string) (usecase.ProjectDetails, error)
}

// UploadUseCase stores raw image uploads.
type UploadUseCase interface {
	Store(ctx context.Context, files []domain.Upload) ([]usecase.StoredImage, error)
}

// Services groups the use cases behind the HTTP surface.
type Services struct {
	Analyzer ImageDescriber
	Chat     ChatUseCase
	Estimate EstimateUseCase
	Leads    LeadUseCase
	Projects ProjectUseCase
	Uploads  UploadUseCase
}

func (s Services) validate() error {
	switch {
	case s.Analyzer == nil:
		return errors.New("handler: analyzer must not be nil")
	case s.Chat == nil:
		return errors.New("handler: chat service must not be nil")
	case s.Estimate == nil:
		return errors.New("handler: estimate service must not be nil")
	case s.Leads == nil:
		return errors.New("handler: lead service must not be nil")
	case s.Projects == nil:
		return errors.New("handler: project service must not be nil")
	case s.Uploads == nil:
		return errors.New("handler: upload service must not be nil")
	}
	return nil
}

// Handler serves the API over net/http and API Gateway proxy events.
type Handler struct {
	svc            Services
	log            *zap.Logger
	maxUploadBytes int64
	mux            *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxUploadBytes caps request bodies, multipart or JSON.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler validates svc and registers every route.
func NewHandler(svc Services, log *zap.Logger, opts ...Option) (*Handler, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	h := &Handler{
		svc:            svc,
		log:            logger.OrNop(log),
		maxUploadBytes: defaultMaxUploadBytes,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.route("POST /api/analyze-image", "analyze_image", "Failed to analyze image", h.analyzeImage)
	h.route("POST /api/chat", "chat", "Failed to process chat message", h.chat)
	h.route("POST /api/estimate", "estimate", "Failed to process estimate", h.estimate)
	h.route("POST /api/lead", "lead", "Failed to store lead information", h.lead)
	h.route("POST /api/save-project", "save_project", "Failed to save project", h.saveProject)
	h.route("GET /api/projects/{id}", "get_project", "Failed to load project", h.getProject)
	h.route("POST /api/upload", "upload", "Failed to process upload", h.upload)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type apiFunc func(r *http.Request, log *zap.Logger) (any, error)

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// route wraps fn with correlation IDs, request logging, metrics and error
// mapping. failure is the message clients see for every error.
func (h *Handler) route(pattern, name, failure string, fn apiFunc) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		correlationID := strings.TrimSpace(r.Header.Get(correlationHeader))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(correlationHeader, correlationID)
		log := h.log.With(zap.String("correlation_id", correlationID), zap.String("route", name))
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

		status := http.StatusOK
		out, err := fn(r, log)
		if err != nil {
			var body errorResponse
			status, body = mapError(err, failure)
			logError(log, err, status)
			writeJSON(w, status, body)
		} else {
			writeJSON(w, status, out)
		}
		metrics.HTTPRequests.WithLabelValues(name, strconv.Itoa(status)).Inc()
	})
}

// mapError answers every failure with 500 and the route's failure message.
// NOT_FOUND is the exception; only project reads produce it.
func mapError(err error, failure string) (int, errorResponse) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError, errorResponse{Error: failure, Code: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: failure, Code: string(ue.Code), Reason: ue.Reason}
	if ue.Code == usecase.ErrorNotFound {
		return http.StatusNotFound, body
	}
	return http.StatusInternalServerError, body
}

func logError(log *zap.Logger, err error, status int) {
	fields := []zap.Field{zap.Int("status", status), zap.Error(err)}
	var ue *usecase.Error
	if errors.As(err, &ue) {
		fields = append(fields, zap.String("code", string(ue.Code)), zap.String("reason", ue.Reason))
	}
	if ue != nil && (ue.Code == usecase.ErrorInvalidInput || ue.Code == usecase.ErrorNotFound) {
		log.Info("request rejected", fields...)
		return
	}
	log.Error("request failed", fields...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func invalid(reason string, err error) error {
	return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: reason, Err: err}
}
