package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/usecase"
)

type analyzeImageRequest struct {
	Base64Image    string `json:"base64Image"`
	IsCurrentState bool   `json:"isCurrentState"`
}

type analyzeImageResponse struct {
	Description string `json:"description"`
}

func (h *Handler) analyzeImage(r *http.Request, _ *zap.Logger) (any, error) {
	var req analyzeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	role := domain.ImageDesired
	if req.IsCurrentState {
		role = domain.ImageCurrent
	}
	desc, err := h.svc.Analyzer.Describe(r.Context(), req.Base64Image, role)
	if err != nil {
		return nil, err
	}
	return analyzeImageResponse{Description: desc}, nil
}

type chatRequest struct {
	IsInitial      bool             `json:"isInitial"`
	Description    string           `json:"description"`
	Timeline       string           `json:"timeline"`
	CurrentImages  []string         `json:"currentImages"`
	DesiredImages  []string         `json:"desiredImages"`
	ConversationID string           `json:"conversationId"`
	Message        string           `json:"message"`
	Messages       []domain.Message `json:"messages"`
}

type chatResponse struct {
	ConversationID string             `json:"conversationId"`
	Message        string             `json:"message"`
	PriceRange     *domain.PriceRange `json:"priceRange,omitempty"`
}

func (h *Handler) chat(r *http.Request, log *zap.Logger) (any, error) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	var (
		out usecase.ChatOutput
		err error
	)
	if req.IsInitial {
		out, err = h.svc.Chat.Start(r.Context(), usecase.StartInput{
			Description:   req.Description,
			Timeline:      req.Timeline,
			CurrentImages: req.CurrentImages,
			DesiredImages: req.DesiredImages,
		})
	} else {
		out, err = h.svc.Chat.Continue(r.Context(), usecase.ContinueInput{
			ConversationID: req.ConversationID,
			Message:        req.Message,
			History:        req.Messages,
		})
	}
	if err != nil {
		return nil, err
	}
	log.Debug("chat reply", zap.String("conversation_id", out.ConversationID), zap.Bool("initial", req.IsInitial))
	return chatResponse{
		ConversationID: out.ConversationID,
		Message:        out.Message.Content,
		PriceRange:     out.Message.PriceRange,
	}, nil
}

func (h *Handler) estimate(r *http.Request, _ *zap.Logger) (any, error) {
	if err := h.parseMultipart(r); err != nil {
		return nil, err
	}
	current, err := formFiles(r, "currentImages")
	if err != nil {
		return nil, err
	}
	desired, err := formFiles(r, "desiredImages")
	if err != nil {
		return nil, err
	}
	return h.svc.Estimate.Generate(r.Context(), usecase.EstimateInput{
		Description:   r.FormValue("description"),
		CurrentImages: dataURLs(current),
		DesiredImages: dataURLs(desired),
	})
}

type leadRequest struct {
	ConversationID string           `json:"conversationId"`
	InterestLevel  string           `json:"interestLevel"`
	Timestamp      string           `json:"timestamp"`
	ChatHistory    []domain.Message `json:"chatHistory"`
	Feedback       *domain.Feedback `json:"feedback,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) lead(r *http.Request, _ *zap.Logger) (any, error) {
	var req leadRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if _, err := h.svc.Leads.Record(r.Context(), usecase.LeadInput{
		ConversationID: req.ConversationID,
		InterestLevel:  req.InterestLevel,
		Timestamp:      req.Timestamp,
		ChatHistory:    req.ChatHistory,
		Feedback:       req.Feedback,
	}); err != nil {
		return nil, err
	}
	return successResponse{Success: true}, nil
}

type saveProjectRequest struct {
	RenovationType    string  `json:"renovation_type"`
	InitialPrompt     string  `json:"initial_prompt"`
	MinPrice          *int    `json:"min_price"`
	MaxPrice          *int    `json:"max_price"`
	InterestLevel     string  `json:"interest_level"`
	EstimatedTimeline *string `json:"estimated_timeline"`
}

type projectResponse struct {
	Project usecase.SavedProject `json:"project"`
}

// saveProject accepts JSON fields only, or multipart fields plus image files.
func (h *Handler) saveProject(r *http.Request, _ *zap.Logger) (any, error) {
	var (
		req     saveProjectRequest
		current []domain.Upload
		desired []domain.Upload
	)
	if isMultipart(r) {
		if err := h.parseMultipart(r); err != nil {
			return nil, err
		}
		var err error
		if req, err = projectFromForm(r); err != nil {
			return nil, err
		}
		if current, err = formFiles(r, "currentImages"); err != nil {
			return nil, err
		}
		if desired, err = formFiles(r, "desiredImages"); err != nil {
			return nil, err
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	saved, err := h.svc.Projects.Save(r.Context(), usecase.SaveProjectInput{
		RenovationType:    req.RenovationType,
		InitialPrompt:     req.InitialPrompt,
		MinPrice:          req.MinPrice,
		MaxPrice:          req.MaxPrice,
		InterestLevel:     req.InterestLevel,
		EstimatedTimeline: req.EstimatedTimeline,
		CurrentImages:     current,
		DesiredImages:     desired,
	})
	if err != nil {
		return nil, err
	}
	return projectResponse{Project: saved}, nil
}

func projectFromForm(r *http.Request) (saveProjectRequest, error) {
	req := saveProjectRequest{
		RenovationType: r.FormValue("renovation_type"),
		InitialPrompt:  r.FormValue("initial_prompt"),
		InterestLevel:  r.FormValue("interest_level"),
	}
	var err error
	if req.MinPrice, err = formInt(r, "min_price"); err != nil {
		return saveProjectRequest{}, err
	}
	if req.MaxPrice, err = formInt(r, "max_price"); err != nil {
		return saveProjectRequest{}, err
	}
	if v := strings.TrimSpace(r.FormValue("estimated_timeline")); v != "" {
		req.EstimatedTimeline = &v
	}
	return req, nil
}

func (h *Handler) getProject(r *http.Request, _ *zap.Logger) (any, error) {
	return h.svc.Projects.Get(r.Context(), r.PathValue("id"))
}

type uploadResponse struct {
	Images []usecase.StoredImage `json:"images"`
}

func (h *Handler) upload(r *http.Request, _ *zap.Logger) (any, error) {
	if err := h.parseMultipart(r); err != nil {
		return nil, err
	}
	files, err := formFiles(r, "images")
	if err != nil {
		return nil, err
	}
	images, err := h.svc.Uploads.Store(r.Context(), files)
	if err != nil {
		return nil, err
	}
	return uploadResponse{Images: images}, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return invalid("body_too_large", err)
		}
		return invalid("invalid_json", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func (h *Handler) parseMultipart(r *http.Request) error {
	if !isMultipart(r) {
		return invalid("expected_multipart", nil)
	}
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return invalid("invalid_multipart", err)
	}
	return nil
}

// formFiles reads every file part named field, in order.
func formFiles(r *http.Request, field string) ([]domain.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	out := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, invalid("unreadable_file", err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, invalid("unreadable_file", err)
		}
		out = append(out, domain.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

func formInt(r *http.Request, field string) (*int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, invalid("invalid_"+field, err)
	}
	return &n, nil
}

func dataURLs(files []domain.Upload) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, usecase.DataURL(f.ContentType, f.Data))
	}
	return out
}
