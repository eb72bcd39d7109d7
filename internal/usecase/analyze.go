package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/metrics"
)

// AnalysisFallback stands in for any image the oracle could not describe.
const AnalysisFallback = "Unable to analyze image"

const defaultVisionMaxTokens = 300

const (
	currentStatePrompt = "Analyze this image of the current state and provide a detailed description focusing on: " +
		"1) Room dimensions and layout 2) Existing materials and finishes 3) Visible wear, damage, or issues " +
		"4) Current fixtures and appliances 5) Any structural elements that might need attention. " +
		"Be specific about measurements and material conditions."
	desiredStatePrompt = "Analyze this image of the desired state and provide a detailed description focusing on: " +
		"1) New layout and design elements 2) Desired materials and finishes 3) New fixtures and appliances " +
		"4) Any structural changes needed 5) Special features or upgrades. " +
		"Be specific about the design style and quality level of materials."
)

// ImageAnalyzer turns one renovation photo into a text description using a
// vision-capable model.
type ImageAnalyzer struct {
	llm       LLMClient
	model     string
	maxTokens int
	log       *zap.Logger
}

func NewImageAnalyzer(llm LLMClient, model string, maxTokens int, log *zap.Logger) (*ImageAnalyzer, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: vision model must not be empty")
	}
	if maxTokens <= 0 {
		maxTokens = defaultVisionMaxTokens
	}
	return &ImageAnalyzer{llm: llm, model: model, maxTokens: maxTokens, log: logger.OrNop(log)}, nil
}

func analysisPrompt(role domain.ImageType) string {
	if role == domain.ImageCurrent {
		return currentStatePrompt
	}
	return desiredStatePrompt
}

// Describe returns the oracle's description of imageURL, or the oracle error.
func (a *ImageAnalyzer) Describe(ctx context.Context, imageURL string, role domain.ImageType) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", newError(ErrorInvalidInput, "empty_image", nil)
	}
	out, err := complete(ctx, a.llm, "analyze_image", domain.CompletionRequest{
		Model: a.model,
		Messages: []domain.ChatMessage{{
			Role:      domain.RoleUser,
			Content:   analysisPrompt(role),
			ImageURLs: []string{imageURL},
		}},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", oracleError("openai_vision_error", err)
	}
	return out, nil
}

// Analyze is Describe with every failure replaced by AnalysisFallback.
func (a *ImageAnalyzer) Analyze(ctx context.Context, imageURL string, role domain.ImageType) string {
	out, err := a.Describe(ctx, imageURL, role)
	if err != nil {
		a.log.Warn("image analysis failed", zap.String("role", string(role)), zap.Error(err))
		metrics.ImageAnalysisFallbacks.WithLabelValues(string(role)).Inc()
		return AnalysisFallback
	}
	if strings.TrimSpace(out) == "" {
		metrics.ImageAnalysisFallbacks.WithLabelValues(string(role)).Inc()
		return AnalysisFallback
	}
	return out
}

// AnalyzeAll describes every image concurrently. Results keep input order.
func (a *ImageAnalyzer) AnalyzeAll(ctx context.Context, images []string, role domain.ImageType) []string {
	out := make([]string, len(images))
	var g errgroup.Group
	for i, img := range images {
		g.Go(func() error {
			out[i] = a.Analyze(ctx, img, role)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// DataURL encodes raw image bytes for the oracle's image_url content part.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
