package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
)

const estimateSchema = `{
	"type": "object",
	"required": ["estimate", "timeline", "questions"],
	"properties": {
		"estimate":  {"type": "string", "minLength": 1},
		"timeline":  {"type": "string"},
		"questions": {"type": "array", "items": {"type": "string"}}
	}
}`

// Estimate is the one-shot structured estimate.
type Estimate struct {
	Estimate  string   `json:"estimate"`
	Timeline  string   `json:"timeline"`
	Questions []string `json:"questions"`
}

// EstimateInput holds the description and encoded images for an estimate.
type EstimateInput struct {
	Description   string
	CurrentImages []string
	DesiredImages []string
}

// EstimateService produces a structured estimate in a single oracle call
// instead of a conversation.
type EstimateService struct {
	llm      LLMClient
	analyzer Analyzer
	model    string
	schema   *gojsonschema.Schema
	log      *zap.Logger
}

func NewEstimateService(llm LLMClient, analyzer Analyzer, model string, log *zap.Logger) (*EstimateService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if analyzer == nil {
		return nil, errors.New("usecase: analyzer must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: estimate model must not be empty")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(estimateSchema))
	if err != nil {
		return nil, fmt.Errorf("usecase: compile estimate schema: %w", err)
	}
	return &EstimateService{llm: llm, analyzer: analyzer, model: model, schema: schema, log: logger.OrNop(log)}, nil
}

func (s *EstimateService) Generate(ctx context.Context, in EstimateInput) (Estimate, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return Estimate{}, newError(ErrorInvalidInput, "empty_description", nil)
	}

	current, desired := analyzeBoth(ctx, s.analyzer, in.CurrentImages, in.DesiredImages)
	raw, err := complete(ctx, s.llm, "estimate", domain.CompletionRequest{
		Model: s.model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: estimateSystemPrompt},
			{Role: domain.RoleUser, Content: buildEstimatePrompt(description, current, desired)},
		},
		JSONOutput: true,
	})
	if err != nil {
		return Estimate{}, oracleError("openai_error", err)
	}

	out, err := s.parse(raw)
	if err != nil {
		s.log.Warn("estimate response rejected", zap.Error(err))
		return Estimate{}, newError(ErrorUpstream, "openai_malformed_response", err)
	}
	return out, nil
}

func (s *EstimateService) parse(raw string) (Estimate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Estimate{}, errors.New("usecase: empty estimate response")
	}
	res, err := s.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Estimate{}, fmt.Errorf("usecase: decode estimate: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Estimate{}, fmt.Errorf("usecase: estimate does not match schema: %s", strings.Join(msgs, "; "))
	}
	var out Estimate
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Estimate{}, fmt.Errorf("usecase: decode estimate: %w", err)
	}
	if out.Questions == nil {
		out.Questions = []string{}
	}
	return out, nil
}
