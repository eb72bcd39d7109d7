package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/metrics"
)

const (
	defaultTemperature   = 0.7
	defaultMaxMessageLen = 4000
)

// Analyzer describes a batch of images of one role, in order.
type Analyzer interface {
	AnalyzeAll(ctx context.Context, images []string, role domain.ImageType) []string
}

// ChatService runs the estimation conversation. It holds no conversation
// state; the caller replays the history on every turn.
type ChatService struct {
	llm           LLMClient
	analyzer      Analyzer
	model         string
	temperature   float64
	maxMessageLen int
	log           *zap.Logger
	now           func() time.Time
}

// StartInput opens a conversation from the project form.
type StartInput struct {
	Description   string
	Timeline      string
	CurrentImages []string
	DesiredImages []string
}

// ContinueInput carries one user message plus the replayed transcript.
type ContinueInput struct {
	ConversationID string
	Message        string
	History        []domain.Message
}

// ChatOutput is the assistant reply for a turn.
type ChatOutput struct {
	ConversationID string
	Message        domain.Message
}

func NewChatService(llm LLMClient, analyzer Analyzer, model string, temperature float64, maxMessageLen int, log *zap.Logger) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if analyzer == nil {
		return nil, errors.New("usecase: analyzer must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: chat model must not be empty")
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessageLen
	}
	return &ChatService{
		llm:           llm,
		analyzer:      analyzer,
		model:         model,
		temperature:   temperature,
		maxMessageLen: maxMessageLen,
		log:           logger.OrNop(log),
		now:           time.Now,
	}, nil
}

// Start opens a conversation: every image is analyzed, then a single oracle
// call produces the first assistant message.
func (s *ChatService) Start(ctx context.Context, in StartInput) (ChatOutput, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_description", nil)
	}
	if len(description) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "description_too_long", nil)
	}

	current, desired := analyzeBoth(ctx, s.analyzer, in.CurrentImages, in.DesiredImages)
	prompt := buildInitialPrompt(current, desired, description, in.Timeline)

	reply, err := complete(ctx, s.llm, "chat_initial", domain.CompletionRequest{
		Model:       s.model,
		Messages:    []domain.ChatMessage{{Role: domain.RoleSystem, Content: prompt}},
		Temperature: &s.temperature,
	})
	if err != nil {
		return ChatOutput{}, oracleError("openai_error", err)
	}

	pr := ExtractPriceRange(reply)
	recordExtraction(pr, nil)
	return ChatOutput{
		ConversationID: newUUID(),
		Message:        s.assistantMessage(reply, pr),
	}, nil
}

// Continue answers one user message given the full prior transcript. When the
// reply carries no price range the last known one is kept.
func (s *ChatService) Continue(ctx context.Context, in ContinueInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len(message) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	for _, m := range in.History {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return ChatOutput{}, newError(ErrorInvalidInput, "invalid_history_role", nil)
		}
	}
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = newUUID()
	}

	reply, err := complete(ctx, s.llm, "chat_continue", domain.CompletionRequest{
		Model:       s.model,
		Messages:    buildContinuationMessages(in.History, message),
		Temperature: &s.temperature,
	})
	if err != nil {
		return ChatOutput{}, oracleError("openai_error", err)
	}

	extracted := ExtractPriceRange(reply)
	pr := CarryPriceRange(extracted, in.History)
	recordExtraction(extracted, pr)
	s.log.Debug("chat turn completed",
		zap.String("conversation_id", convID),
		zap.Int("history_len", len(in.History)),
		zap.Bool("has_price_range", pr != nil),
	)
	return ChatOutput{
		ConversationID: convID,
		Message:        s.assistantMessage(reply, pr),
	}, nil
}

func (s *ChatService) assistantMessage(content string, pr *domain.PriceRange) domain.Message {
	return domain.Message{
		Role:       domain.RoleAssistant,
		Content:    content,
		PriceRange: pr,
		Timestamp:  s.now().UTC().Format(time.RFC3339),
	}
}

// analyzeBoth runs the current and desired batches side by side.
func analyzeBoth(ctx context.Context, a Analyzer, currentImages, desiredImages []string) (current, desired []string) {
	var g errgroup.Group
	g.Go(func() error {
		current = a.AnalyzeAll(ctx, currentImages, domain.ImageCurrent)
		return nil
	})
	g.Go(func() error {
		desired = a.AnalyzeAll(ctx, desiredImages, domain.ImageDesired)
		return nil
	})
	_ = g.Wait()
	return current, desired
}

func recordExtraction(extracted, result *domain.PriceRange) {
	switch {
	case extracted != nil:
		metrics.PriceRangeExtractions.WithLabelValues("hit").Inc()
	case result != nil:
		metrics.PriceRangeExtractions.WithLabelValues("carried").Inc()
	default:
		metrics.PriceRangeExtractions.WithLabelValues("miss").Inc()
	}
}
