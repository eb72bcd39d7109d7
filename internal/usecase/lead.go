package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/metrics"
)

// LeadAppender is the append-only lead log.
type LeadAppender interface {
	Append(ctx context.Context, lead domain.Lead) error
}

// LeadNotifier is told about interested leads. It is optional.
type LeadNotifier interface {
	LeadRecorded(ctx context.Context, lead domain.Lead) error
}

// LeadInput is a lead as submitted by the chat UI.
type LeadInput struct {
	ConversationID string
	InterestLevel  string
	Timestamp      string
	ChatHistory    []domain.Message
	Feedback       *domain.Feedback
}

// LeadService validates and stores leads.
type LeadService struct {
	store    LeadAppender
	notifier LeadNotifier
	log      *zap.Logger
	now      func() time.Time
}

func NewLeadService(store LeadAppender, notifier LeadNotifier, log *zap.Logger) (*LeadService, error) {
	if store == nil {
		return nil, errors.New("usecase: lead store must not be nil")
	}
	return &LeadService{store: store, notifier: notifier, log: logger.OrNop(log), now: time.Now}, nil
}

// Record appends the visitor's decision to the lead log.
func (s *LeadService) Record(ctx context.Context, in LeadInput) (domain.Lead, error) {
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		return domain.Lead{}, newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}
	level, ok := domain.ParseLeadInterest(in.InterestLevel)
	if !ok {
		return domain.Lead{}, newError(ErrorInvalidInput, "invalid_interest_level", nil)
	}
	ts := strings.TrimSpace(in.Timestamp)
	if ts == "" {
		ts = s.now().UTC().Format(time.RFC3339)
	}
	history := in.ChatHistory
	if history == nil {
		history = []domain.Message{}
	}

	lead := domain.Lead{
		ConversationID: convID,
		InterestLevel:  level,
		Timestamp:      ts,
		ChatHistory:    history,
		Feedback:       in.Feedback,
	}
	if err := s.store.Append(ctx, lead); err != nil {
		return domain.Lead{}, newError(ErrorInternal, "lead_store_error", err)
	}
	metrics.LeadsRecorded.WithLabelValues(string(level)).Inc()
	s.log.Info("lead recorded",
		zap.String("conversation_id", convID),
		zap.String("interest_level", string(level)),
		zap.Int("messages", len(history)),
	)

	if level == domain.InterestInterested && s.notifier != nil {
		if err := s.notifier.LeadRecorded(ctx, lead); err != nil {
			s.log.Warn("lead notification failed", zap.String("conversation_id", convID), zap.Error(err))
		}
	}
	return lead, nil
}
