package repository

import (
	"context"
	"errors"
	"strings"

	"renovation-quote/internal/domain"
)

// LeadStore is an append-only log of lead decisions.
type LeadStore interface {
	Append(ctx context.Context, lead domain.Lead) error
	List(ctx context.Context) ([]domain.Lead, error)
}

func validateLead(lead domain.Lead) error {
	if strings.TrimSpace(lead.ConversationID) == "" {
		return errors.New("repository: lead conversation ID is required")
	}
	if lead.InterestLevel == "" {
		return errors.New("repository: lead interest level is required")
	}
	return nil
}
