package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"renovation-quote/internal/domain"
	"renovation-quote/internal/repository"
)

type fakeLeadStore struct {
	leads []domain.Lead
	err   error
}

func (f *fakeLeadStore) Append(_ context.Context, lead domain.Lead) error {
	if f.err != nil {
		return f.err
	}
	f.leads = append(f.leads, lead)
	return nil
}

type fakeNotifier struct {
	notified []domain.Lead
	err      error
}

func (f *fakeNotifier) LeadRecorded(_ context.Context, lead domain.Lead) error {
	f.notified = append(f.notified, lead)
	return f.err
}

func newTestLeads(t *testing.T, store LeadAppender, notifier LeadNotifier) *LeadService {
	t.Helper()
	s, err := NewLeadService(store, notifier, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 10, 16, 10, 0, 0, 0, time.FixedZone("X", 3600)) }
	return s
}

func TestNewLeadService_NilStore(t *testing.T) {
	_, err := NewLeadService(nil, nil, nil)
	require.Error(t, err)
}

func TestLeadService_Record(t *testing.T) {
	store := &fakeLeadStore{}
	notifier := &fakeNotifier{}
	s := newTestLeads(t, store, notifier)

	history := []domain.Message{
		{Role: domain.RoleAssistant, Content: "Estimated Price Range: $12,000 to $18,000", PriceRange: &domain.PriceRange{Min: 12000, Max: 18000}},
	}
	lead, err := s.Record(context.Background(), LeadInput{
		ConversationID: "conv-1",
		InterestLevel:  "interested",
		ChatHistory:    history,
	})
	require.NoError(t, err)
	require.Equal(t, domain.InterestInterested, lead.InterestLevel)
	require.Equal(t, "2026-10-16T09:00:00Z", lead.Timestamp)
	require.Equal(t, []domain.Lead{lead}, store.leads)
	require.Equal(t, []domain.Lead{lead}, notifier.notified)
}

func TestLeadService_Record_ThinkingIsWaiting(t *testing.T) {
	store := &fakeLeadStore{}
	notifier := &fakeNotifier{}
	s := newTestLeads(t, store, notifier)

	lead, err := s.Record(context.Background(), LeadInput{
		ConversationID: "conv-2",
		InterestLevel:  "thinking",
		Timestamp:      "2026-10-15T00:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, domain.InterestWaiting, lead.InterestLevel)
	require.Equal(t, "2026-10-15T00:00:00Z", lead.Timestamp)
	require.Equal(t, []domain.Message{}, lead.ChatHistory)
	require.Empty(t, notifier.notified)
}

func TestLeadService_Record_KeepsFeedback(t *testing.T) {
	store := &fakeLeadStore{}
	s := newTestLeads(t, store, nil)

	fb := &domain.Feedback{Reasons: []string{"Price is too high"}, Comments: "will wait"}
	_, err := s.Record(context.Background(), LeadInput{ConversationID: "c", InterestLevel: "not_interested", Feedback: fb})
	require.NoError(t, err)
	require.Equal(t, fb, store.leads[0].Feedback)
}

func TestLeadService_Record_Errors(t *testing.T) {
	s := newTestLeads(t, &fakeLeadStore{}, nil)

	_, err := s.Record(context.Background(), LeadInput{InterestLevel: "interested"})
	require.True(t, hasCode(err, ErrorInvalidInput))

	_, err = s.Record(context.Background(), LeadInput{ConversationID: "c", InterestLevel: "maybe"})
	require.True(t, hasCode(err, ErrorInvalidInput))

	s = newTestLeads(t, &fakeLeadStore{err: errors.New("disk full")}, nil)
	_, err = s.Record(context.Background(), LeadInput{ConversationID: "c", InterestLevel: "waiting"})
	require.True(t, hasCode(err, ErrorInternal))
}

func TestLeadService_Record_NotifierFailureIsNotFatal(t *testing.T) {
	store := &fakeLeadStore{}
	s := newTestLeads(t, store, &fakeNotifier{err: errors.New("sns throttled")})

	_, err := s.Record(context.Background(), LeadInput{ConversationID: "c", InterestLevel: "interested"})
	require.NoError(t, err)
	require.Len(t, store.leads, 1)
}

func TestLeadService_Record_AppendsToBoltLog(t *testing.T) {
	store, err := repository.OpenBoltLeadStore(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	s := newTestLeads(t, store, nil)
	ctx := context.Background()

	first, err := s.Record(ctx, LeadInput{ConversationID: "c-1", InterestLevel: "interested"})
	require.NoError(t, err)
	leads, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Lead{first}, leads)

	second, err := s.Record(ctx, LeadInput{ConversationID: "c-2", InterestLevel: "not_interested"})
	require.NoError(t, err)
	leads, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Lead{first, second}, leads)
}
