package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/require"

	"renovation-quote/internal/domain"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	return &sns.PublishOutput{}, f.err
}

func TestNewSNS_Validates(t *testing.T) {
	_, err := NewSNS(nil, "arn:aws:sns:us-east-1:123:leads")
	require.Error(t, err)

	_, err = NewSNS(&fakeSNS{}, "")
	require.Error(t, err)
}

func TestLeadRecorded_PublishesAlert(t *testing.T) {
	api := &fakeSNS{}
	n, err := NewSNS(api, "arn:aws:sns:us-east-1:123:leads")
	require.NoError(t, err)

	lead := domain.Lead{
		ConversationID: "conv-1",
		InterestLevel:  domain.InterestInterested,
		Timestamp:      "2026-10-16T10:00:00Z",
		ChatHistory: []domain.Message{
			{Role: "assistant", Content: "Estimated Price Range: $10,000 to $15,000", PriceRange: &domain.PriceRange{Min: 10000, Max: 15000}},
			{Role: "user", Content: "What about quartz?"},
			{Role: "assistant", Content: "Estimated Price Range: $12,000 to $18,000", PriceRange: &domain.PriceRange{Min: 12000, Max: 18000}},
			{Role: "user", Content: "Sounds good"},
		},
	}
	require.NoError(t, n.LeadRecorded(context.Background(), lead))

	require.Equal(t, "arn:aws:sns:us-east-1:123:leads", *api.in.TopicArn)
	require.Equal(t, "New renovation lead: interested", *api.in.Subject)
	require.Equal(t, "interested", *api.in.MessageAttributes["interestLevel"].StringValue)

	var alert leadAlert
	require.NoError(t, json.Unmarshal([]byte(*api.in.Message), &alert))
	require.Equal(t, "conv-1", alert.ConversationID)
	require.Equal(t, 4, alert.Messages)
	require.Equal(t, &domain.PriceRange{Min: 12000, Max: 18000}, alert.PriceRange)
}

func TestLeadRecorded_PublishError(t *testing.T) {
	n, err := NewSNS(&fakeSNS{err: errors.New("throttled")}, "arn:aws:sns:us-east-1:123:leads")
	require.NoError(t, err)

	err = n.LeadRecorded(context.Background(), domain.Lead{ConversationID: "c", InterestLevel: domain.InterestInterested})
	require.ErrorContains(t, err, "throttled")
}
