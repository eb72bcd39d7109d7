package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"renovation-quote/internal/domain"
)

// snsAPI is the minimal SNS interface required by SNSNotifier.
type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier tells the sales team about new leads through an SNS topic.
type SNSNotifier struct {
	api      snsAPI
	topicARN string
}

func NewSNS(api snsAPI, topicARN string) (*SNSNotifier, error) {
	if api == nil {
		return nil, errors.New("notify: sns api must not be nil")
	}
	topicARN = strings.TrimSpace(topicARN)
	if topicARN == "" {
		return nil, errors.New("notify: topic ARN must not be empty")
	}
	return &SNSNotifier{api: api, topicARN: topicARN}, nil
}

// leadAlert is the message body subscribers receive. The transcript is left
// out; only its size and the last assistant estimate are included.
type leadAlert struct {
	ConversationID string             `json:"conversationId"`
	InterestLevel  string             `json:"interestLevel"`
	Timestamp      string             `json:"timestamp"`
	Messages       int                `json:"messages"`
	PriceRange     *domain.PriceRange `json:"priceRange,omitempty"`
}

func (n *SNSNotifier) LeadRecorded(ctx context.Context, lead domain.Lead) error {
	alert := leadAlert{
		ConversationID: lead.ConversationID,
		InterestLevel:  string(lead.InterestLevel),
		Timestamp:      lead.Timestamp,
		Messages:       len(lead.ChatHistory),
	}
	for i := len(lead.ChatHistory) - 1; i >= 0; i-- {
		if lead.ChatHistory[i].PriceRange != nil {
			alert.PriceRange = lead.ChatHistory[i].PriceRange
			break
		}
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("notify: marshal lead alert: %w", err)
	}

	_, err = n.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("New renovation lead: " + string(lead.InterestLevel)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"interestLevel": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(lead.InterestLevel)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: publish lead alert: %w", err)
	}
	return nil
}
