package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"renovation-quote/internal/domain"
)

const (
	leadsPK      = "LEADS"
	skPrefixLead = "LEAD#"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoLeadStore.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoLeadStore keeps leads as individual items in one partition. Every
// append is a conditional put of a fresh sort key, so concurrent writers never
// overwrite each other.
type DynamoLeadStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
	newID     func() string
}

func NewDynamoLeadStore(api dynamodbAPI, tableName string) (*DynamoLeadStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoLeadStore{
		api:       api,
		tableName: tableName,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// leadSK orders leads by the time they were recorded; the random suffix keeps
// keys unique within the same instant.
func leadSK(ts time.Time, id string) string {
	return skPrefixLead + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

func (s *DynamoLeadStore) Append(ctx context.Context, lead domain.Lead) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	item, err := leadItem(lead, leadSK(s.now(), s.newID()))
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Append put item: %w", err)
	}
	return nil
}

// List returns every lead in the order it was recorded.
func (s *DynamoLeadStore) List(ctx context.Context) ([]domain.Lead, error) {
	leads := []domain.Lead{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: leadsPK},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixLead},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: List query: %w", err)
		}
		for _, item := range out.Items {
			lead, err := itemToLead(item)
			if err != nil {
				return nil, fmt.Errorf("repository: List unmarshal: %w", err)
			}
			leads = append(leads, lead)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return leads, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func leadItem(lead domain.Lead, sk string) (map[string]types.AttributeValue, error) {
	history := lead.ChatHistory
	if history == nil {
		history = []domain.Message{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal chat history: %w", err)
	}
	item := map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: leadsPK},
		"SK":             &types.AttributeValueMemberS{Value: sk},
		"conversationId": &types.AttributeValueMemberS{Value: lead.ConversationID},
		"interestLevel":  &types.AttributeValueMemberS{Value: string(lead.InterestLevel)},
		"timestamp":      &types.AttributeValueMemberS{Value: lead.Timestamp},
		"chatHistory":    &types.AttributeValueMemberS{Value: string(historyJSON)},
	}
	if lead.Feedback != nil {
		feedbackJSON, err := json.Marshal(lead.Feedback)
		if err != nil {
			return nil, fmt.Errorf("marshal feedback: %w", err)
		}
		item["feedback"] = &types.AttributeValueMemberS{Value: string(feedbackJSON)}
	}
	return item, nil
}

func itemToLead(item map[string]types.AttributeValue) (domain.Lead, error) {
	convID, err := strAttr(item, "conversationId")
	if err != nil {
		return domain.Lead{}, err
	}
	interest, err := strAttr(item, "interestLevel")
	if err != nil {
		return domain.Lead{}, err
	}
	ts, _ := strAttr(item, "timestamp") // allow empty

	lead := domain.Lead{
		ConversationID: convID,
		InterestLevel:  domain.InterestLevel(interest),
		Timestamp:      ts,
		ChatHistory:    []domain.Message{},
	}
	if raw, err := strAttr(item, "chatHistory"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &lead.ChatHistory); err != nil {
			return domain.Lead{}, fmt.Errorf("repository: decode chat history: %w", err)
		}
	}
	if raw, err := strAttr(item, "feedback"); err == nil && raw != "" {
		var fb domain.Feedback
		if err := json.Unmarshal([]byte(raw), &fb); err != nil {
			return domain.Lead{}, fmt.Errorf("repository: decode feedback: %w", err)
		}
		lead.Feedback = &fb
	}
	return lead, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
