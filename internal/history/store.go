package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// ErrSummaryNotFound indicates the requested summary ID does not exist.
var ErrSummaryNotFound = errors.New("history: summary not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type summaryItem struct {
	SummaryID       string   `dynamodbav:"summaryId"`
	UserID          string   `dynamodbav:"userId"`
	Issue           string   `dynamodbav:"issue"`
	Symptoms        []string `dynamodbav:"symptoms,omitempty"`
	Recommendations []string `dynamodbav:"recommendations,omitempty"`
	AppointmentID   string   `dynamodbav:"appointmentId,omitempty"`
	CreatedAt       string   `dynamodbav:"createdAt"`
}

// SummaryStore persists summaries to DynamoDB. Inserts are conditional on
// the summary ID so a redelivered queue message cannot duplicate a record.
type SummaryStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewSummaryStore builds a store backed by the provided DynamoDB client.
func NewSummaryStore(client dynamoAPI, tableName string, logger *logging.Logger) *SummaryStore {
	if client == nil {
		panic("history: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("history: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SummaryStore{client: client, tableName: tableName, logger: logger}
}

// PutSummary inserts the summary; a replayed ID is treated as already
// persisted rather than an error.
func (s *SummaryStore) PutSummary(ctx context.Context, summary Summary) error {
	if summary.ID == "" {
		return errors.New("history: summary ID required")
	}

	item, err := attributevalue.MarshalMap(summaryItem{
		SummaryID:       summary.ID,
		UserID:          summary.UserID,
		Issue:           summary.Issue,
		Symptoms:        summary.Symptoms,
		Recommendations: summary.Recommendations,
		AppointmentID:   summary.AppointmentID,
		CreatedAt:       summary.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("history: marshal summary: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(summaryId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.logger.Debug("summary already persisted", "summary_id", summary.ID)
			return nil
		}
		return fmt.Errorf("history: persist summary: %w", err)
	}
	return nil
}

// GetSummary fetches a summary by ID.
func (s *SummaryStore) GetSummary(ctx context.Context, id string) (*Summary, error) {
	if id == "" {
		return nil, errors.New("history: summary ID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"summaryId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history: fetch summary: %w", err)
	}
	if out.Item == nil {
		return nil, ErrSummaryNotFound
	}

	var row summaryItem
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, fmt.Errorf("history: decode summary: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("history: decode created time: %w", err)
	}
	return &Summary{
		ID:              row.SummaryID,
		UserID:          row.UserID,
		Issue:           row.Issue,
		Symptoms:        row.Symptoms,
		Recommendations: row.Recommendations,
		AppointmentID:   row.AppointmentID,
		CreatedAt:       created,
	}, nil
}
