package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/ports"
)

const (
	dynamoPartitionPrefix = "KV#"
	dynamoSortKey         = "VALUE"
	dynamoEntityType      = "KV"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBStore
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// kvItem represents the DynamoDB item structure for a stored value
type kvItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Key        string `dynamodbav:"Key"`
	Value      []byte `dynamodbav:"Value"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// DynamoDBStore keeps values in a single-table DynamoDB layout
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.KeyValueStore = (*DynamoDBStore)(nil)

// NewDynamoDBStore creates a new DynamoDBStore
func NewDynamoDBStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *DynamoDBStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// Get implements ports.KeyValueStore
func (s *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item %s: %w", key, err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}

	var item kvItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item %s: %w", key, err)
	}
	return item.Value, true, nil
}

// Put implements ports.KeyValueStore
func (s *DynamoDBStore) Put(ctx context.Context, key string, value []byte) error {
	item := kvItem{
		PK:         dynamoPartitionPrefix + key,
		SK:         dynamoSortKey,
		EntityType: dynamoEntityType,
		Key:        key,
		Value:      value,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put item %s: %w", key, err)
	}

	s.logger.Debug("Value written to DynamoDB",
		zap.String("table", s.tableName),
		zap.String("key", key),
		zap.Int("bytes", len(value)),
	)
	return nil
}

// Delete implements ports.KeyValueStore
func (s *DynamoDBStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(key),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("table %s does not exist: %w", s.tableName, err)
		}
		return fmt.Errorf("failed to delete item %s: %w", key, err)
	}
	return nil
}

func (s *DynamoDBStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: dynamoPartitionPrefix + key},
		"SK": &types.AttributeValueMemberS{Value: dynamoSortKey},
	}
}
