package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockDynamoDB struct {
	mock.Mock
}

func (m *mockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.GetItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.PutItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.DeleteItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func partitionKey(key map[string]types.AttributeValue) string {
	if pk, ok := key["PK"].(*types.AttributeValueMemberS); ok {
		return pk.Value
	}
	return ""
}

func TestDynamoDBStore_Put(t *testing.T) {
	client := new(mockDynamoDB)
	store := NewDynamoDBStore(client, "neuromap", zap.NewNop())

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		var item kvItem
		if err := attributevalue.UnmarshalMap(in.Item, &item); err != nil {
			return false
		}
		return *in.TableName == "neuromap" &&
			item.PK == "KV#neuromap-data" &&
			item.SK == "VALUE" &&
			string(item.Value) == "payload"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, store.Put(context.Background(), "neuromap-data", []byte("payload")))
	client.AssertExpectations(t)
}

func TestDynamoDBStore_Get(t *testing.T) {
	item, err := attributevalue.MarshalMap(kvItem{PK: "KV#neuromap-data", SK: "VALUE", Key: "neuromap-data", Value: []byte("payload")})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		client := new(mockDynamoDB)
		client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return partitionKey(in.Key) == "KV#neuromap-data"
		})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

		value, found, err := NewDynamoDBStore(client, "neuromap", nil).Get(context.Background(), "neuromap-data")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "payload", string(value))
	})

	t.Run("absent", func(t *testing.T) {
		client := new(mockDynamoDB)
		client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, found, err := NewDynamoDBStore(client, "neuromap", nil).Get(context.Background(), "neuromap-data")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("client error", func(t *testing.T) {
		client := new(mockDynamoDB)
		client.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		_, _, err := NewDynamoDBStore(client, "neuromap", nil).Get(context.Background(), "neuromap-data")
		assert.ErrorContains(t, err, "throttled")
	})
}

func TestDynamoDBStore_Delete(t *testing.T) {
	client := new(mockDynamoDB)
	client.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return partitionKey(in.Key) == "KV#neuromap-data"
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, NewDynamoDBStore(client, "neuromap", nil).Delete(context.Background(), "neuromap-data"))
	client.AssertExpectations(t)
}
