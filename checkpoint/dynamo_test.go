package checkpoint

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoClient emulates just enough of DynamoDB's conditional-write
// semantics to exercise DynamoCheckpoint's compare-and-swap loop without
// a live table.
type fakeDynamoClient struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamoClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["stream_id"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["stream_id"].(*types.AttributeValueMemberS).Value
	_, exists := f.items[key]

	condition := aws.ToString(in.ConditionExpression)
	switch condition {
	case "attribute_not_exists(stream_id)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case "length = :expected":
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		current := f.items[key]["length"].(*types.AttributeValueMemberN).Value
		if !exists || current != expected {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("mismatch")}
		}
	}

	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoCheckpointReadMissingIsZero(t *testing.T) {
	ctx := context.Background()
	c := NewDynamoCheckpoint(newFakeDynamoClient(), "table", "stream-1")

	v, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestDynamoCheckpointUpdateAdvancesMonotonically(t *testing.T) {
	ctx := context.Background()
	client := newFakeDynamoClient()
	c := NewDynamoCheckpoint(client, "table", "stream-1")

	require.NoError(t, c.Update(ctx, 512))
	v, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(512), v)

	require.NoError(t, c.Update(ctx, 100))
	v, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(512), v, "checkpoint must never regress")

	require.NoError(t, c.Update(ctx, 1024))
	v, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), v)
}

func TestDynamoCheckpointGetOrInit(t *testing.T) {
	ctx := context.Background()
	client := newFakeDynamoClient()
	c := NewDynamoCheckpoint(client, "table", "stream-1")

	v, err := c.GetOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	require.NoError(t, c.Update(ctx, 256))
	v, err = c.GetOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(256), v)
}
