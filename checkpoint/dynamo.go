package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoCheckpoint is a Checkpoint backed by a DynamoDB item, grounded on
// the teacher's blobstore/s3 DDBCommitStore. DynamoDB's conditional
// PutItem gives the compare-and-swap primitive neither S3 nor MinIO
// offer natively, which is what lets Update enforce monotonicity against
// concurrent writers rather than merely hoping there is only one.
//
// Table schema: partition key "stream_id" (string), attribute "length"
// (number). Create with:
//
//	aws dynamodb create-table \
//	  --table-name messagevault-checkpoints \
//	  --attribute-definitions AttributeName=stream_id,AttributeType=S \
//	  --key-schema AttributeName=stream_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type DynamoCheckpoint struct {
	client   DynamoClient
	table    string
	streamID string
}

// DynamoClient is the subset of *dynamodb.Client this package needs,
// narrowed for testability.
type DynamoClient interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ErrConcurrentUpdate reports that a conditional write lost a race: another
// writer changed the checkpoint between this call's read and its write.
// Update retries on it and GetOrInit ignores it, so neither returns it.
var ErrConcurrentUpdate = errors.New("checkpoint: concurrent update detected")

// NewDynamoCheckpoint creates a checkpoint stored under streamID in table.
func NewDynamoCheckpoint(client DynamoClient, table, streamID string) *DynamoCheckpoint {
	return &DynamoCheckpoint{client: client, table: table, streamID: streamID}
}

func (c *DynamoCheckpoint) Read(ctx context.Context) (uint64, error) {
	value, _, err := c.get(ctx)
	return value, err
}

func (c *DynamoCheckpoint) GetOrInit(ctx context.Context) (uint64, error) {
	value, exists, err := c.get(ctx)
	if err != nil {
		return 0, err
	}
	if exists {
		return value, nil
	}
	if err := c.putConditional(ctx, 0, false); err != nil && !errors.Is(err, ErrConcurrentUpdate) {
		return 0, err
	}
	return 0, nil
}

// Update advances the checkpoint to n using an optimistic compare-and-swap
// loop: read the current value, then conditionally PutItem guarded by
// that exact value (or by non-existence, for the first write). A
// concurrent writer racing us fails the condition and we retry against
// the new value, exactly as DDBCommitStore.commitVersion does for
// manifest versions.
func (c *DynamoCheckpoint) Update(ctx context.Context, n uint64) error {
	for {
		current, exists, err := c.get(ctx)
		if err != nil {
			return err
		}
		if n <= current {
			return nil
		}
		err = c.putConditionalExpecting(ctx, n, current, exists)
		if errors.Is(err, ErrConcurrentUpdate) {
			continue
		}
		return err
	}
}

func (c *DynamoCheckpoint) get(ctx context.Context) (uint64, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberS{Value: c.streamID},
		},
	})
	if err != nil {
		return 0, false, fmt.Errorf("checkpoint get %s: %w", c.streamID, err)
	}
	if out.Item == nil {
		return 0, false, nil
	}
	lengthAttr, ok := out.Item["length"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false, fmt.Errorf("checkpoint %s: missing or invalid length attribute", c.streamID)
	}
	var n uint64
	if _, err := fmt.Sscanf(lengthAttr.Value, "%d", &n); err != nil {
		return 0, false, fmt.Errorf("checkpoint %s: parse length: %w", c.streamID, err)
	}
	return n, true, nil
}

func (c *DynamoCheckpoint) putConditional(ctx context.Context, n uint64, expectExists bool) error {
	condition := "attribute_not_exists(stream_id)"
	if expectExists {
		condition = "attribute_exists(stream_id)"
	}
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberS{Value: c.streamID},
			"length":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)},
		},
		ConditionExpression: aws.String(condition),
	})
	return translateConditionFailure(err)
}

func (c *DynamoCheckpoint) putConditionalExpecting(ctx context.Context, n, expectedCurrent uint64, exists bool) error {
	condition := "attribute_not_exists(stream_id)"
	values := map[string]types.AttributeValue{}
	if exists {
		condition = "length = :expected"
		values[":expected"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedCurrent)}
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"stream_id": &types.AttributeValueMemberS{Value: c.streamID},
			"length":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)},
		},
		ConditionExpression: aws.String(condition),
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	_, err := c.client.PutItem(ctx, input)
	return translateConditionFailure(err)
}

func translateConditionFailure(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConcurrentUpdate
	}
	return fmt.Errorf("checkpoint put: %w", err)
}
