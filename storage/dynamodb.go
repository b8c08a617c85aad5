package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pastebit/pastebit/models"
)

// DynamoStore implements PasteStore using DynamoDB. CompareAndSwap maps
// onto a conditional PutItem, which DynamoDB evaluates atomically, so
// the consume protocol stays correct without client-side locking.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoStore creates a new DynamoDB storage backend.
func NewDynamoStore(tableName, region string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}
	return &DynamoStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
	}, nil
}

// pasteToItem converts a Paste to a DynamoDB item. The "ttl" attribute
// carries the expiry instant in epoch seconds for DynamoDB's native TTL
// sweeper; it is a GC hint only.
func (d *DynamoStore) pasteToItem(paste *models.Paste) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":            &types.AttributeValueMemberS{Value: Key(paste.ID)},
		"content":       &types.AttributeValueMemberS{Value: paste.Content},
		"created_at":    &types.AttributeValueMemberN{Value: strconv.FormatInt(paste.CreatedAt.UnixMilli(), 10)},
		"current_views": &types.AttributeValueMemberN{Value: strconv.Itoa(paste.CurrentViews)},
		"version":       &types.AttributeValueMemberN{Value: strconv.FormatInt(paste.Version, 10)},
	}
	if paste.TTLSeconds != nil {
		item["ttl_seconds"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*paste.TTLSeconds)}
	}
	if paste.MaxViews != nil {
		item["max_views"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*paste.MaxViews)}
	}
	if exp := paste.ExpiresAt(); exp != nil {
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(exp.Unix(), 10)}
	}
	return item
}

// itemToPaste converts a DynamoDB item back to a Paste model.
func (d *DynamoStore) itemToPaste(item map[string]types.AttributeValue) (*models.Paste, error) {
	paste := &models.Paste{}

	if id, ok := item["id"].(*types.AttributeValueMemberS); ok {
		paste.ID = trimKeyPrefix(id.Value)
	}
	if content, ok := item["content"].(*types.AttributeValueMemberS); ok {
		paste.Content = content.Value
	}
	if createdAt, ok := item["created_at"].(*types.AttributeValueMemberN); ok {
		ms, err := strconv.ParseInt(createdAt.Value, 10, 64)
		if err != nil {
			return nil, models.ErrCorruptRecord
		}
		paste.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if ttl, ok := item["ttl_seconds"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(ttl.Value)
		if err != nil {
			return nil, models.ErrCorruptRecord
		}
		paste.TTLSeconds = &n
	}
	if maxViews, ok := item["max_views"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(maxViews.Value)
		if err != nil {
			return nil, models.ErrCorruptRecord
		}
		paste.MaxViews = &n
	}
	if views, ok := item["current_views"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(views.Value)
		if err != nil {
			return nil, models.ErrCorruptRecord
		}
		paste.CurrentViews = n
	}
	if version, ok := item["version"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.ParseInt(version.Value, 10, 64)
		if err != nil {
			return nil, models.ErrCorruptRecord
		}
		paste.Version = n
	}

	if paste.Content == "" || paste.CreatedAt.IsZero() {
		return nil, models.ErrCorruptRecord
	}
	return paste, nil
}

func trimKeyPrefix(key string) string {
	if len(key) > len(KeyPrefix) && key[:len(KeyPrefix)] == KeyPrefix {
		return key[len(KeyPrefix):]
	}
	return key
}

// Put writes a paste record.
func (d *DynamoStore) Put(ctx context.Context, paste *models.Paste) error {
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      d.pasteToItem(paste),
	})
	return err
}

// Get retrieves a paste by its id. Consistent reads keep the consume
// protocol's read-after-write assumption valid.
func (d *DynamoStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: Key(id)},
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, nil
	}
	return d.itemToPaste(result.Item)
}

// CompareAndSwap replaces the record via a conditional PutItem keyed on
// the stored version.
func (d *DynamoStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error) {
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                d.pasteToItem(paste),
		ConditionExpression: aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{
			"#v": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes a paste.
func (d *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: Key(id)},
		},
	})
	return err
}

// Ping verifies the table is reachable.
func (d *DynamoStore) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	return err
}

// Close is a no-op for DynamoDB.
func (d *DynamoStore) Close() error {
	return nil
}
