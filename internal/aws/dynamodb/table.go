package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tasnim.dev/aria-idc/internal/aws/awserr"
	"tasnim.dev/aria-idc/internal/store"
)

type table struct {
	api    DynamoDBAPI
	schema store.Schema
}

func (t *table) Schema() store.Schema { return t.schema }

func (t *table) key(key store.Key) (map[string]ddbtypes.AttributeValue, error) {
	out := make(map[string]ddbtypes.AttributeValue, 2)
	for _, attr := range t.schema.KeyAttributes() {
		v, ok := key[attr]
		if !ok || v == "" {
			return nil, fmt.Errorf("%s: %w %s", t.schema.Name, store.ErrMissingKey, attr)
		}
		out[attr] = &ddbtypes.AttributeValueMemberS{Value: v}
	}
	return out, nil
}

func (t *table) Put(ctx context.Context, item store.Item) error {
	if _, err := t.schema.KeyOf(item); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("encoding item for %s: %w", t.schema.Name, err)
	}
	_, err = t.api.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(t.schema.Name),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem(%s): %w", t.schema.Name, err)
	}
	return nil
}

func (t *table) Get(ctx context.Context, key store.Key) (store.Item, bool, error) {
	k, err := t.key(key)
	if err != nil {
		return nil, false, err
	}
	out, err := t.api.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(t.schema.Name),
		Key:       k,
	})
	if err != nil {
		return nil, false, fmt.Errorf("GetItem(%s): %w", t.schema.Name, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}
	item, err := decode(out.Item)
	if err != nil {
		return nil, false, fmt.Errorf("decoding item from %s: %w", t.schema.Name, err)
	}
	return item, true, nil
}

func (t *table) Delete(ctx context.Context, key store.Key) error {
	k, err := t.key(key)
	if err != nil {
		return err
	}
	_, err = t.api.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(t.schema.Name),
		Key:       k,
	})
	if err != nil {
		return fmt.Errorf("DeleteItem(%s): %w", t.schema.Name, err)
	}
	return nil
}

// DeleteIfExists deletes under an attribute_exists condition on the hash key.
// A failed condition means the key was absent and is not an error.
func (t *table) DeleteIfExists(ctx context.Context, key store.Key) (bool, error) {
	k, err := t.key(key)
	if err != nil {
		return false, err
	}
	_, err = t.api.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName:                aws.String(t.schema.Name),
		Key:                      k,
		ConditionExpression:      aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": t.schema.HashKey},
	})
	if awserr.Is(err, awserr.ConditionalCheckFailed) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("DeleteItem(%s): %w", t.schema.Name, err)
	}
	return true, nil
}

// Scan reads the whole table, following LastEvaluatedKey until the last page.
func (t *table) Scan(ctx context.Context) ([]store.Item, error) {
	var items []store.Item
	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := t.api.Scan(ctx, &awsdynamodb.ScanInput{
			TableName:         aws.String(t.schema.Name),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("Scan(%s): %w", t.schema.Name, err)
		}

		for _, av := range out.Items {
			item, err := decode(av)
			if err != nil {
				return nil, fmt.Errorf("decoding item from %s: %w", t.schema.Name, err)
			}
			items = append(items, item)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

func (t *table) HasItems(ctx context.Context) (bool, error) {
	out, err := t.api.Scan(ctx, &awsdynamodb.ScanInput{
		TableName: aws.String(t.schema.Name),
		Select:    ddbtypes.SelectCount,
		Limit:     aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("Scan(%s): %w", t.schema.Name, err)
	}
	return out.Count > 0, nil
}

func decode(av map[string]ddbtypes.AttributeValue) (store.Item, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(av, &m); err != nil {
		return nil, err
	}
	return store.Item(m), nil
}
