// Package dynamodb implements the table store on Amazon DynamoDB.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tasnim.dev/aria-idc/internal/aws/awserr"
	"tasnim.dev/aria-idc/internal/store"
)

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error)
}

// DefaultActiveTimeout bounds the wait for a new table to become ACTIVE.
const DefaultActiveTimeout = 5 * time.Minute

type Client struct {
	api           DynamoDBAPI
	activeTimeout time.Duration
	tags          map[string]string
}

func NewClient(api DynamoDBAPI) *Client {
	return &Client{
		api:           api,
		activeTimeout: DefaultActiveTimeout,
		tags:          map[string]string{"aria": "data"},
	}
}

func (c *Client) Table(schema store.Schema) store.Table {
	return &table{api: c.api, schema: schema}
}

// Ensure creates the table with on-demand billing and KMS encryption, then waits for it
// to become ACTIVE. An existing table is reported with created=false.
func (c *Client) Ensure(ctx context.Context, schema store.Schema) (bool, error) {
	attrs := []ddbtypes.AttributeDefinition{{
		AttributeName: aws.String(schema.HashKey),
		AttributeType: ddbtypes.ScalarAttributeTypeS,
	}}
	keys := []ddbtypes.KeySchemaElement{{
		AttributeName: aws.String(schema.HashKey),
		KeyType:       ddbtypes.KeyTypeHash,
	}}
	if schema.RangeKey != "" {
		attrs = append(attrs, ddbtypes.AttributeDefinition{
			AttributeName: aws.String(schema.RangeKey),
			AttributeType: ddbtypes.ScalarAttributeTypeS,
		})
		keys = append(keys, ddbtypes.KeySchemaElement{
			AttributeName: aws.String(schema.RangeKey),
			KeyType:       ddbtypes.KeyTypeRange,
		})
	}

	tags := make([]ddbtypes.Tag, 0, len(c.tags))
	for k, v := range c.tags {
		tags = append(tags, ddbtypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	_, err := c.api.CreateTable(ctx, &awsdynamodb.CreateTableInput{
		TableName:            aws.String(schema.Name),
		AttributeDefinitions: attrs,
		KeySchema:            keys,
		BillingMode:          ddbtypes.BillingModePayPerRequest,
		SSESpecification: &ddbtypes.SSESpecification{
			Enabled: aws.Bool(true),
			SSEType: ddbtypes.SSETypeKms,
		},
		Tags: tags,
	})
	if awserr.Is(err, awserr.ResourceInUse) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("CreateTable(%s): %w", schema.Name, err)
	}

	waiter := awsdynamodb.NewTableExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(schema.Name)}, c.activeTimeout); err != nil {
		return true, fmt.Errorf("waiting for %s: %w", schema.Name, err)
	}
	return true, nil
}

func (c *Client) Close() error { return nil }
