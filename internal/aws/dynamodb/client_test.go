package dynamodb

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/aria-idc/internal/store"
)

type mockDynamoDBAPI struct {
	putItemFunc       func(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	getItemFunc       func(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	deleteItemFunc    func(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	scanFunc          func(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error)
	createTableFunc   func(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error)
	describeTableFunc func(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error)
}

func (m *mockDynamoDBAPI) PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error) {
	return m.putItemFunc(ctx, params, optFns...)
}

func (m *mockDynamoDBAPI) GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
	return m.getItemFunc(ctx, params, optFns...)
}

func (m *mockDynamoDBAPI) DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error) {
	return m.deleteItemFunc(ctx, params, optFns...)
}

func (m *mockDynamoDBAPI) Scan(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error) {
	return m.scanFunc(ctx, params, optFns...)
}

func (m *mockDynamoDBAPI) CreateTable(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error) {
	return m.createTableFunc(ctx, params, optFns...)
}

func (m *mockDynamoDBAPI) DescribeTable(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error) {
	return m.describeTableFunc(ctx, params, optFns...)
}

var findingsSchema = store.Schema{Name: "AriaIdCInternalAAFindings", HashKey: "FindingId"}

func str(v string) ddbtypes.AttributeValue { return &ddbtypes.AttributeValueMemberS{Value: v} }

func TestPut(t *testing.T) {
	var got map[string]ddbtypes.AttributeValue
	mock := &mockDynamoDBAPI{
		putItemFunc: func(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error) {
			assert.Equal(t, "AriaIdCInternalAAFindings", awssdk.ToString(params.TableName))
			got = params.Item
			return &awsdynamodb.PutItemOutput{}, nil
		},
	}

	tbl := NewClient(mock).Table(findingsSchema)
	err := tbl.Put(context.Background(), store.Item{"FindingId": "f-1", "NumberOfUnusedActions": 3, "Policies": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, str("f-1"), got["FindingId"])
	assert.Equal(t, &ddbtypes.AttributeValueMemberN{Value: "3"}, got["NumberOfUnusedActions"])
	assert.IsType(t, &ddbtypes.AttributeValueMemberL{}, got["Policies"])
}

func TestPut_MissingKey(t *testing.T) {
	tbl := NewClient(&mockDynamoDBAPI{}).Table(findingsSchema)
	err := tbl.Put(context.Background(), store.Item{"Status": "ACTIVE"})
	assert.ErrorIs(t, err, store.ErrMissingKey)
}

func TestGet(t *testing.T) {
	mock := &mockDynamoDBAPI{
		getItemFunc: func(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
			if params.Key["FindingId"].(*ddbtypes.AttributeValueMemberS).Value == "absent" {
				return &awsdynamodb.GetItemOutput{}, nil
			}
			return &awsdynamodb.GetItemOutput{Item: map[string]ddbtypes.AttributeValue{
				"FindingId": str("f-1"),
				"Count":     &ddbtypes.AttributeValueMemberN{Value: "4"},
			}}, nil
		},
	}

	tbl := NewClient(mock).Table(findingsSchema)
	item, ok, err := tbl.Get(context.Background(), store.Key{"FindingId": "f-1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f-1", item.String("FindingId"))
	assert.Equal(t, float64(4), item["Count"])

	_, ok, err = tbl.Get(context.Background(), store.Key{"FindingId": "absent"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteIfExists(t *testing.T) {
	mock := &mockDynamoDBAPI{
		deleteItemFunc: func(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error) {
			assert.Equal(t, "attribute_exists(#k)", awssdk.ToString(params.ConditionExpression))
			assert.Equal(t, "FindingId", params.ExpressionAttributeNames["#k"])
			if params.Key["FindingId"].(*ddbtypes.AttributeValueMemberS).Value == "gone" {
				return nil, &ddbtypes.ConditionalCheckFailedException{Message: awssdk.String("The conditional request failed")}
			}
			return &awsdynamodb.DeleteItemOutput{}, nil
		},
	}

	tbl := NewClient(mock).Table(findingsSchema)

	existed, err := tbl.DeleteIfExists(context.Background(), store.Key{"FindingId": "f-1"})
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = tbl.DeleteIfExists(context.Background(), store.Key{"FindingId": "gone"})
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDeleteIfExists_OtherError(t *testing.T) {
	mock := &mockDynamoDBAPI{
		deleteItemFunc: func(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	_, err := NewClient(mock).Table(findingsSchema).DeleteIfExists(context.Background(), store.Key{"FindingId": "f-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DeleteItem(AriaIdCInternalAAFindings)")
}

func TestScan_FollowsLastEvaluatedKey(t *testing.T) {
	calls := 0
	mock := &mockDynamoDBAPI{
		scanFunc: func(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error) {
			calls++
			switch calls {
			case 1:
				assert.Nil(t, params.ExclusiveStartKey)
				return &awsdynamodb.ScanOutput{
					Items:            []map[string]ddbtypes.AttributeValue{{"FindingId": str("f-1")}},
					LastEvaluatedKey: map[string]ddbtypes.AttributeValue{"FindingId": str("f-1")},
				}, nil
			case 2:
				assert.Equal(t, str("f-1"), params.ExclusiveStartKey["FindingId"])
				return &awsdynamodb.ScanOutput{
					Items:            []map[string]ddbtypes.AttributeValue{{"FindingId": str("f-2")}},
					LastEvaluatedKey: map[string]ddbtypes.AttributeValue{"FindingId": str("f-2")},
				}, nil
			default:
				return &awsdynamodb.ScanOutput{
					Items: []map[string]ddbtypes.AttributeValue{{"FindingId": str("f-3")}},
				}, nil
			}
		},
	}

	items, err := NewClient(mock).Table(findingsSchema).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, items, 3)
	assert.Equal(t, "f-3", items[2].String("FindingId"))
}

func TestHasItems(t *testing.T) {
	count := int32(0)
	mock := &mockDynamoDBAPI{
		scanFunc: func(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error) {
			assert.Equal(t, ddbtypes.SelectCount, params.Select)
			assert.Equal(t, int32(1), awssdk.ToInt32(params.Limit))
			return &awsdynamodb.ScanOutput{Count: count}, nil
		},
	}
	tbl := NewClient(mock).Table(findingsSchema)

	has, err := tbl.HasItems(context.Background())
	require.NoError(t, err)
	assert.False(t, has)

	count = 1
	has, err = tbl.HasItems(context.Background())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestEnsure_CreatesAndWaits(t *testing.T) {
	var created *awsdynamodb.CreateTableInput
	mock := &mockDynamoDBAPI{
		createTableFunc: func(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error) {
			created = params
			return &awsdynamodb.CreateTableOutput{}, nil
		},
		describeTableFunc: func(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error) {
			return &awsdynamodb.DescribeTableOutput{
				Table: &ddbtypes.TableDescription{TableStatus: ddbtypes.TableStatusActive},
			}, nil
		},
	}

	schema := store.Schema{Name: "AriaIdCGroupMembership", HashKey: "GroupId", RangeKey: "UserId"}
	ok, err := NewClient(mock).Ensure(context.Background(), schema)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NotNil(t, created)
	assert.Equal(t, ddbtypes.BillingModePayPerRequest, created.BillingMode)
	assert.Equal(t, ddbtypes.SSETypeKms, created.SSESpecification.SSEType)
	require.Len(t, created.KeySchema, 2)
	assert.Equal(t, ddbtypes.KeyTypeHash, created.KeySchema[0].KeyType)
	assert.Equal(t, "UserId", awssdk.ToString(created.KeySchema[1].AttributeName))
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "aria", awssdk.ToString(created.Tags[0].Key))
}

func TestEnsure_ExistingTable(t *testing.T) {
	mock := &mockDynamoDBAPI{
		createTableFunc: func(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error) {
			return nil, &ddbtypes.ResourceInUseException{Message: awssdk.String("Table already exists")}
		},
	}

	ok, err := NewClient(mock).Ensure(context.Background(), findingsSchema)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsure_CreateError(t *testing.T) {
	mock := &mockDynamoDBAPI{
		createTableFunc: func(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error) {
			return nil, errors.New("LimitExceededException")
		},
	}

	_, err := NewClient(mock).Ensure(context.Background(), findingsSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CreateTable(AriaIdCInternalAAFindings)")
}
