package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	mock.Mock
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *mockDynamo) ListTables(ctx context.Context, in *dynamodb.ListTablesInput, _ ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ListTablesOutput)
	return out, args.Error(1)
}

func strAttr(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func TestDynamoTable_Get(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "blog_").Table("posts", "post_id")

	client.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return aws.ToString(in.TableName) == "blog_posts" && in.Key["post_id"].(*types.AttributeValueMemberS).Value == "p1"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"post_id": strAttr("p1"),
		"title":   strAttr("Hello"),
	}}, nil).Once()

	item, err := table.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", item["title"])

	client.On("GetItem", ctx, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

	_, err = table.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	client.AssertExpectations(t)
}

func TestDynamoTable_Put(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "").Table("posts", "post_id")

	client.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return aws.ToString(in.ConditionExpression) == "attribute_not_exists(#pk)" &&
			in.ExpressionAttributeNames["#pk"] == "post_id" &&
			in.Item["post_id"].(*types.AttributeValueMemberS).Value == "p1"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	assert.NoError(t, table.Put(ctx, "p1", Item{"title": "Hello"}))

	client.On("PutItem", ctx, mock.Anything).Return(nil, conditionFailed()).Once()
	assert.ErrorIs(t, table.Put(ctx, "p1", Item{"title": "Hello"}), ErrConditionFailed)

	client.On("PutItem", ctx, mock.Anything).Return(nil, errors.New("throttled")).Once()
	err := table.Put(ctx, "p1", Item{"title": "Hello"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConditionFailed)

	client.AssertExpectations(t)
}

func TestDynamoTable_Update(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "").Table("posts", "post_id")

	var captured *dynamodb.UpdateItemInput
	client.On("UpdateItem", ctx, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.UpdateItemInput) }).
		Return(&dynamodb.UpdateItemOutput{}, nil).Once()

	require.NoError(t, table.Update(ctx, "p1", Item{"title": "New", "slug": "new"}))

	require.NotNil(t, captured)
	assert.Equal(t, "SET #n0 = :v0, #n1 = :v1", aws.ToString(captured.UpdateExpression))
	assert.Equal(t, "attribute_exists(#pk)", aws.ToString(captured.ConditionExpression))
	assert.Equal(t, "slug", captured.ExpressionAttributeNames["#n0"])
	assert.Equal(t, "title", captured.ExpressionAttributeNames["#n1"])
	assert.Equal(t, "new", captured.ExpressionAttributeValues[":v0"].(*types.AttributeValueMemberS).Value)

	client.On("UpdateItem", ctx, mock.Anything).Return(nil, conditionFailed()).Once()
	assert.ErrorIs(t, table.Update(ctx, "missing", Item{"title": "x"}), ErrNotFound)

	client.AssertExpectations(t)
}

func TestDynamoTable_Delete(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "").Table("posts", "post_id")

	client.On("DeleteItem", ctx, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil).Once()
	assert.NoError(t, table.Delete(ctx, "p1"))

	client.On("DeleteItem", ctx, mock.Anything).Return(nil, conditionFailed()).Once()
	assert.ErrorIs(t, table.Delete(ctx, "p1"), ErrNotFound)

	client.AssertExpectations(t)
}

func TestDynamoTable_ScanFollowsLastEvaluatedKey(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "").Table("posts", "post_id")

	client.On("Scan", ctx, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"post_id": strAttr("p2"), "slug": strAttr("hello")},
		},
		LastEvaluatedKey: map[string]types.AttributeValue{"post_id": strAttr("p2")},
	}, nil).Once()

	client.On("Scan", ctx, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"post_id": strAttr("p3"), "slug": strAttr("hello")},
		},
	}, nil).Once()

	items, err := table.Scan(ctx, Filter{Attr: "slug", Value: "hello", ExcludeKey: "p1"})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p3", items[1]["post_id"])
	client.AssertExpectations(t)
}

func TestDynamoTable_ScanPage(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	table := NewDynamoStore(client, "").Table("posts", "post_id")

	client.On("Scan", ctx, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		start, ok := in.ExclusiveStartKey["post_id"].(*types.AttributeValueMemberS)
		return aws.ToInt32(in.Limit) == 2 && ok && start.Value == "p0"
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"post_id": strAttr("p1")},
			{"post_id": strAttr("p2")},
		},
		LastEvaluatedKey: map[string]types.AttributeValue{"post_id": strAttr("p2")},
	}, nil).Once()

	page, err := table.ScanPage(ctx, 2, "p0")

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.More)
	assert.Equal(t, "p2", page.LastKey)
	client.AssertExpectations(t)
}

func TestDynamoStore_Ping(t *testing.T) {
	ctx := context.Background()
	client := new(mockDynamo)
	store := NewDynamoStore(client, "")

	client.On("ListTables", ctx, mock.Anything).Return(&dynamodb.ListTablesOutput{}, nil).Once()
	assert.NoError(t, store.Ping(ctx))

	client.On("ListTables", ctx, mock.Anything).Return(nil, errors.New("no route")).Once()
	assert.Error(t, store.Ping(ctx))
}
