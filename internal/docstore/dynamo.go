package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

type DynamoOptions struct {
	Region      string
	Endpoint    string // local DynamoDB, empty in AWS
	AccessKey   string
	SecretKey   string
	TablePrefix string
}

// DynamoStore maps each collection to a DynamoDB table whose partition key is the key attribute.
type DynamoStore struct {
	client DynamoAPI
	prefix string
}

func NewDynamoStore(client DynamoAPI, tablePrefix string) *DynamoStore {
	return &DynamoStore{client: client, prefix: tablePrefix}
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain, or from static keys when both are given.
func NewDynamoClient(ctx context.Context, opts DynamoOptions) (*dynamodb.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}

	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

func (s *DynamoStore) Table(name, keyAttr string) Table {
	return &dynamoTable{
		client:    s.client,
		name:      name,
		tableName: s.prefix + name,
		keyAttr:   keyAttr,
	}
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("dynamodb: ping: %w", err)
	}
	return nil
}

func (s *DynamoStore) Close() error {
	return nil
}

type dynamoTable struct {
	client    DynamoAPI
	name      string
	tableName string
	keyAttr   string
}

func (t *dynamoTable) Name() string { return t.name }

func (t *dynamoTable) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.keyAttr: &types.AttributeValueMemberS{Value: key},
	}
}

func (t *dynamoTable) Get(ctx context.Context, key string) (Item, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.tableName),
		Key:            t.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb %s: get: %w", t.name, err)
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalDynamoItem(out.Item)
}

func (t *dynamoTable) Put(ctx context.Context, key string, item Item) error {
	item[t.keyAttr] = key

	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("dynamodb %s: put: %w", t.name, err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": t.keyAttr},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("dynamodb %s: put: %w", t.name, err)
	}

	return nil
}

func (t *dynamoTable) Update(ctx context.Context, key string, changes Item) error {
	if len(changes) == 0 {
		_, err := t.Get(ctx, key)
		return err
	}

	attrs := make([]string, 0, len(changes))
	for attr := range changes {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	names := map[string]string{"#pk": t.keyAttr}
	values := make(map[string]types.AttributeValue, len(attrs))
	sets := make([]string, 0, len(attrs))

	for i, attr := range attrs {
		name := fmt.Sprintf("#n%d", i)
		placeholder := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(changes[attr])
		if err != nil {
			return fmt.Errorf("dynamodb %s: update %s: %w", t.name, attr, err)
		}

		names[name] = attr
		values[placeholder] = av
		sets = append(sets, name+" = "+placeholder)
	}

	_, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.tableName),
		Key:                       t.key(key),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb %s: update: %w", t.name, err)
	}

	return nil
}

func (t *dynamoTable) Delete(ctx context.Context, key string) error {
	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(t.tableName),
		Key:                      t.key(key),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": t.keyAttr},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb %s: delete: %w", t.name, err)
	}

	return nil
}

// Scan walks the whole table; DynamoDB applies the filter after reading each page.
func (t *dynamoTable) Scan(ctx context.Context, filter Filter) ([]Item, error) {
	expr := "#a = :v"
	names := map[string]string{"#a": filter.Attr}
	values := map[string]types.AttributeValue{
		":v": &types.AttributeValueMemberS{Value: filter.Value},
	}

	if filter.ExcludeKey != "" {
		expr += " AND #k <> :x"
		names["#k"] = t.keyAttr
		values[":x"] = &types.AttributeValueMemberS{Value: filter.ExcludeKey}
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(t.tableName),
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	var items []Item
	for {
		out, err := t.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb %s: scan: %w", t.name, err)
		}

		for _, raw := range out.Items {
			item, err := unmarshalDynamoItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// ScanPage maps directly onto Limit / ExclusiveStartKey / LastEvaluatedKey.
// DynamoDB may report a LastEvaluatedKey even when no items follow.
func (t *dynamoTable) ScanPage(ctx context.Context, limit int, startAfter string) (Page, error) {
	if limit <= 0 {
		return Page{}, fmt.Errorf("dynamodb %s: scan limit must be positive", t.name)
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(t.tableName),
		Limit:     aws.Int32(int32(limit)),
	}
	if startAfter != "" {
		input.ExclusiveStartKey = t.key(startAfter)
	}

	out, err := t.client.Scan(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("dynamodb %s: scan page: %w", t.name, err)
	}

	page := Page{Items: make([]Item, 0, len(out.Items))}
	for _, raw := range out.Items {
		item, err := unmarshalDynamoItem(raw)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
	}

	if len(out.LastEvaluatedKey) > 0 {
		if last, ok := out.LastEvaluatedKey[t.keyAttr].(*types.AttributeValueMemberS); ok {
			page.More = true
			page.LastKey = last.Value
		}
	}

	return page, nil
}

func unmarshalDynamoItem(raw map[string]types.AttributeValue) (Item, error) {
	var item Item
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("dynamodb: corrupt item: %w", err)
	}
	return item, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
