// Package dynamotest provides an in-memory DynamoDB stand-in for tests.
//
// It understands the narrow set of expressions the dynamo package
// issues: key equality queries, the database and TTL scan filters, and
// conditional TTL updates.
package dynamotest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is one stored record.
type Item = map[string]types.AttributeValue

// Fake is a goroutine-safe in-memory DynamoDB client.
type Fake struct {
	mu     sync.Mutex
	keys   map[string][]string
	tables map[string]*table

	// UnprocessedRounds makes the next BatchWriteItem calls leave the
	// last request of each table unprocessed.
	UnprocessedRounds int
	// BatchCalls counts BatchWriteItem calls.
	BatchCalls int
}

type table struct {
	order []string
	rows  map[string]Item
}

// New returns a fake holding the given tables, each mapped to its key
// attribute names.
func New(keySchema map[string][]string) *Fake {
	f := &Fake{keys: keySchema, tables: make(map[string]*table)}
	for name := range keySchema {
		f.tables[name] = &table{rows: make(map[string]Item)}
	}
	return f
}

func (f *Fake) table(name string) (*table, []string, error) {
	t, ok := f.tables[name]
	if !ok {
		return nil, nil, &types.ResourceNotFoundException{Message: aws.String("table " + name + " not found")}
	}
	return t, f.keys[name], nil
}

func rowKey(keyNames []string, item Item) (string, error) {
	parts := make([]string, 0, len(keyNames))
	for _, k := range keyNames {
		v, ok := item[k].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("dynamotest: missing string key attribute %q", k)
		}
		parts = append(parts, v.Value)
	}
	return strings.Join(parts, "\x00"), nil
}

func (t *table) put(key string, item Item) {
	if _, ok := t.rows[key]; !ok {
		t.order = append(t.order, key)
	}
	t.rows[key] = item
}

// Put stores an item directly.
func (f *Fake) Put(tableName string, item Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, keyNames, err := f.table(tableName)
	if err != nil {
		return err
	}
	key, err := rowKey(keyNames, item)
	if err != nil {
		return err
	}
	t.put(key, copyItem(item))
	return nil
}

// Items returns every stored item of a table in insertion order.
func (f *Fake) Items(tableName string) []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableName]
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, copyItem(t.rows[k]))
	}
	return out
}

// GetItem implements the dynamo.Client method.
func (f *Fake) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, keyNames, err := f.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	key, err := rowKey(keyNames, in.Key)
	if err != nil {
		return nil, err
	}
	row, ok := t.rows[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(row)}, nil
}

// UpdateItem supports "SET #ttl = :ttl" guarded by attribute_exists and
// attribute_not_exists(#ttl).
func (f *Fake) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, keyNames, err := f.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	key, err := rowKey(keyNames, in.Key)
	if err != nil {
		return nil, err
	}
	if aws.ToString(in.UpdateExpression) != "SET #ttl = :ttl" {
		return nil, fmt.Errorf("dynamotest: unsupported update %q", aws.ToString(in.UpdateExpression))
	}

	row, ok := t.rows[key]
	cond := aws.ToString(in.ConditionExpression)
	if !ok && strings.Contains(cond, "attribute_exists(") {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("item missing")}
	}
	if _, has := row["ttl"]; has && strings.Contains(cond, "attribute_not_exists(#ttl)") {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("ttl already set")}
	}
	if !ok {
		row = copyItem(in.Key)
		t.put(key, row)
	}
	row["ttl"] = in.ExpressionAttributeValues[":ttl"]
	return &dynamodb.UpdateItemOutput{}, nil
}

// BatchWriteItem implements puts, honouring UnprocessedRounds.
func (f *Fake) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchCalls++

	holdBack := f.UnprocessedRounds > 0
	if holdBack {
		f.UnprocessedRounds--
	}

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for name, requests := range in.RequestItems {
		if len(requests) > 25 {
			return nil, fmt.Errorf("dynamodb: too many items in batch: %d", len(requests))
		}
		t, keyNames, err := f.table(name)
		if err != nil {
			return nil, err
		}
		for i, r := range requests {
			if holdBack && i == len(requests)-1 {
				out.UnprocessedItems[name] = append(out.UnprocessedItems[name], r)
				continue
			}
			if r.PutRequest == nil {
				return nil, fmt.Errorf("dynamotest: only put requests are supported")
			}
			key, err := rowKey(keyNames, r.PutRequest.Item)
			if err != nil {
				return nil, err
			}
			t.put(key, copyItem(r.PutRequest.Item))
		}
	}
	return out, nil
}

// Query supports "pk = :pk" with an optional TTL filter.
func (f *Fake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, _, err := f.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	pk, _ := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if pk == nil {
		return nil, fmt.Errorf("dynamotest: unsupported key condition %q", aws.ToString(in.KeyConditionExpression))
	}

	out := &dynamodb.QueryOutput{}
	for _, k := range t.order {
		row := t.rows[k]
		if v, ok := row["pk"].(*types.AttributeValueMemberS); !ok || v.Value != pk.Value {
			continue
		}
		if !matchFilter(row, aws.ToString(in.FilterExpression), in.ExpressionAttributeValues) {
			continue
		}
		out.Items = append(out.Items, copyItem(row))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// Scan returns every row matching the database and TTL filters.
func (f *Fake) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, _, err := f.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	out := &dynamodb.ScanOutput{}
	for _, k := range t.order {
		row := t.rows[k]
		if !matchFilter(row, aws.ToString(in.FilterExpression), in.ExpressionAttributeValues) {
			continue
		}
		out.Items = append(out.Items, copyItem(row))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func matchFilter(row Item, expr string, values map[string]types.AttributeValue) bool {
	if expr == "" {
		return true
	}
	if db, ok := values[":database"].(*types.AttributeValueMemberS); ok {
		v, ok := row["database"].(*types.AttributeValueMemberS)
		if !ok || v.Value != db.Value {
			return false
		}
	}
	if now, ok := values[":now"].(*types.AttributeValueMemberN); ok && strings.Contains(expr, "#ttl") {
		if ttl, ok := row["ttl"].(*types.AttributeValueMemberN); ok {
			n, _ := strconv.ParseInt(now.Value, 10, 64)
			v, _ := strconv.ParseInt(ttl.Value, 10, 64)
			if v <= n {
				return false
			}
		}
	}
	return true
}

func copyItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
