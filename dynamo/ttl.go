package dynamo

import (
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ttlAttr holds a record's expiry in Unix seconds. DynamoDB removes the
// record some time after it passes; until then reads must skip it.
const ttlAttr = "ttl"

// ExpiresAt returns the expiry of a record and whether one is set.
// Non-numeric values count as unset.
func ExpiresAt(item map[string]types.AttributeValue) (int64, bool) {
	n, ok := item[ttlAttr].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	ttl, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// IsDeleted reports whether a record has expired.
func IsDeleted(item map[string]types.AttributeValue) bool {
	return expiredAt(item, time.Now().Unix())
}

func expiredAt(item map[string]types.AttributeValue, now int64) bool {
	ttl, ok := ExpiresAt(item)
	return ok && ttl <= now
}

// liveFilter is a filter expression hiding records expired at a fixed
// instant. Extra terms are ANDed in front of the TTL test.
type liveFilter struct {
	now    int64
	terms  []string
	names  map[string]string
	values map[string]types.AttributeValue
}

func newLiveFilter(now time.Time) *liveFilter {
	return &liveFilter{
		now:   now.Unix(),
		names: map[string]string{"#ttl": ttlAttr},
		values: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	}
}

// equal adds "#attr = :attr" for a string attribute.
func (f *liveFilter) equal(attr, value string) *liveFilter {
	f.terms = append(f.terms, "#"+attr+" = :"+attr)
	f.names["#"+attr] = attr
	f.values[":"+attr] = &types.AttributeValueMemberS{Value: value}
	return f
}

func (f *liveFilter) expression() *string {
	expr := "(attribute_not_exists(#ttl) OR #ttl > :now)"
	for i := len(f.terms) - 1; i >= 0; i-- {
		expr = f.terms[i] + " AND " + expr
	}
	return aws.String(expr)
}

// attributeValues merges the filter values into values.
func (f *liveFilter) attributeValues(values map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(values)+len(f.values))
	for k, v := range values {
		out[k] = v
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// live reports whether a returned item passes the filter. Pages may hold
// records that expired between the request and the response.
func (f *liveFilter) live(item map[string]types.AttributeValue) bool {
	return !expiredAt(item, f.now)
}

// ttlUpdate sets the expiry of the record at key, provided it exists
// (keyAttr present) and carries no expiry yet.
func ttlUpdate(table string, key PK, keyAttr string, ttl int64) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ") AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": ttlAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
		},
	}
}

// settled treats a failed TTL condition as success: the record is gone
// or already expiring.
func settled(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}
