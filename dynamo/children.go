package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/internal/keys"
)

// Children returns the live children of an item in their stored order.
func (s *Store) Children(ctx context.Context, database string, itemID id.ID) ([]ChildRef, error) {
	all, err := s.QueryAllChildren(ctx, ItemRef(database, itemID), false)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Position < all[j].Position })
	return all, nil
}

// QueryAllChildren returns the relationship records of a parent across
// every shard. Deleted records are included when withDeleted is set;
// cascading deletes use that to stay idempotent.
func (s *Store) QueryAllChildren(ctx context.Context, parentRef string, withDeleted bool) ([]ChildRef, error) {
	numShards := s.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.queryShard(ctx, keys.ShardPK(parentRef, 0), withDeleted)
	}

	var mu sync.Mutex
	var allChildren []ChildRef
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			shardChildren, err := s.queryShard(ctx, keys.ShardPK(parentRef, shardNum), withDeleted)
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			allChildren = append(allChildren, shardChildren...)
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return allChildren, nil
}

func (s *Store) queryShard(ctx context.Context, shardPK string, withDeleted bool) ([]ChildRef, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RelationshipTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		},
	}
	var filter *liveFilter
	if !withDeleted {
		filter = newLiveFilter(time.Now())
		input.FilterExpression = filter.expression()
		input.ExpressionAttributeNames = filter.names
		input.ExpressionAttributeValues = filter.attributeValues(input.ExpressionAttributeValues)
	}

	var children []ChildRef
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if filter != nil && !filter.live(item) {
				continue
			}
			children = append(children, unmarshalChildRef(item, shardPK))
		}
	}
	return children, nil
}

// unmarshalChildRef converts a relationship item to a ChildRef.
func unmarshalChildRef(item map[string]types.AttributeValue, shardPK string) ChildRef {
	ref := ChildRef{ShardPK: shardPK}

	if v, ok := item["child_ref"].(*types.AttributeValueMemberS); ok {
		ref.Ref = v.Value
	}
	if v, ok := item["parent_ref"].(*types.AttributeValueMemberS); ok {
		ref.ParentRef = v.Value
	}
	if v, ok := item["child_table"].(*types.AttributeValueMemberS); ok {
		ref.TableName = v.Value
	}
	if v, ok := item["child_key"].(*types.AttributeValueMemberM); ok {
		ref.Key = v.Value
	}
	if v, ok := item["position"].(*types.AttributeValueMemberN); ok {
		ref.Position, _ = strconv.Atoi(v.Value)
	}
	return ref
}
