// Package dynamo exports storages to DynamoDB and imports them back.
//
// Every item and blob of a storage becomes one record of the item table
// (see [Record]). Every parent/child edge additionally becomes one record
// of the relationship table, partitioned by parent and spread over
// Config.NumShards shards, so the children of an item can be listed
// without scanning the item table:
//
//	pk          "<parent ref>#<shard>"
//	child_ref   "<database>#<child id>"
//	parent_ref  "<database>#<parent id>"
//	child_table item table name
//	child_key   {"id": child_ref}
//	position    index of the child in its parent's order
//
// Records are deleted by setting their "ttl" attribute; reads skip
// records whose TTL has passed. The stream package propagates a TTL set
// on an item to its descendants.
package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/internal/keys"
	"github.com/jacentio/fakedb/snapshot"
	"github.com/jacentio/fakedb/store"
)

// maxBatch is the BatchWriteItem request limit.
const maxBatch = 25

// Client is the subset of the DynamoDB API the Store uses.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// PK is a DynamoDB primary key.
type PK = map[string]types.AttributeValue

// ChildRef is one relationship record.
type ChildRef struct {
	Ref       string
	ParentRef string
	ShardPK   string
	TableName string
	Key       PK
	Position  int
}

// Store reads and writes storages in DynamoDB.
type Store struct {
	client Client
	config Config
	logger *slog.Logger
}

// New creates a new Store instance.
func New(client Client, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		config: config,
		logger: logger,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// relationshipPK computes the sharded partition key for a relationship record.
func (s *Store) relationshipPK(parentRef, childRef string) string {
	return keys.RelationshipPK(parentRef, childRef, s.config.NumShards)
}

// Export writes every item, blob and parent/child edge of st. Records of
// items no longer in st are left in place.
func (s *Store) Export(ctx context.Context, st *store.Storage) error {
	database := st.Name()
	snap := snapshot.Take(st)

	var requests []types.WriteRequest
	for _, r := range snap.Items {
		rec := itemRecord(database, r)
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", r.ID, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	for _, b := range snap.Blobs {
		item, err := attributevalue.MarshalMap(blobRecord(database, b))
		if err != nil {
			return fmt.Errorf("marshal blob %s: %w", b.ID, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	var edges []types.WriteRequest
	for _, r := range snap.Items {
		parentRef := ItemRef(database, r.ID)
		for pos, c := range r.Children {
			edges = append(edges, types.WriteRequest{PutRequest: &types.PutRequest{
				Item: s.relationshipItem(parentRef, ItemRef(database, c), pos),
			}})
		}
	}

	// The tables are independent; a failure in either cancels the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.writeAll(gctx, s.config.ItemTable, requests) })
	g.Go(func() error { return s.writeAll(gctx, s.config.RelationshipTable, edges) })
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("exported storage",
		"database", database,
		"items", len(snap.Items),
		"blobs", len(snap.Blobs),
		"relationships", len(edges),
	)
	return nil
}

func (s *Store) relationshipItem(parentRef, childRef string, position int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":          &types.AttributeValueMemberS{Value: s.relationshipPK(parentRef, childRef)},
		"child_ref":   &types.AttributeValueMemberS{Value: childRef},
		"parent_ref":  &types.AttributeValueMemberS{Value: parentRef},
		"child_table": &types.AttributeValueMemberS{Value: s.config.ItemTable},
		"child_key": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: childRef},
		}},
		"position": &types.AttributeValueMemberN{Value: strconv.Itoa(position)},
	}
}

// writeAll writes requests in batches, retrying unprocessed items.
func (s *Store) writeAll(ctx context.Context, table string, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatch {
		end := min(start+maxBatch, len(requests))
		if err := s.writeBatch(ctx, table, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeBatch(ctx context.Context, table string, batch []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{table: batch}
	for attempt := 0; ; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write %s: %w", table, err)
		}
		if len(out.UnprocessedItems[table]) == 0 {
			return nil
		}
		if attempt >= s.config.MaxRetries {
			return fmt.Errorf("%w: %d items for %s", ErrUnprocessed, len(out.UnprocessedItems[table]), table)
		}
		pending = out.UnprocessedItems
		s.logger.Debug("retrying unprocessed items",
			"table", table,
			"count", len(pending[table]),
			"attempt", attempt+1,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
}

// Import reads the live records of database and rebuilds a storage.
// Items whose parent is deleted are dropped together with their subtree.
// An empty config name is taken from database.
func (s *Store) Import(ctx context.Context, database string, config store.Config) (*store.Storage, error) {
	records, err := s.scanDatabase(ctx, database)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{Version: snapshot.FormatVersion, Database: database}
	for _, rec := range records {
		switch rec.Kind {
		case KindItem:
			r, err := rec.Item()
			if err != nil {
				return nil, err
			}
			snap.Items = append(snap.Items, r)
		case KindBlob:
			b, err := rec.Blob()
			if err != nil {
				return nil, err
			}
			snap.Blobs = append(snap.Blobs, b)
		default:
			s.logger.Warn("skipping record of unknown kind", "ref", rec.Ref, "kind", rec.Kind)
		}
	}
	snap.Items = prune(snap.Items)

	if config.Name == "" {
		config.Name = database
	}
	st, err := snap.Restore(config)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", database, err)
	}
	s.logger.Info("imported storage", "database", database, "items", len(snap.Items), "blobs", len(snap.Blobs))
	return st, nil
}

// prune drops items whose parent is missing, transitively, and child
// references to dropped items.
func prune(items []snapshot.ItemRecord) []snapshot.ItemRecord {
	byID := make(map[id.ID]snapshot.ItemRecord, len(items))
	for _, r := range items {
		byID[r.ID] = r
	}

	live := make(map[id.ID]bool, len(items))
	var resolve func(itemID id.ID, depth int) bool
	resolve = func(itemID id.ID, depth int) bool {
		if ok, seen := live[itemID]; seen {
			return ok
		}
		r, ok := byID[itemID]
		if !ok || depth > len(items) {
			return false
		}
		ok = r.ParentID.IsNull() || resolve(r.ParentID, depth+1)
		live[itemID] = ok
		return ok
	}

	out := make([]snapshot.ItemRecord, 0, len(items))
	for _, r := range items {
		if !resolve(r.ID, 0) {
			continue
		}
		kept := r.Children[:0:0]
		for _, c := range r.Children {
			if live[c] || resolve(c, 0) {
				kept = append(kept, c)
			}
		}
		r.Children = kept
		out = append(out, r)
	}
	return out
}

func (s *Store) scanDatabase(ctx context.Context, database string) ([]Record, error) {
	filter := newLiveFilter(time.Now()).equal("database", database)
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.ItemTable),
		FilterExpression:          filter.expression(),
		ExpressionAttributeNames:  filter.names,
		ExpressionAttributeValues: filter.values,
	})

	var records []Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.config.ItemTable, err)
		}
		for _, raw := range page.Items {
			if !filter.live(raw) {
				continue
			}
			var rec Record
			if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Get returns the live record of one item.
func (s *Store) Get(ctx context.Context, database string, itemID id.ID) (*Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.ItemTable),
		Key:       itemKey(ItemRef(database, itemID)),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil || IsDeleted(result.Item) {
		return nil, ErrNotFound
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &rec, nil
}

func itemKey(ref string) PK {
	return PK{"id": &types.AttributeValueMemberS{Value: ref}}
}

// Delete marks an item for deletion by setting its TTL to now. Its
// descendants follow through the stream handler.
func (s *Store) Delete(ctx context.Context, database string, itemID id.ID) error {
	return s.SetTTLByKey(ctx, s.config.ItemTable, itemKey(ItemRef(database, itemID)), time.Now().Unix())
}

// SetTTLByKey sets TTL on a record by table and key. A record that
// already carries a TTL, or no longer exists, is left unchanged.
func (s *Store) SetTTLByKey(ctx context.Context, table string, key PK, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, ttlUpdate(table, key, "id", ttl))
	return settled(err)
}

// SetRelationshipTTL sets TTL on the relationship record linking
// parentRef to childRef.
func (s *Store) SetRelationshipTTL(ctx context.Context, childRef, parentRef string, ttl int64) error {
	key := PK{
		"pk":        &types.AttributeValueMemberS{Value: s.relationshipPK(parentRef, childRef)},
		"child_ref": &types.AttributeValueMemberS{Value: childRef},
	}
	_, err := s.client.UpdateItem(ctx, ttlUpdate(s.config.RelationshipTable, key, "pk", ttl))
	return settled(err)
}
