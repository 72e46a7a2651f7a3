//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
//
// FAKEDB_E2E_PROFILE selects a shared AWS profile; FAKEDB_E2E_ENDPOINT
// points the client at DynamoDB Local instead.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/fakedb/dynamo"
	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
	"github.com/jacentio/fakedb/stream"
)

// Table names - unique per test run to avoid conflicts
const tablePrefix = "fakedb-e2e-test"

var (
	testID            string
	itemTable         string
	relationshipTable string

	ddbClient *dynamodb.Client
	testStore *dynamo.Store
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	itemTable = fmt.Sprintf("%s-%s-items", tablePrefix, testID)
	relationshipTable = fmt.Sprintf("%s-%s-relationships", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Tables:\n")
	fmt.Printf("  - Items: %s\n", itemTable)
	fmt.Printf("  - Relationships: %s\n", relationshipTable)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv("FAKEDB_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("FAKEDB_E2E_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	testStore = dynamo.New(ddbClient, dynamo.Config{
		ItemTable:         itemTable,
		RelationshipTable: relationshipTable,
		NumShards:         4,
	}, nil)

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(itemTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create item table: %w", err)
	}

	_, err = ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(relationshipTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("child_ref"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("child_ref"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create relationship table: %w", err)
	}

	for _, tableName := range []string{itemTable, relationshipTable} {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range []string{itemTable, relationshipTable} {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// --- Helpers ---

// newSite builds a storage under a database name unique to the test.
func newSite(t *testing.T, children int) (*store.Storage, *store.Item) {
	t.Helper()
	s := store.New(store.Config{Name: "e2e-" + uuid.New().String()[:8]})
	home := store.NewItem("Home")
	if err := home.AddFieldValue("Title", "Welcome"); err != nil {
		t.Fatalf("AddFieldValue failed: %v", err)
	}
	for i := range children {
		child := store.NewItem(fmt.Sprintf("Page %d", i))
		if err := child.AddFieldValue("Title", fmt.Sprintf("Page %d", i)); err != nil {
			t.Fatalf("AddFieldValue failed: %v", err)
		}
		if err := home.AddChild(child); err != nil {
			t.Fatalf("AddChild failed: %v", err)
		}
	}
	if err := s.AddFakeItem(home); err != nil {
		t.Fatalf("AddFakeItem failed: %v", err)
	}
	return s, home
}

func rawItem(t *testing.T, ref string) map[string]types.AttributeValue {
	t.Helper()
	out, err := ddbClient.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName:      aws.String(itemTable),
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: ref}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	return out.Item
}

func toStream(item map[string]types.AttributeValue) map[string]events.DynamoDBAttributeValue {
	out := make(map[string]events.DynamoDBAttributeValue, len(item))
	for k, v := range item {
		out[k] = toStreamValue(v)
	}
	return out
}

func toStreamValue(v types.AttributeValue) events.DynamoDBAttributeValue {
	switch v := v.(type) {
	case *types.AttributeValueMemberS:
		return events.NewStringAttribute(v.Value)
	case *types.AttributeValueMemberN:
		return events.NewNumberAttribute(v.Value)
	case *types.AttributeValueMemberB:
		return events.NewBinaryAttribute(v.Value)
	case *types.AttributeValueMemberBOOL:
		return events.NewBooleanAttribute(v.Value)
	case *types.AttributeValueMemberL:
		list := make([]events.DynamoDBAttributeValue, 0, len(v.Value))
		for _, e := range v.Value {
			list = append(list, toStreamValue(e))
		}
		return events.NewListAttribute(list)
	case *types.AttributeValueMemberM:
		return events.NewMapAttribute(toStream(v.Value))
	}
	return events.NewNullAttribute()
}

// --- Export / Import ---

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, home := newSite(t, 3)

	if err := testStore.Export(ctx, s); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, err := testStore.Import(ctx, s.Name(), store.Config{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got, want := len(imported.GetFakeItems()), len(s.GetFakeItems()); got != want {
		t.Errorf("expected %d items, got %d", want, got)
	}

	got := imported.GetFakeItem(home.ID)
	if got == nil {
		t.Fatal("home not imported")
	}
	if got.FieldByName("Title").Value("en") != "Welcome" {
		t.Errorf("expected Title 'Welcome', got %q", got.FieldByName("Title").Value("en"))
	}
	if len(got.ChildIDs()) != 3 {
		t.Errorf("expected 3 children, got %d", len(got.ChildIDs()))
	}
}

func TestExport_LargeTree(t *testing.T) {
	ctx := context.Background()
	s, home := newSite(t, 60)

	if err := testStore.Export(ctx, s); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	children, err := testStore.Children(ctx, s.Name(), home.ID)
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 60 {
		t.Fatalf("expected 60 children, got %d", len(children))
	}
	for i, c := range children {
		if want := dynamo.ItemRef(s.Name(), home.ChildIDs()[i]); c.Ref != want {
			t.Errorf("child %d: expected %s, got %s", i, want, c.Ref)
		}
	}
}

// --- Delete ---

func TestDelete_SoftDeletes(t *testing.T) {
	ctx := context.Background()
	s, home := newSite(t, 1)
	if err := testStore.Export(ctx, s); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if err := testStore.Delete(ctx, s.Name(), home.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := testStore.Get(ctx, s.Name(), home.ID); !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Idempotent
	if err := testStore.Delete(ctx, s.Name(), home.ID); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if err := testStore.Delete(ctx, s.Name(), id.New()); err != nil {
		t.Errorf("Delete of missing item failed: %v", err)
	}
}

// --- Stream cascade ---

func TestStream_CascadeDelete(t *testing.T) {
	ctx := context.Background()
	s, home := newSite(t, 2)
	if err := testStore.Export(ctx, s); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	mirror, err := testStore.Import(ctx, s.Name(), store.Config{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	handler := stream.NewHandler(mirror, testStore, nil)

	ref := dynamo.ItemRef(s.Name(), home.ID)
	before := rawItem(t, ref)
	if err := testStore.Delete(ctx, s.Name(), home.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	after := rawItem(t, ref)

	err = handler.HandleStream(ctx, events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{{
		EventID:   "e2e",
		EventName: string(events.DynamoDBOperationTypeModify),
		Change: events.DynamoDBStreamRecord{
			Keys:     toStream(map[string]types.AttributeValue{"id": after["id"]}),
			OldImage: toStream(before),
			NewImage: toStream(after),
		},
	}}})
	if err != nil {
		t.Fatalf("HandleStream failed: %v", err)
	}

	if mirror.GetFakeItem(home.ID) != nil {
		t.Error("expected home to be removed from the mirror")
	}

	ttl, _ := after["ttl"].(*types.AttributeValueMemberN)
	if ttl == nil {
		t.Fatal("expected ttl on deleted record")
	}
	for _, c := range home.ChildIDs() {
		child := rawItem(t, dynamo.ItemRef(s.Name(), c))
		got, _ := child["ttl"].(*types.AttributeValueMemberN)
		if got == nil || got.Value != ttl.Value {
			t.Errorf("expected child %s ttl %s, got %v", c, ttl.Value, child["ttl"])
		}
	}

	live, err := testStore.QueryAllChildren(ctx, dynamo.ItemRef(s.Name(), id.ContentRoot), false)
	if err != nil {
		t.Fatalf("QueryAllChildren failed: %v", err)
	}
	for _, c := range live {
		if c.Ref == ref {
			n, _ := strconv.ParseInt(ttl.Value, 10, 64)
			t.Errorf("relationship of deleted item still live (ttl %d)", n)
		}
	}
}
