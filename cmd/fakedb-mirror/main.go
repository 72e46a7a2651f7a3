// fakedb-mirror is an AWS Lambda function consuming the item table's
// DynamoDB stream. On cold start it imports one database into memory;
// each stream batch is then applied to that mirror and deletes are
// cascaded to descendants.
//
// Environment:
//
//	FAKEDB_DATABASE            database to mirror (default "master")
//	FAKEDB_ITEM_TABLE          item table (default "fakedb_items")
//	FAKEDB_RELATIONSHIP_TABLE  relationship table (default "fakedb_relationships")
//	FAKEDB_SHARDS              relationship shards per parent (default 1)
//	FAKEDB_LOG_LEVEL           debug, info, warn or error (default info)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/fakedb/dynamo"
	"github.com/jacentio/fakedb/store"
	"github.com/jacentio/fakedb/stream"
)

func main() {
	handler, err := setup(context.Background(), os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(handler.HandleStream)
}

// settings is the environment-derived configuration.
type settings struct {
	database string
	dynamo   dynamo.Config
	level    slog.Level
}

func loadSettings(getenv func(string) string) (settings, error) {
	st := settings{
		database: store.DefaultDatabase,
		dynamo:   dynamo.DefaultConfig(),
		level:    slog.LevelInfo,
	}
	if v := getenv("FAKEDB_DATABASE"); v != "" {
		st.database = v
	}
	if v := getenv("FAKEDB_ITEM_TABLE"); v != "" {
		st.dynamo.ItemTable = v
	}
	if v := getenv("FAKEDB_RELATIONSHIP_TABLE"); v != "" {
		st.dynamo.RelationshipTable = v
	}
	if v := getenv("FAKEDB_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return settings{}, fmt.Errorf("FAKEDB_SHARDS: %w", err)
		}
		st.dynamo.NumShards = n
	}
	if v := getenv("FAKEDB_LOG_LEVEL"); v != "" {
		if err := st.level.UnmarshalText([]byte(v)); err != nil {
			return settings{}, fmt.Errorf("FAKEDB_LOG_LEVEL: %w", err)
		}
	}
	return st, nil
}

func setup(ctx context.Context, getenv func(string) string) (*stream.Handler, error) {
	st, err := loadSettings(getenv)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: st.level}))

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	d := dynamo.New(dynamodb.NewFromConfig(cfg), st.dynamo, logger)

	mirror, err := d.Import(ctx, st.database, store.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", st.database, err)
	}
	logger.Info("mirror ready", "database", st.database, "items", len(mirror.GetFakeItems()))
	return stream.NewHandler(mirror, d, logger), nil
}
