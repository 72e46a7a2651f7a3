package dynamo

// Config holds configuration for the Store.
type Config struct {
	// ItemTable holds one record per item and per blob, keyed by "id".
	// Default: "fakedb_items"
	ItemTable string

	// RelationshipTable holds one record per parent/child edge, keyed by
	// "pk" and "child_ref".
	// Default: "fakedb_relationships"
	RelationshipTable string

	// NumShards is the number of shards a parent's children are spread
	// over in the relationship table. Reading children fans out over
	// every shard.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// MaxRetries bounds the retries of unprocessed batch writes.
	// Default: 5
	MaxRetries int
}

// DefaultConfig returns sensible defaults for small trees.
func DefaultConfig() Config {
	return Config{
		ItemTable:         "fakedb_items",
		RelationshipTable: "fakedb_relationships",
		NumShards:         1,
		MaxRetries:        5,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.ItemTable == "" {
		c.ItemTable = "fakedb_items"
	}
	if c.RelationshipTable == "" {
		c.RelationshipTable = "fakedb_relationships"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
}
