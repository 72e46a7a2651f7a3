package main

import (
	"log/slog"
	"testing"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadSettings_Defaults(t *testing.T) {
	st, err := loadSettings(env(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.database != "master" {
		t.Errorf("expected database master, got %q", st.database)
	}
	if st.dynamo.ItemTable != "fakedb_items" {
		t.Errorf("expected default item table, got %q", st.dynamo.ItemTable)
	}
	if st.level != slog.LevelInfo {
		t.Errorf("expected info level, got %v", st.level)
	}
}

func TestLoadSettings_Overrides(t *testing.T) {
	st, err := loadSettings(env(map[string]string{
		"FAKEDB_DATABASE":           "web",
		"FAKEDB_ITEM_TABLE":         "items",
		"FAKEDB_RELATIONSHIP_TABLE": "edges",
		"FAKEDB_SHARDS":             "16",
		"FAKEDB_LOG_LEVEL":          "debug",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.database != "web" || st.dynamo.ItemTable != "items" || st.dynamo.RelationshipTable != "edges" {
		t.Errorf("overrides not applied: %+v", st)
	}
	if st.dynamo.NumShards != 16 {
		t.Errorf("expected 16 shards, got %d", st.dynamo.NumShards)
	}
	if st.level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", st.level)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	if _, err := loadSettings(env(map[string]string{"FAKEDB_SHARDS": "many"})); err == nil {
		t.Error("expected error for non-numeric shards")
	}
	if _, err := loadSettings(env(map[string]string{"FAKEDB_LOG_LEVEL": "loud"})); err == nil {
		t.Error("expected error for unknown level")
	}
}
