// fakedb builds content trees from fixtures or snapshots, prints them,
// and moves them in and out of DynamoDB.
//
// Sub-commands:
//
//	tree    print the item tree of a fixture or snapshot
//	export  write a fixture or snapshot to DynamoDB
//	import  read a database from DynamoDB into a snapshot file
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/pflag"

	"github.com/jacentio/fakedb/dynamo"
	"github.com/jacentio/fakedb/fixture"
	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/snapshot"
	"github.com/jacentio/fakedb/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("missing sub-command")
	}
	switch args[0] {
	case "tree":
		return runTree(args[1:], stdout, stderr)
	case "export":
		return runExport(ctx, args[1:], stderr)
	case "import":
		return runImport(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		printUsage(stderr)
		return nil
	}
	printUsage(stderr)
	return fmt.Errorf("unknown sub-command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  fakedb tree   (--fixture FILE | --snapshot FILE) [--root PATH] [--out FILE]
  fakedb export (--fixture FILE | --snapshot FILE) [dynamo flags]
  fakedb import --database NAME --out FILE [dynamo flags]

Run "fakedb <sub-command> --help" for the flags of a sub-command.
`)
}

// source holds the flags that select where a storage comes from.
type source struct {
	fixture  string
	snapshot string
	database string
}

func (src *source) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&src.fixture, "fixture", "", "YAML or JSONC fixture file")
	fs.StringVar(&src.snapshot, "snapshot", "", "CBOR snapshot file")
	fs.StringVar(&src.database, "database", "", "database name (default: taken from the input)")
}

func (src *source) load(logger *slog.Logger) (*store.Storage, error) {
	switch {
	case src.fixture != "" && src.snapshot != "":
		return nil, fmt.Errorf("--fixture and --snapshot are mutually exclusive")
	case src.fixture != "":
		tree, err := fixture.ReadFile(src.fixture)
		if err != nil {
			return nil, err
		}
		if src.database != "" {
			tree.Database = src.database
		}
		s := store.New(store.Config{Name: tree.Database, DefaultLanguage: tree.Language, Logger: logger})
		if err := fixture.Apply(s, tree); err != nil {
			return nil, fmt.Errorf("%s: %w", src.fixture, err)
		}
		return s, nil
	case src.snapshot != "":
		f, err := os.Open(src.snapshot)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		snap, err := snapshot.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.snapshot, err)
		}
		return snap.Restore(store.Config{Name: src.database, Logger: logger})
	}
	return nil, fmt.Errorf("one of --fixture or --snapshot is required")
}

// table holds the flags that reach DynamoDB.
type table struct {
	config   dynamo.Config
	region   string
	endpoint string
}

func (t *table) addFlags(fs *pflag.FlagSet) {
	t.config = dynamo.DefaultConfig()
	fs.StringVar(&t.config.ItemTable, "item-table", t.config.ItemTable, "DynamoDB item table")
	fs.StringVar(&t.config.RelationshipTable, "relationship-table", t.config.RelationshipTable, "DynamoDB relationship table")
	fs.IntVar(&t.config.NumShards, "shards", t.config.NumShards, "relationship shards per parent")
	fs.StringVar(&t.region, "region", "", "AWS region (default: from the environment)")
	fs.StringVar(&t.endpoint, "endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
}

func (t *table) open(ctx context.Context, logger *slog.Logger) (*dynamo.Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if t.region != "" {
		opts = append(opts, awsconfig.WithRegion(t.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if t.endpoint != "" {
			o.BaseEndpoint = aws.String(t.endpoint)
		}
	})
	return dynamo.New(client, t.config, logger), nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

func runTree(args []string, stdout, stderr io.Writer) error {
	var src source
	var root, out string
	var verbose bool
	fs := pflag.NewFlagSet("fakedb tree", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	src.addFlags(fs)
	fs.StringVar(&root, "root", "/sitecore", "path or ID of the subtree to print")
	fs.StringVar(&out, "out", "", "also write the storage to this snapshot file")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log registrations")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := src.load(newLogger(stderr, verbose))
	if err != nil {
		return err
	}
	if out != "" {
		if err := writeSnapshot(out, s); err != nil {
			return err
		}
	}
	rootID, ok := s.ResolvePath(root)
	if !ok || s.GetFakeItem(rootID) == nil {
		return fmt.Errorf("%w: %q", store.ErrNotFound, root)
	}
	return printTree(stdout, s, rootID, 0)
}

// printTree writes one line per item, indented by depth.
func printTree(w io.Writer, s *store.Storage, itemID id.ID, depth int) error {
	item := s.GetFakeItem(itemID)
	if item == nil {
		return nil
	}
	for range depth {
		if _, err := io.WriteString(w, "  "); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", item.Name, item.ID); err != nil {
		return err
	}
	for _, c := range s.Children(itemID) {
		if err := printTree(w, s, c.ID, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func runExport(ctx context.Context, args []string, stderr io.Writer) error {
	var src source
	var t table
	var verbose bool
	fs := pflag.NewFlagSet("fakedb export", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	src.addFlags(fs)
	t.addFlags(fs)
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := parse(fs, args); err != nil {
		return err
	}

	logger := newLogger(stderr, verbose)
	s, err := src.load(logger)
	if err != nil {
		return err
	}
	d, err := t.open(ctx, logger)
	if err != nil {
		return err
	}
	return d.Export(ctx, s)
}

func runImport(ctx context.Context, args []string, stderr io.Writer) error {
	var t table
	var database, out string
	var verbose bool
	fs := pflag.NewFlagSet("fakedb import", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	t.addFlags(fs)
	fs.StringVar(&database, "database", store.DefaultDatabase, "database to import")
	fs.StringVar(&out, "out", "", "snapshot file to write")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := parse(fs, args); err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	logger := newLogger(stderr, verbose)
	d, err := t.open(ctx, logger)
	if err != nil {
		return err
	}
	s, err := d.Import(ctx, database, store.Config{Logger: logger})
	if err != nil {
		return err
	}
	return writeSnapshot(out, s)
}

func writeSnapshot(path string, s *store.Storage) error {
	data, err := snapshot.Marshal(snapshot.Take(s))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
