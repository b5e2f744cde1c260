/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/suparena/itemstore"
	"github.com/suparena/itemstore/catalogmodels"
	"github.com/suparena/itemstore/config"
	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/datastore/ddb"
	"github.com/suparena/itemstore/datastore/mock"
	"github.com/suparena/itemstore/datastore/mongo"
	"github.com/suparena/itemstore/logger"
	"github.com/suparena/itemstore/storagemodels"
	"go.uber.org/zap"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "", "Path to a YAML config file")
)

const usage = `Usage: itemctl [-config file] <command> [flags]

Commands:
  seed        store the dummy item and any items from -file
  categories  list categories with item counts
  items       list a page of items in a category
  count       count items in a category or matching a search
  search      list a page of items matching a text query
  get         show one item
  related     show related items
  review      add a review to an item
  export      stream every item as JSON lines
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag || *vFlag {
		info := itemstore.GetVersionInfo()
		fmt.Printf("itemctl version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		if info.BuildDate != nil {
			fmt.Printf("Build date: %s\n", info.BuildDate)
		}
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFlag, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "itemctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, args []string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	dao := itemstore.NewItemDAO(store, itemstore.WithLogger(log))
	return dispatch(ctx, dao, store, args, out)
}

// openStore connects the backend named by cfg.Backend.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (datastore.DataStore[catalogmodels.Item], func(), error) {
	switch cfg.Backend {
	case config.BackendMongo:
		store, err := mongo.NewMongoDataStore[catalogmodels.Item](ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			if err := store.Close(context.Background()); err != nil {
				log.Warn("failed to disconnect from MongoDB", zap.Error(err))
			}
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			closeStore()
			return nil, nil, err
		}
		log.Debug("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return store, closeStore, nil

	case config.BackendDynamoDB:
		store, err := ddb.NewDynamodbDataStore[catalogmodels.Item](ctx,
			cfg.DynamoDB.AccessKey, cfg.DynamoDB.SecretKey, cfg.DynamoDB.Region, cfg.DynamoDB.Table,
			ddb.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.BackendMemory:
		store := mock.New[catalogmodels.Item]()
		if err := store.SetDocuments(catalogmodels.DummyItem()); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func dispatch(ctx context.Context, dao *itemstore.ItemDAO, store datastore.DataStore[catalogmodels.Item], args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)

	category := fs.String("category", catalogmodels.AllCategory, "Category label")
	query := fs.String("q", "", "Text search query")
	page := fs.Int("page", 0, "Zero-based page number")
	perPage := fs.Int("per-page", 5, "Items per page")
	id := fs.Int64("id", 0, "Item id")
	name := fs.String("name", "", "Reviewer name")
	comment := fs.String("comment", "", "Review comment")
	stars := fs.Float64("stars", 0, "Review stars")
	file := fs.String("file", "", "JSON file holding an array of items")
	batch := fs.Int("batch", 100, "Export batch size")

	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch cmd {
	case "seed":
		return seed(ctx, dao, store, *file, out)

	case "categories":
		return printResult(dao.GetCategories(ctx))(out)

	case "items":
		return printResult(dao.GetItems(ctx, *category, *page, *perPage))(out)

	case "count":
		if *query != "" {
			return printResult(dao.GetNumSearchItems(ctx, *query))(out)
		}
		return printResult(dao.GetNumItems(ctx, *category))(out)

	case "search":
		if *query == "" {
			return fmt.Errorf("search requires -q")
		}
		return printResult(dao.SearchItems(ctx, *query, *page, *perPage))(out)

	case "get":
		return printResult(dao.GetItem(ctx, *id))(out)

	case "related":
		return printResult(dao.GetRelatedItems(ctx))(out)

	case "review":
		if *name == "" {
			return fmt.Errorf("review requires -name")
		}
		return printResult(dao.AddReview(ctx, *id, *comment, *name, *stars))(out)

	case "export":
		return export(ctx, store, *batch, out)
	}

	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

// printResult returns a writer of v as indented JSON, or of err when set.
func printResult[T any](v T, err error) func(io.Writer) error {
	return func(out io.Writer) error {
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func seed(ctx context.Context, dao *itemstore.ItemDAO, store datastore.DataStore[catalogmodels.Item], file string, out io.Writer) error {
	items := []catalogmodels.Item{dao.CreateDummyItem()}

	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read items file: %w", err)
		}
		var extra []catalogmodels.Item
		if err := json.Unmarshal(raw, &extra); err != nil {
			return fmt.Errorf("failed to parse items file %s: %w", file, err)
		}
		items = append(items, extra...)
	}

	for _, it := range items {
		if it.Reviews == nil {
			it.Reviews = []catalogmodels.Review{}
		}
		if err := store.Put(ctx, it); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "seeded %d items\n", len(items))
	return err
}

func export(ctx context.Context, store datastore.DataStore[catalogmodels.Item], batch int, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	enc := json.NewEncoder(out)
	for result := range store.Stream(ctx, nil, storagemodels.WithBatchSize(int32(batch))) {
		if result.Error != nil {
			return result.Error
		}
		if err := enc.Encode(result.Item); err != nil {
			return err
		}
	}
	return ctx.Err()
}
