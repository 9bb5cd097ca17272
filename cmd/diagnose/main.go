package main

import (
	"context"
	"errors"
	"os"
	"time"

	"careconnect/internal/config"
	"careconnect/internal/pkg/logger"
	"careconnect/internal/service"
	"careconnect/pkg/ingest"
	"careconnect/pkg/llm/cortex"
	"careconnect/pkg/rag/retrieval"
	"careconnect/pkg/warehouse"

	"github.com/fatih/color"
)

// diagnose checks every warehouse dependency of the chat in order:
// connection, categories, documents, one search and one completion, then
// the Tika server when one is configured.
func main() {
	color.Cyan("🔍 CareConnect diagnostics\n")

	cfg, err := config.Load()
	if err != nil {
		color.Red("Config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn := warehouse.NewConnection(warehouse.Params{
		Account:      cfg.Warehouse.Account,
		User:         cfg.Warehouse.User,
		Password:     cfg.Warehouse.Password,
		Warehouse:    cfg.Warehouse.Warehouse,
		Database:     cfg.Warehouse.Database,
		Schema:       cfg.Warehouse.Schema,
		Role:         cfg.Warehouse.Role,
		LoginTimeout: cfg.Warehouse.LoginTimeout,
	})
	defer conn.Close()

	color.Yellow("\n1. Connection (%s)", cfg.Warehouse.Account)
	root, err := conn.Root(ctx)
	if err != nil {
		var connErr *warehouse.ConnectionError
		if errors.As(err, &connErr) {
			color.Red("Failed during %s: %v", connErr.Op, connErr.Err)
		} else {
			color.Red("Failed: %v", err)
		}
		os.Exit(1)
	}
	color.Green("OK")

	failed := false
	nop := logger.NewNopLogger()
	catalog := service.NewCatalogService(root.Querier(), cfg.Catalog, cfg.Search, nop)

	color.Yellow("\n2. Categories (%s)", cfg.Search.ChunksTable)
	categories := catalog.Categories(ctx).Categories
	if len(categories) <= 1 {
		color.Red("Only %v available; the chunks table is missing or empty", categories)
		failed = true
	} else {
		color.Green("%d categories: %v", len(categories), categories)
	}

	color.Yellow("\n3. Documents (@%s)", cfg.Search.Stage)
	docs := catalog.Documents(ctx)
	if len(docs) == 0 {
		color.Red("No documents listed")
		failed = true
	} else {
		color.Green("%d documents", len(docs))
	}

	color.Yellow("\n4. Search (%s.%s.%s)", cfg.Search.Database, cfg.Search.Schema, cfg.Search.Service)
	searchService, err := root.Service(cfg.Search.Database, cfg.Search.Schema, cfg.Search.Service)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	results, err := retrieval.NewClient(searchService, cfg.Search.Limit, nop).Search(ctx, "maintenance", retrieval.CategoryAll)
	if err != nil {
		color.Red("Failed: %v", err)
		failed = true
	} else {
		color.Green("%d results", len(results))
		for _, r := range results {
			color.White("  %s [%s]", r.RelativePath, r.Category)
		}
	}

	color.Yellow("\n5. Completion (%s)", cfg.Catalog.DefaultModel)
	answer, err := cortex.NewProvider(root.Querier(), cfg.Catalog.DefaultModel).Generate(ctx, "Question: Reply with OK.\nAnswer:")
	if err != nil {
		color.Red("Failed: %v", err)
		failed = true
	} else {
		color.Green("Answer: %s", answer)
	}

	if cfg.Ingest.TikaURL != "" {
		color.Yellow("\n6. Tika (%s)", cfg.Ingest.TikaURL)
		if ingest.NewTikaParser(cfg.Ingest.TikaURL).IsServiceHealthy(ctx) {
			color.Green("OK")
		} else {
			color.Red("Not reachable; .doc uploads will be rejected")
			failed = true
		}
	}

	if failed {
		color.Red("\n❌ Some checks failed")
		os.Exit(1)
	}
	color.Green("\n✅ All checks passed")
}
