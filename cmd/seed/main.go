package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	postgresURL := flags.String("database", os.Getenv("POSTGRES_URL"), "postgres connection URL (POSTGRES_URL)")
	file := flags.StringP("file", "f", "seed/products.yaml", "YAML catalog to load")
	_ = flags.Parse(os.Args[1:])

	if *postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable or --database is required")
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("failed to open seed file", "error", err, "file", *file)
		os.Exit(1)
	}
	products, err := catalog.LoadSeed(f)
	_ = f.Close()
	if err != nil {
		logger.Error("failed to read seed file", "error", err, "file", *file)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := telemetry.OpenDB("postgres", *postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := catalog.NewProductRepository(db).ReplaceAll(ctx, products); err != nil {
		logger.Error("failed to seed products", "error", err)
		os.Exit(1)
	}

	logger.Info("catalog seeded", "count", len(products))
	for _, p := range products {
		logger.Info("product added", "title", p.Title, "category", p.Category, "price", p.Price)
	}
}
