// Command shop is the shopper's side of the storefront: browsing, the local
// cart, checkout, order tracking and a few admin tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/client"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "shop:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("shop", pflag.ContinueOnError)
	global.SetInterspersed(false)
	baseURL := global.String("url", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront or gateway URL (STOREFRONT_URL)")
	stateDir := global.String("state-dir", envOr("SHOP_STATE_DIR", defaultStateDir()), "directory holding the cart (SHOP_STATE_DIR)")
	token := global.String("token", os.Getenv("ADMIN_TOKEN"), "admin bearer token (ADMIN_TOKEN)")
	verbose := global.BoolP("verbose", "v", false, "log debug output to stderr")
	global.Usage = func() { printUsage(global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	storage, err := cart.NewFileStorage(*stateDir)
	if err != nil {
		return fmt.Errorf("open state directory: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	a := &app{
		out:    os.Stdout,
		cart:   cart.Open(storage, logger),
		api:    client.New(*baseURL, httpClient, client.WithToken(*token)),
		logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.dispatch(ctx, global.Args())
}

func printUsage(global *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: shop [global flags] <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "global flags:")
	global.PrintDefaults()
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shop"
	}
	return filepath.Join(dir, "storefront-shop")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
