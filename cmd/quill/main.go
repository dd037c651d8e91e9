package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/quill"
	"github.com/eringen/quill/logging"
	"github.com/eringen/quill/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "seed":
		err = runSeed(os.Args[2:])
	case "version":
		fmt.Printf("quill %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`quill - a markdown blog content service

Usage:
  quill <command> [arguments]

Commands:
  serve [-config file]              Start the HTTP server
  seed  [-config file] [-posts N]   Fill the database with generated posts
  version                           Print the quill version
  help                              Show this help message

Configuration is read from the optional YAML file and QUILL_* environment
variables, e.g. QUILL_DATABASE_PATH, QUILL_SESSION_SECRET, QUILL_ADDR.`)
}

func loadConfig(fs *flag.FlagSet, args []string) (quill.SiteConfig, *slog.Logger, error) {
	path := fs.String("config", "quill.yaml", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return quill.SiteConfig{}, nil, err
	}
	cfg, err := quill.LoadConfig(*path)
	if err != nil {
		return quill.SiteConfig{}, nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "quill"})
	return cfg, logger, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	app := quill.New(cfg, views.Default(), quill.WithLogger(logger))
	defer app.Close()
	if err := app.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	posts := fs.Int("posts", 20, "number of posts to generate")
	comments := fs.Int("comments", 5, "maximum comments per post")
	seed := fs.Int64("seed", 0, "faker seed (0 uses the clock)")
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	store, err := quill.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	res, err := quill.Seed(context.Background(), store, quill.SeedOptions{
		Posts:    *posts,
		Comments: *comments,
		Seed:     *seed,
	})
	if err != nil {
		return err
	}
	logger.Info("seeded",
		slog.String("database", cfg.DatabasePath),
		slog.Int("posts", len(res.Posts)),
		slog.Int("categories", len(res.Categories)),
		slog.Int("tags", len(res.Tags)),
		slog.Int("comments", res.Comments),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
