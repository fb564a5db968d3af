package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"estate-market/internal/cli"
	"estate-market/internal/client"
	"estate-market/internal/core/config"
	"estate-market/internal/core/logger"
)

func defaultCredsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "estate-market", "creds.json")
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("estate", flag.ContinueOnError)
	apiURL := fs.String("api", envOr("ESTATE_API", "http://localhost:3000"), "API base URL")
	credsPath := fs.String("creds", envOr("ESTATE_CREDS", defaultCredsPath()), "where the session is kept")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall command timeout")
	verbose := fs.Bool("v", false, "log requests")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, flush := logger.New(config.Log{Level: level})
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	api := client.New(*apiURL, client.WithLogger(log))
	app, err := cli.New(api, os.Stdin, os.Stdout, *credsPath)
	if err != nil {
		log.Error("init", zap.Error(err))
		return 1
	}
	if err := app.Run(ctx, fs.Args()); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
