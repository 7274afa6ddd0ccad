package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gomend/adapters/api"
	"gomend/internal"
	"gomend/internal/config"
)

func main() {
	cfgFile := flag.String("config", "", "Path to a yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting API server on :%s", cfg.Server.Port)
	if err := api.NewServer(cfg, logger).ListenAndServe(ctx); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
