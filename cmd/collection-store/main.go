// Command collection-store serves named in-memory collections of JSON documents over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server"
	"github.com/AutoMQ/collection-store/pkg/server/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the store and blocks until a signal asks it to stop. It returns the exit code.
func run(args []string) int {
	cfg, logger, err := loadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if logger == nil {
		fmt.Fprintf(os.Stderr, "collection-store: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Error("invalid configuration", zap.Strings("args", args), zap.Error(err))
		return 1
	}
	logger.Info("starting collection-store",
		zap.String("name", cfg.Name),
		zap.String("http-addr", cfg.HTTP.Addr),
		zap.Int64("max-body-size", cfg.HTTP.MaxBodySize),
		zap.Int("watch-buffer-size", cfg.Watch.BufferSize),
		zap.String("log-level", cfg.Log.Level))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signals)

	svr, err := server.NewServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return 1
	}
	if err := svr.Start(); err != nil {
		logger.Error("failed to listen", zap.String("http-addr", cfg.HTTP.Addr), zap.Error(err))
		return 1
	}
	logger.Info("collection-store is serving", zap.Stringer("addr", svr.Addr()))

	sig := <-signals
	logger.Info("shutting down", zap.Stringer("signal", sig))
	svr.Close()
	logger.Info("collection-store stopped", zap.Int("collections", svr.Registry().Count()))

	// SIGTERM is the orderly stop of a supervisor, any other signal counts as an interruption
	if sig == syscall.SIGTERM {
		return 0
	}
	return 1
}

// loadConfig parses args into a checked config. The returned logger is nil only if none could be built.
func loadConfig(args []string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.NewConfig(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		logger, zapErr := zap.NewProduction()
		if zapErr != nil {
			return nil, nil, errors.Wrapf(err, "create fallback logger: %v", zapErr)
		}
		return nil, logger, err
	}

	logger := cfg.Logger()
	if err := cfg.Adjust(); err != nil {
		return nil, logger, errors.Wrap(err, "adjust config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger, errors.Wrap(err, "validate config")
	}
	return cfg, logger, nil
}
