package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/fundcast/internal/clients/boc"
	"github.com/bobmcallan/fundcast/internal/clients/questrade"
	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/server"
	"github.com/bobmcallan/fundcast/internal/services/funding"
	"github.com/bobmcallan/fundcast/internal/services/fxrate"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (TOML)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("fundcast-server %s (build %s, commit %s)\n",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return
	}

	paths := []string{"fundcast.toml", os.Getenv("FUNDCAST_CONFIG"), *configPath}
	cfg, err := common.LoadConfig(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", cfg.Environment).
		Str("base_currency", cfg.BaseCurrency).
		Msg("Starting fundcast-server")

	brokerage := questrade.NewClient(cfg.Clients.Brokerage.APIKey,
		questrade.WithBaseURL(cfg.Clients.Brokerage.BaseURL),
		questrade.WithRateLimit(cfg.Clients.Brokerage.RateLimit),
		questrade.WithTimeout(cfg.Clients.Brokerage.GetTimeout()),
		questrade.WithLogger(logger),
	)

	rates := boc.NewClient(
		boc.WithBaseURL(cfg.Clients.Rates.BaseURL),
		boc.WithRateLimit(cfg.Clients.Rates.RateLimit),
		boc.WithTimeout(cfg.Clients.Rates.GetTimeout()),
		boc.WithLogger(logger),
	)

	fxService := fxrate.NewService(rates, fxrate.NewCache(), logger)
	fxService.SetLookbackDays(cfg.Clients.Rates.LookbackDays)

	fundingService := funding.NewService(brokerage, fxService, cfg.BaseCurrency, logger)

	srv := server.NewServer(cfg, fundingService, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
	logger.Info().Msg("Server stopped")
}
