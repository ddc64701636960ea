package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"airspace-allocator/allocator"
	"airspace-allocator/config"
	"airspace-allocator/health"
	"airspace-allocator/metrics"
	qpubsub "airspace-allocator/queues/pubsub"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume schedule requests from Pub/Sub and publish allocation results",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	closer := setLogger(cfg.LogLevel, cfg.LogFile, os.Stdout)
	defer closer.Close()

	log.Info().Msgf("Starting airspace-allocator version: %s", version)
	log.Info().Interface("config", cfg.Redacted()).Msg("config loaded")

	// Preflight required configuration
	if cfg.GoogleProjectID == "" {
		return errors.New("missing Google project id; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_PROJECT_ID or ALLOCATOR_PUBSUB_PROJECT_ID")
	}
	if cfg.Subscription == "" {
		return errors.New("missing Pub/Sub subscription; set ALLOCATION_REQUEST_SUBSCRIPTION or ALLOCATOR_PUBSUB_SUBSCRIPTION")
	}
	if cfg.PubsubTopic == "" {
		return errors.New("missing Pub/Sub topic; set ALLOCATION_RESULT_TOPIC or ALLOCATOR_PUBSUB_TOPIC")
	}

	// Context and shutdown handling
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := config.LoadRules(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	engineCfg, err := rules.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := allocator.NewEngine(engineCfg)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	log.Info().Int("prefixes", len(engineCfg.Rules)).Int("frequencies", len(engineCfg.Pool)).Int("capacity", engineCfg.Capacity).Msg("allocation rules loaded")

	if cfg.CredentialsFile != "" {
		log.Info().Str("credsFile", cfg.CredentialsFile).Msg("using explicit Google credentials file")
	} else {
		log.Info().Msg("using default Google credentials (in-cluster or ambient)")
	}
	publisher := qpubsub.NewPublisher(cfg.GoogleProjectID, cfg.PubsubTopic, cfg.CredentialsFile)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("publisher close failed")
		}
	}()
	ledger := allocator.NewLedger(cfg.LedgerSize)
	controller := allocator.NewController(publisher, engine, ledger)
	subscriber := qpubsub.NewSubscriber(cfg.GoogleProjectID, cfg.Subscription, cfg.CredentialsFile)

	var receiving atomic.Bool
	mux := http.NewServeMux()
	metrics.Register(mux)
	health.Register(mux, func() error {
		if !receiving.Load() {
			return errors.New("subscriber not running")
		}
		return nil
	})
	mux.Handle("/runs", ledger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting metrics/health server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("subscription", cfg.Subscription).Msg("starting subscriber loop")
		receiving.Store(true)
		defer receiving.Store(false)
		// If we can't receive from Pub/Sub the process has nothing left to do.
		if err := subscriber.Start(gctx, controller.Handle); err != nil {
			return fmt.Errorf("subscriber: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server graceful shutdown failed")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("shutdown complete")
	return err
}
