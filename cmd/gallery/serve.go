package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/inbound/http"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/sqs"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/trigger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		addr      string
		noInitial bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gallery over HTTP",
		Long: `Starts the gallery HTTP API and health endpoints.

  GET  /gallery             current page (?all=true for every NFT)
  POST /gallery/page/{n}    switch page
  POST /gallery/refresh     start a collection or wallet cycle

When SQS_QUEUE_URL is set, trigger messages from the queue start cycles too.
When SNAPSHOT_BUCKET is set, every finished cycle is exported to S3.`,
		Example: `  gallery serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, network, err := loadSettings(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				settings.HTTPAddr = addr
			}
			logger := newLogger(cmd.OutOrStdout())
			logger.Info("starting gallery server",
				"version", version,
				"commit", GitCommit,
				"buildTime", BuildTime,
				"network", network.Name,
				"contract", settings.ContractAddress,
			)

			a, err := newApp(ctx, settings, network, logger, appOptions{
				Export:      true,
				TraceWriter: stderrIf(flags.trace),
			})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			var shuttingDown atomic.Bool
			handler := httpadapter.NewGalleryHandler(a.service, a.service, network, settings.Contract(), logger)
			server := httpadapter.NewServer(httpadapter.ServerConfig{
				Addr:   settings.HTTPAddr,
				Logger: logger,
			}, a.service, &shuttingDown, handler)
			server.Start()

			workerErr := make(chan error, 1)
			var worker *trigger.Service
			if settings.SQSQueueURL != "" {
				awsCfg, err := a.awsConfig(ctx)
				if err != nil {
					return err
				}
				consumer, err := sqs.NewConsumer(awsCfg, sqs.Config{QueueURL: settings.SQSQueueURL}, logger)
				if err != nil {
					return err
				}
				defer consumer.Close()

				worker, err = trigger.NewService(trigger.Config{Logger: logger}, consumer, a.service)
				if err != nil {
					return err
				}
				go func() { workerErr <- worker.Run(ctx) }()
			}

			if !noInitial {
				a.service.Trigger(entity.CycleCollection, a.service.Session())
			}

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-workerErr:
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("trigger worker failed", "error", err)
				}
			}

			shuttingDown.Store(true)
			if worker != nil {
				worker.Stop()
			}
			if err := server.Shutdown(shutdownTimeout); err != nil {
				logger.Error("http server shutdown failed", "error", err)
				return err
			}
			logger.Info("gallery server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&noInitial, "no-initial-load", false, "do not start a collection cycle on startup")

	return cmd
}
