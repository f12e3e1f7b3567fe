package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/erc721"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/memory"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/metadata"
	rediscache "github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/redis"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/s3"
	snssink "github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/sns"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/telemetry"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/config"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/blockchain"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/blockchain/multicall"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/env"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/tokenuri"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/gallery"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/snapshot"
)

func newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)
	return logger
}

// loadSettings reads the environment, applies flag overrides and resolves the
// network entry for the configured chain id.
func loadSettings(flags *rootFlags) (config.Settings, entity.Network, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, entity.Network{}, err
	}
	if flags.rpcURL != "" {
		settings.RPCURL = flags.rpcURL
	}
	if flags.contract != "" {
		settings.ContractAddress = flags.contract
	}
	if flags.chainID != 0 {
		settings.ChainID = flags.chainID
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, entity.Network{}, err
	}

	network, err := config.DefaultNetworks().Lookup(settings.ChainID)
	if err != nil {
		return config.Settings{}, entity.Network{}, err
	}
	return settings, network, nil
}

// appOptions tune what newApp wires beyond the chain and metadata readers.
type appOptions struct {
	// Sink receives every cycle event in addition to SNS, when configured.
	Sink outbound.CycleEventSink
	// Account is the connected wallet, zero when none.
	Account common.Address
	// Export attaches the S3 snapshot exporter when SNAPSHOT_BUCKET is set.
	Export bool
	// TraceWriter receives pretty-printed spans when no OTLP endpoint is set.
	TraceWriter io.Writer
}

// app holds the wired gallery and everything that must be closed with it.
type app struct {
	settings config.Settings
	network  entity.Network
	logger   *slog.Logger

	service  *gallery.Service
	exporter *snapshot.Exporter

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error

	closers []func(context.Context) error
}

func newApp(ctx context.Context, settings config.Settings, network entity.Network, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{settings: settings, network: network, logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceVersion: version,
		OTLPEndpoint:   settings.OTELEndpoint,
		DebugWriter:    opts.TraceWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	a.onClose(shutdownTracer)

	shutdownMeter, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceVersion: version,
		OTLPEndpoint:   settings.OTELEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	a.onClose(shutdownMeter)

	metrics, err := telemetry.NewGalleryMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	contract, err := a.dialContract(ctx)
	if err != nil {
		return nil, err
	}

	normalizer, err := tokenuri.NewNormalizer(tokenuri.Config{Gateway: settings.IPFSGateway})
	if err != nil {
		return nil, fmt.Errorf("IPFS_GATEWAY: %w", err)
	}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		return nil, err
	}

	sink, err := a.newEventSink(ctx, opts.Sink)
	if err != nil {
		return nil, err
	}

	var observers []gallery.CycleObserver
	if opts.Export && settings.SnapshotBucket != "" {
		a.exporter, err = a.newExporter(ctx)
		if err != nil {
			return nil, err
		}
		observers = append(observers, a.exporter)
	}

	a.service, err = gallery.NewService(gallery.Config{
		CallTimeout: settings.CallTimeout,
		MaxSupply:   settings.MaxSupply,
		Logger:      logger,
		Metrics:     metrics,
		EventSink:   sink,
		Observers:   observers,
	}, gallery.Session{Contract: contract, Account: opts.Account}, normalizer, fetcher)
	if err != nil {
		return nil, fmt.Errorf("creating gallery service: %w", err)
	}
	a.onClose(func(context.Context) error {
		a.service.Close()
		return nil
	})

	return a, nil
}

// dialContract connects to RPC_URL, checks the chain id and builds the
// contract reader selected by USE_MULTICALL / RPC_BATCH.
func (a *app) dialContract(ctx context.Context) (outbound.TokenContract, error) {
	if a.settings.RPCURL == "" {
		return nil, errors.New("RPC_URL is required")
	}

	client, err := ethclient.DialContext(ctx, a.settings.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", a.settings.RPCURL, err)
	}
	a.onClose(func(context.Context) error {
		client.Close()
		return nil
	})

	if err := erc721.VerifyChain(ctx, client, a.network, a.settings.CallTimeout); err != nil {
		return nil, err
	}

	contract, err := erc721.NewContract(client, a.settings.Contract(), erc721.Config{
		CallTimeout: a.settings.CallTimeout,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating contract reader: %w", err)
	}

	var multicaller outbound.Multicaller
	switch {
	case a.settings.UseMulticall:
		multicaller, err = multicall.NewClient(client, blockchain.Multicall3)
		if err != nil {
			return nil, fmt.Errorf("creating multicall client: %w", err)
		}
	case a.settings.RPCBatch:
		multicaller = multicall.NewDirectCaller(client.Client(), multicall.DefaultMaxBatch)
	default:
		a.logger.Info("reading tokens with parallel eth_calls", "contract", a.settings.ContractAddress)
		return contract, nil
	}

	a.logger.Info("reading tokens in batched calls",
		"contract", a.settings.ContractAddress,
		"multicall", a.settings.UseMulticall,
	)
	return erc721.NewMulticallContract(contract, multicaller)
}

// newFetcher returns the metadata fetcher behind a Redis cache when
// REDIS_ADDR is set and an in-memory cache otherwise.
func (a *app) newFetcher(ctx context.Context) (outbound.MetadataFetcher, error) {
	fetcher := metadata.NewFetcher(metadata.FetcherConfig{
		Timeout: a.settings.CallTimeout,
		Logger:  a.logger,
	})

	var cache outbound.MetadataCache
	if a.settings.RedisAddr != "" {
		redisCache, err := rediscache.NewMetadataCache(rediscache.Config{
			Addr:     a.settings.RedisAddr,
			Password: a.settings.RedisPassword,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("creating redis cache: %w", err)
		}
		a.onClose(func(context.Context) error { return redisCache.Close() })

		if err := redisCache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", a.settings.RedisAddr, err)
		}
		a.logger.Info("redis metadata cache connected", "addr", a.settings.RedisAddr)
		cache = redisCache
	} else {
		memCache := memory.NewMetadataCache(memory.MetadataCacheConfig{})
		a.onClose(func(context.Context) error { return memCache.Close() })
		cache = memCache
	}

	return metadata.NewCachedFetcher(fetcher, cache, a.logger), nil
}

func (a *app) newEventSink(ctx context.Context, local outbound.CycleEventSink) (outbound.CycleEventSink, error) {
	var sinks fanoutSink
	if local != nil {
		sinks = append(sinks, local)
	}

	if a.settings.SNSTopicARN != "" {
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		sink, err := snssink.NewEventSink(awssns.NewFromConfig(awsCfg), snssink.Config{
			TopicARN: a.settings.SNSTopicARN,
			Contract: a.settings.Contract(),
			Logger:   a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating SNS event sink: %w", err)
		}
		a.onClose(func(context.Context) error { return sink.Close() })
		a.logger.Info("publishing cycle events", "topic", a.settings.SNSTopicARN)
		sinks = append(sinks, sink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func (a *app) newExporter(ctx context.Context) (*snapshot.Exporter, error) {
	if a.settings.SnapshotBucket == "" {
		return nil, errors.New("SNAPSHOT_BUCKET is required")
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	exporter, err := snapshot.NewExporter(s3.NewWriter(awsCfg, a.logger), s3.NewReader(awsCfg, a.logger), snapshot.Config{
		Bucket:   a.settings.SnapshotBucket,
		Network:  a.network,
		Contract: a.settings.Contract(),
		Logger:   a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot exporter: %w", err)
	}
	return exporter, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	a.awsOnce.Do(func() {
		a.awsCfg, a.awsErr = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.settings.AWSRegion))
		if a.awsErr != nil {
			a.awsErr = fmt.Errorf("loading AWS config: %w", a.awsErr)
		}
	})
	return a.awsCfg, a.awsErr
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// fanoutSink publishes every event to each sink in order.
type fanoutSink []outbound.CycleEventSink

var _ outbound.CycleEventSink = fanoutSink(nil)

func (f fanoutSink) Publish(ctx context.Context, event entity.CycleEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutSink) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func stderrIf(enabled bool) io.Writer {
	if enabled {
		return os.Stderr
	}
	return nil
}
