package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

const meterName = "github.com/PixelPunkNFT/THE-FOOLS/gallery"

var _ outbound.GalleryMetrics = (*GalleryMetrics)(nil)

// GalleryMetrics records fetch-cycle measurements with OpenTelemetry.
type GalleryMetrics struct {
	batchDuration metric.Float64Histogram
	batchTokens   metric.Int64Counter
	batches       metric.Int64Counter
	placeholders  metric.Int64Counter
	cycleDuration metric.Float64Histogram
	cycles        metric.Int64Counter
	galleryNFTs   metric.Int64Gauge
}

// NewGalleryMetrics creates the instruments on the global meter provider.
func NewGalleryMetrics() (*GalleryMetrics, error) {
	return NewGalleryMetricsWithProvider(otel.GetMeterProvider())
}

// NewGalleryMetricsWithProvider creates the instruments on mp.
func NewGalleryMetricsWithProvider(mp metric.MeterProvider) (*GalleryMetrics, error) {
	meter := mp.Meter(meterName)

	batchDuration, err := meter.Float64Histogram(
		"gallery.batch.duration",
		metric.WithDescription("Time taken to resolve one batch of tokens"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.batch.duration histogram: %w", err)
	}

	batchTokens, err := meter.Int64Counter(
		"gallery.batch.tokens.total",
		metric.WithDescription("Total number of token ids submitted to the resolver"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.batch.tokens.total counter: %w", err)
	}

	batches, err := meter.Int64Counter(
		"gallery.batches.total",
		metric.WithDescription("Total number of settled batches by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.batches.total counter: %w", err)
	}

	placeholders, err := meter.Int64Counter(
		"gallery.placeholders.total",
		metric.WithDescription("Total number of tokens rendered with the placeholder image"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.placeholders.total counter: %w", err)
	}

	cycleDuration, err := meter.Float64Histogram(
		"gallery.cycle.duration",
		metric.WithDescription("Time taken by a fetch cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.cycle.duration histogram: %w", err)
	}

	cycles, err := meter.Int64Counter(
		"gallery.cycles.total",
		metric.WithDescription("Total number of fetch cycles by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.cycles.total counter: %w", err)
	}

	galleryNFTs, err := meter.Int64Gauge(
		"gallery.nfts",
		metric.WithDescription("Number of NFTs in the gallery after the last cycle"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery.nfts gauge: %w", err)
	}

	return &GalleryMetrics{
		batchDuration: batchDuration,
		batchTokens:   batchTokens,
		batches:       batches,
		placeholders:  placeholders,
		cycleDuration: cycleDuration,
		cycles:        cycles,
		galleryNFTs:   galleryNFTs,
	}, nil
}

// RecordBatch records one settled batch.
func (m *GalleryMetrics) RecordBatch(ctx context.Context, cycle entity.CycleKind, size int, duration time.Duration, dropped bool) {
	status := "appended"
	if dropped {
		status = "dropped"
	}
	attrs := metric.WithAttributes(
		attribute.String("cycle", string(cycle)),
		attribute.String("status", status),
	)
	m.batchDuration.Record(ctx, duration.Seconds(), attrs)
	m.batches.Add(ctx, 1, attrs)
	m.batchTokens.Add(ctx, int64(size), metric.WithAttributes(attribute.String("cycle", string(cycle))))
}

// RecordPlaceholder counts a token whose image fell back to the placeholder.
func (m *GalleryMetrics) RecordPlaceholder(ctx context.Context, cycle entity.CycleKind) {
	m.placeholders.Add(ctx, 1, metric.WithAttributes(attribute.String("cycle", string(cycle))))
}

// RecordCycle records the end of a fetch cycle.
func (m *GalleryMetrics) RecordCycle(ctx context.Context, cycle entity.CycleKind, outcome entity.OutcomeKind, duration time.Duration, nfts int) {
	attrs := metric.WithAttributes(
		attribute.String("cycle", string(cycle)),
		attribute.String("outcome", outcome.String()),
	)
	m.cycles.Add(ctx, 1, attrs)
	if outcome == entity.OutcomeCycleSuperseded {
		return
	}
	m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
	m.galleryNFTs.Record(ctx, int64(nfts), metric.WithAttributes(attribute.String("cycle", string(cycle))))
}
