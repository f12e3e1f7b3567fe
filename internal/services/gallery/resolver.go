package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/config"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/partition"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/tokenuri"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

const tracerName = "github.com/PixelPunkNFT/THE-FOOLS/internal/services/gallery"

var (
	errNoMetadataURI = errors.New("token URI is empty or malformed")
	errNoImage       = errors.New("metadata has no image")
)

// ResolverConfig holds configuration for the batched resolver.
type ResolverConfig struct {
	// CallTimeout bounds each record lookup and each metadata fetch.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// ResolverConfigDefaults returns the default resolver configuration.
func ResolverConfigDefaults() ResolverConfig {
	return ResolverConfig{
		CallTimeout: config.DefaultCallTimeout,
		Logger:      slog.Default(),
	}
}

// BatchRequest describes one run of the resolver over an enumerated id set.
type BatchRequest struct {
	Cycle        entity.CycleKind
	IDs          []entity.TokenID
	BatchSize    int
	IncludeOwner bool
	// Owner is assigned to every record when IncludeOwner is false.
	Owner common.Address
}

// BatchResult is the settled outcome of one batch.
type BatchResult struct {
	Index int
	IDs   []entity.TokenID
	// NFTs is in id order and nil when the batch was dropped.
	NFTs []entity.ResolvedNFT
	// Placeholders lists the ids whose image fell back to the placeholder.
	Placeholders []entity.TokenID
	// Err is the record-fetch failure that dropped the batch.
	Err       error
	Processed int
	Total     int
	Progress  float64
	Duration  time.Duration
}

// Dropped reports whether the batch contributed nothing to the gallery.
func (r BatchResult) Dropped() bool {
	return r.Err != nil
}

// Resolver turns token ids into ResolvedNFTs, one batch at a time.
type Resolver struct {
	normalizer *tokenuri.Normalizer
	fetcher    outbound.MetadataFetcher
	config     ResolverConfig
	logger     *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(normalizer *tokenuri.Normalizer, fetcher outbound.MetadataFetcher, config ResolverConfig) (*Resolver, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer cannot be nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("metadata fetcher cannot be nil")
	}

	defaults := ResolverConfigDefaults()
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Resolver{
		normalizer: normalizer,
		fetcher:    fetcher,
		config:     config,
		logger:     config.Logger.With("component", "gallery-resolver"),
	}, nil
}

// Resolve runs the batches of req strictly in order and hands every settled
// batch to emit. It stops when emit returns false or ctx is done, returning
// ctx.Err() in the latter case. A batch interrupted by ctx is not emitted.
func (r *Resolver) Resolve(ctx context.Context, contract outbound.TokenContract, req BatchRequest, emit func(BatchResult) bool) error {
	batches := partition.Batches(req.IDs, req.BatchSize)
	total := len(req.IDs)
	processed := 0

	for i, ids := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := r.resolveBatch(ctx, contract, req, i, ids)
		if err := ctx.Err(); err != nil {
			return err
		}
		processed += len(ids)
		res.Processed = processed
		res.Total = total
		res.Progress = Progress(processed, total)

		if !emit(res) {
			return nil
		}
	}
	return ctx.Err()
}

func (r *Resolver) resolveBatch(ctx context.Context, contract outbound.TokenContract, req BatchRequest, index int, ids []entity.TokenID) BatchResult {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "gallery.resolveBatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gallery.cycle", string(req.Cycle)),
			attribute.Int("gallery.batch", index),
			attribute.Int("gallery.batch_size", len(ids)),
		),
	)
	defer span.End()

	start := time.Now()
	res := BatchResult{Index: index, IDs: ids}

	fetchCtx, cancel := context.WithTimeout(ctx, r.config.CallTimeout)
	records, err := contract.FetchRecords(fetchCtx, ids, req.IncludeOwner)
	cancel()
	if err == nil && len(records) != len(ids) {
		err = fmt.Errorf("got %d records for %d ids", len(records), len(ids))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch token records")
		res.Err = fmt.Errorf("fetching records for batch %d: %w", index, err)
		res.Duration = time.Since(start)
		return res
	}

	nfts := make([]entity.ResolvedNFT, len(records))
	var wg sync.WaitGroup
	for i, rec := range records {
		if !req.IncludeOwner {
			rec.Owner = req.Owner
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			image, err := r.resolveImage(ctx, rec.TokenURI)
			if err != nil {
				r.logger.Debug("using placeholder image",
					"tokenId", rec.ID.String(),
					"tokenURI", rec.TokenURI,
					"error", err)
			}
			nfts[i] = entity.NewResolvedNFT(rec, image, r.normalizer.Placeholder())
		}()
	}
	wg.Wait()

	for _, n := range nfts {
		if n.Placeholder {
			res.Placeholders = append(res.Placeholders, n.ID)
		}
	}
	span.SetAttributes(attribute.Int("gallery.placeholders", len(res.Placeholders)))

	res.NFTs = nfts
	res.Duration = time.Since(start)
	return res
}

// resolveImage fetches the metadata behind tokenURI and returns the
// normalised image location. On any failure it returns the placeholder
// together with the reason.
func (r *Resolver) resolveImage(ctx context.Context, tokenURI string) (string, error) {
	url := r.normalizer.Normalize(tokenURI)
	if r.normalizer.IsPlaceholder(url) {
		return url, errNoMetadataURI
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.CallTimeout)
	defer cancel()

	doc, err := r.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return r.normalizer.Placeholder(), err
	}
	ref, ok := doc.ImageReference()
	if !ok {
		return r.normalizer.Placeholder(), errNoImage
	}
	return r.normalizer.Normalize(ref), nil
}
