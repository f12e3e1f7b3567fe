// Package gallery runs the fetch cycles that populate the NFT gallery: an
// enumerator lists token ids, the resolver turns them into ResolvedNFTs in
// sequential batches, and the State holds the result for renderers.
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
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/tokenuri"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/inbound"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// ErrSuperseded is returned by a cycle that was replaced by a newer one.
var ErrSuperseded = errors.New("fetch cycle superseded")

// Session is the wallet/contract context a cycle runs against.
type Session struct {
	Contract outbound.TokenContract
	// Account is the connected wallet. Zero when no wallet is connected.
	Account common.Address
}

// Connected reports whether a wallet account is present.
func (s Session) Connected() bool {
	return s.Account != (common.Address{})
}

// CycleObserver is notified with the final snapshot of every completed cycle.
type CycleObserver interface {
	CycleFinished(ctx context.Context, snapshot entity.GallerySnapshot) error
}

// Config holds configuration for the gallery service.
type Config struct {
	PageSize            int
	CollectionBatchSize int
	WalletBatchSize     int
	CallTimeout         time.Duration

	// MaxSupply bounds the id set a collection cycle will enumerate.
	MaxSupply uint64

	// PublishTimeout bounds each delivery to the event sink.
	PublishTimeout time.Duration

	// StaleAfter is how long a cycle may stay loading before the service
	// reports itself unhealthy.
	StaleAfter time.Duration

	Logger    *slog.Logger
	Metrics   outbound.GalleryMetrics
	EventSink outbound.CycleEventSink
	Observers []CycleObserver
}

// ConfigDefaults returns the default configuration.
func ConfigDefaults() Config {
	return Config{
		PageSize:            config.PageSize,
		CollectionBatchSize: config.CollectionBatchSize,
		WalletBatchSize:     config.WalletBatchSize,
		CallTimeout:         config.DefaultCallTimeout,
		MaxSupply:           config.MaxCollectionSupply,
		PublishTimeout:      5 * time.Second,
		StaleAfter:          10 * time.Minute,
		Logger:              slog.Default(),
	}
}

func (c *Config) applyDefaults() {
	defaults := ConfigDefaults()
	if c.PageSize <= 0 {
		c.PageSize = defaults.PageSize
	}
	if c.CollectionBatchSize <= 0 {
		c.CollectionBatchSize = defaults.CollectionBatchSize
	}
	if c.WalletBatchSize <= 0 {
		c.WalletBatchSize = defaults.WalletBatchSize
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaults.CallTimeout
	}
	if c.MaxSupply == 0 {
		c.MaxSupply = defaults.MaxSupply
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaults.PublishTimeout
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
}

// Service runs one fetch cycle at a time and exposes the resulting gallery.
type Service struct {
	config   Config
	resolver *Resolver
	state    *State
	logger   *slog.Logger

	mu       sync.Mutex
	session  Session
	cancel   context.CancelFunc
	baseCtx  context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup
}

var (
	_ inbound.GalleryService   = (*Service)(nil)
	_ inbound.GalleryRefresher = (*Service)(nil)
	_ inbound.HealthChecker    = (*Service)(nil)
)

// NewService creates a new gallery service bound to session.
func NewService(config Config, session Session, normalizer *tokenuri.Normalizer, fetcher outbound.MetadataFetcher) (*Service, error) {
	if session.Contract == nil {
		return nil, fmt.Errorf("token contract is required")
	}
	config.applyDefaults()

	resolver, err := NewResolver(normalizer, fetcher, ResolverConfig{
		CallTimeout: config.CallTimeout,
		Logger:      config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	baseCtx, shutdown := context.WithCancel(context.Background())
	return &Service{
		config:   config,
		resolver: resolver,
		state:    NewState(config.PageSize),
		logger:   config.Logger.With("component", "gallery-service"),
		session:  session,
		baseCtx:  baseCtx,
		shutdown: shutdown,
	}, nil
}

// Session returns the current session.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetSession replaces the session used by subsequent cycles.
func (s *Service) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.Contract == nil {
		session.Contract = s.session.Contract
	}
	s.session = session
}

// LoadCollection runs a collection cycle against the current session.
func (s *Service) LoadCollection(ctx context.Context) error {
	return s.RunCycle(ctx, entity.CycleCollection, s.Session())
}

// LoadWallet runs a wallet cycle for account against the current contract.
func (s *Service) LoadWallet(ctx context.Context, account common.Address) error {
	session := s.Session()
	session.Account = account
	return s.RunCycle(ctx, entity.CycleWallet, session)
}

// Trigger starts a cycle in the background. A running cycle is superseded.
func (s *Service) Trigger(kind entity.CycleKind, session Session) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.RunCycle(s.baseCtx, kind, session)
		if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
			s.logger.Error("background cycle failed", "cycle", kind, "error", err)
		}
	}()
}

// Refresh starts a background cycle of kind against the current session.
func (s *Service) Refresh(kind entity.CycleKind, account common.Address) error {
	session := s.Session()
	switch kind {
	case entity.CycleCollection:
	case entity.CycleWallet:
		if account != (common.Address{}) {
			session.Account = account
			s.SetSession(session)
		}
		if !session.Connected() {
			return entity.ErrNotConnected
		}
	default:
		return fmt.Errorf("unknown cycle kind %q", kind)
	}
	s.Trigger(kind, session)
	return nil
}

// Close cancels running cycles and waits for background cycles to return.
func (s *Service) Close() {
	s.shutdown()
	s.wg.Wait()
}

// Snapshot returns a copy of the gallery.
func (s *Service) Snapshot() entity.GallerySnapshot {
	return s.state.Snapshot()
}

// Paginate sets the current page.
func (s *Service) Paginate(page int) {
	s.state.Paginate(page)
}

// IsReady returns true once the first cycle has finished.
func (s *Service) IsReady() bool {
	return s.state.finishedCycles() > 0
}

// IsHealthy returns false when a cycle has been loading for longer than StaleAfter.
func (s *Service) IsHealthy() bool {
	since := s.state.loadingSince()
	return since.IsZero() || time.Since(since) < s.config.StaleAfter
}

func (s *Service) enumerator(kind entity.CycleKind, session Session) (Enumerator, error) {
	switch kind {
	case entity.CycleCollection:
		return NewCollectionEnumerator(s.config.CollectionBatchSize, s.config.MaxSupply), nil
	case entity.CycleWallet:
		if !session.Connected() {
			return nil, entity.ErrNotConnected
		}
		return NewWalletEnumerator(session.Account, s.config.WalletBatchSize), nil
	default:
		return nil, fmt.Errorf("unknown cycle kind %q", kind)
	}
}

// begin supersedes the running cycle and starts a new generation.
func (s *Service) begin(ctx context.Context, kind entity.CycleKind, account common.Address) (context.Context, context.CancelFunc, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// bump the generation before cancelling so the old cycle sees itself superseded
	gen := s.state.Begin(kind, account)
	if s.cancel != nil {
		s.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return cycleCtx, cancel, gen
}

// RunCycle runs one fetch cycle to completion and returns when its last
// batch has settled. Starting a cycle supersedes any cycle still running;
// the superseded cycle returns ErrSuperseded and its results are discarded.
func (s *Service) RunCycle(ctx context.Context, kind entity.CycleKind, session Session) error {
	if session.Contract == nil {
		return fmt.Errorf("session has no token contract")
	}
	enum, err := s.enumerator(kind, session)
	if err != nil {
		return err
	}

	var account common.Address
	if kind == entity.CycleWallet {
		account = session.Account
	}
	cycleCtx, cancel, gen := s.begin(ctx, kind, account)
	defer cancel()

	tracer := otel.Tracer(tracerName)
	cycleCtx, span := tracer.Start(cycleCtx, "gallery.cycle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gallery.cycle", string(kind)),
			attribute.Int64("gallery.generation", int64(gen)),
			attribute.String("gallery.contract", session.Contract.Address().Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	logger := s.logger.With("cycle", kind, "generation", gen)
	logger.Info("fetch cycle started")
	s.emit(cycleCtx, gen, s.cycleEvent(gen, kind, entity.OutcomeCycleStarted, nil))

	enumCtx, enumCancel := context.WithTimeout(cycleCtx, s.config.CallTimeout)
	ids, err := enum.Enumerate(enumCtx, session.Contract)
	enumCancel()
	if err != nil {
		if !s.state.Current(gen) {
			return s.superseded(cycleCtx, gen, kind, logger)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "enumeration failed")
		s.emit(cycleCtx, gen, s.cycleEvent(gen, kind, entity.OutcomeEnumerationFailed, err))
		s.finish(cycleCtx, gen, kind, entity.OutcomeEnumerationFailed, start)
		logger.Error("fetch cycle aborted", "error", err)
		return fmt.Errorf("enumerating %s: %w", kind, err)
	}
	span.SetAttributes(attribute.Int("gallery.tokens", len(ids)))
	logger.Debug("ids enumerated", "count", len(ids))

	req := BatchRequest{
		Cycle:        kind,
		IDs:          ids,
		BatchSize:    enum.BatchSize(),
		IncludeOwner: enum.IncludeOwner(),
		Owner:        enum.Owner(),
	}
	err = s.resolver.Resolve(cycleCtx, session.Contract, req, func(res BatchResult) bool {
		return s.applyBatch(cycleCtx, gen, kind, res, logger)
	})

	if !s.state.Current(gen) {
		return s.superseded(cycleCtx, gen, kind, logger)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cycle aborted")
		s.state.Finish(gen)
		return fmt.Errorf("resolving %s: %w", kind, err)
	}

	if len(ids) == 0 {
		s.state.SetProgress(gen, 100)
	}
	s.emit(cycleCtx, gen, s.cycleEvent(gen, kind, entity.OutcomeCycleCompleted, nil))
	snap := s.finish(cycleCtx, gen, kind, entity.OutcomeCycleCompleted, start)
	logger.Info("fetch cycle completed",
		"nfts", len(snap.NFTs),
		"duration", time.Since(start))

	for _, o := range s.config.Observers {
		if err := o.CycleFinished(context.WithoutCancel(cycleCtx), snap); err != nil {
			logger.Warn("cycle observer failed", "error", err)
		}
	}
	return nil
}

// applyBatch folds one settled batch into the state. It returns false when
// the cycle has been superseded.
func (s *Service) applyBatch(ctx context.Context, gen uint64, kind entity.CycleKind, res BatchResult, logger *slog.Logger) bool {
	if res.Dropped() {
		if !s.state.SetProgress(gen, res.Progress) {
			return false
		}
		s.recordBatch(ctx, kind, res)
		logger.Warn("batch dropped",
			"batch", res.Index,
			"ids", len(res.IDs),
			"error", res.Err)
		s.emit(ctx, gen, s.batchEvent(gen, kind, entity.OutcomeBatchDropped, res, res.IDs, res.Err))
		return true
	}

	appended, ok := s.state.AppendBatch(gen, res.NFTs, res.Progress)
	if !ok {
		return false
	}
	s.recordBatch(ctx, kind, res)
	for _, id := range res.Placeholders {
		if s.config.Metrics != nil {
			s.config.Metrics.RecordPlaceholder(ctx, kind)
		}
		s.emit(ctx, gen, s.batchEvent(gen, kind, entity.OutcomeTokenPlaceholder, res, []entity.TokenID{id}, nil))
	}
	s.emit(ctx, gen, s.batchEvent(gen, kind, entity.OutcomeBatchAppended, res, res.IDs, nil))
	logger.Debug("batch appended",
		"batch", res.Index,
		"appended", appended,
		"placeholders", len(res.Placeholders),
		"progress", res.Progress)
	return true
}

func (s *Service) recordBatch(ctx context.Context, kind entity.CycleKind, res BatchResult) {
	if s.config.Metrics != nil {
		s.config.Metrics.RecordBatch(ctx, kind, len(res.IDs), res.Duration, res.Dropped())
	}
}

func (s *Service) superseded(ctx context.Context, gen uint64, kind entity.CycleKind, logger *slog.Logger) error {
	logger.Warn("fetch cycle superseded")
	if s.config.Metrics != nil {
		s.config.Metrics.RecordCycle(ctx, kind, entity.OutcomeCycleSuperseded, 0, 0)
	}
	ev := s.cycleEvent(gen, kind, entity.OutcomeCycleSuperseded, nil)
	if ev != nil {
		s.publish(ctx, *ev)
	}
	return ErrSuperseded
}

func (s *Service) finish(ctx context.Context, gen uint64, kind entity.CycleKind, outcome entity.OutcomeKind, start time.Time) entity.GallerySnapshot {
	s.state.Finish(gen)
	snap := s.state.Snapshot()
	if s.config.Metrics != nil {
		s.config.Metrics.RecordCycle(ctx, kind, outcome, time.Since(start), len(snap.NFTs))
	}
	return snap
}

// emit records ev in the state and forwards it to the event sink. Events of a
// superseded generation are dropped.
func (s *Service) emit(ctx context.Context, gen uint64, ev *entity.CycleEvent) {
	if ev == nil {
		return
	}
	if !s.state.Record(gen, *ev) {
		return
	}
	s.publish(ctx, *ev)
}

func (s *Service) publish(ctx context.Context, ev entity.CycleEvent) {
	if s.config.EventSink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PublishTimeout)
	defer cancel()
	if err := s.config.EventSink.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish cycle event", "kind", ev.Kind, "error", err)
	}
}

func (s *Service) cycleEvent(gen uint64, kind entity.CycleKind, outcome entity.OutcomeKind, err error) *entity.CycleEvent {
	ev, vErr := entity.NewCycleEvent(gen, kind, outcome, err)
	if vErr != nil {
		s.logger.Error("invalid cycle event", "kind", outcome, "error", vErr)
		return nil
	}
	if outcome == entity.OutcomeCycleCompleted {
		ev.Progress = 100
	}
	return ev
}

func (s *Service) batchEvent(gen uint64, kind entity.CycleKind, outcome entity.OutcomeKind, res BatchResult, ids []entity.TokenID, err error) *entity.CycleEvent {
	ev := s.cycleEvent(gen, kind, outcome, err)
	if ev == nil {
		return nil
	}
	ev.Batch = res.Index
	ev.TokenIDs = append([]entity.TokenID(nil), ids...)
	ev.Progress = res.Progress
	return ev
}
