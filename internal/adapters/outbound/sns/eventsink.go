// Package sns implements the CycleEventSink port using AWS SNS.
//
// Every tagged outcome of a fetch cycle is published as a JSON message to a
// single topic so downstream consumers (notifiers, cache warmers, dashboards)
// can follow gallery refreshes.
//
// Message Attributes:
//   - outcome: the outcome kind, e.g. "BatchDropped" or "CycleCompleted"
//   - cycle: "collection" or "wallet"
//   - generation: the cycle generation as a number
//   - contract: the token contract address
//
// FIFO topics (ARN suffix ".fifo") are grouped by contract and deduplicated by
// generation, outcome, batch and token ids.
//
// For testing, use the memory.EventSink adapter instead.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/retry"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.CycleEventSink
var _ outbound.CycleEventSink = (*EventSink)(nil)

// SNSPublisher defines the subset of SNS client methods used by EventSink.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Config holds configuration for the SNS event sink.
type Config struct {
	// TopicARN is the topic every outcome is published to.
	TopicARN string

	// Contract tags every message and groups FIFO messages.
	Contract common.Address

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int

	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each retry.
	BackoffFactor float64

	Logger *slog.Logger
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Logger:         slog.Default(),
	}
}

// EventSink publishes cycle events to AWS SNS.
type EventSink struct {
	client    SNSPublisher
	config    Config
	fifo      bool
	logger    *slog.Logger
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex
}

// NewEventSink creates a new SNS event sink.
func NewEventSink(client SNSPublisher, config Config) (*EventSink, error) {
	if client == nil {
		return nil, errors.New("sns client is required")
	}
	if config.TopicARN == "" {
		return nil, errors.New("topic ARN is required")
	}

	defaults := ConfigDefaults()
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &EventSink{
		client: client,
		config: config,
		fifo:   strings.HasSuffix(config.TopicARN, ".fifo"),
		logger: config.Logger.With("component", "sns-eventsink"),
	}, nil
}

// Publish publishes a cycle event to SNS.
func (s *EventSink) Publish(ctx context.Context, event entity.CycleEvent) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return errors.New("event sink is closed")
	}
	s.mu.RUnlock()

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.config.TopicARN),
		Message:  aws.String(string(messageBytes)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"outcome": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Kind.String()),
			},
			"cycle": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Cycle)),
			},
			"generation": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatUint(event.Generation, 10)),
			},
			"contract": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.config.Contract.Hex()),
			},
		},
	}
	if s.fifo {
		input.MessageGroupId = aws.String(s.config.Contract.Hex())
		input.MessageDeduplicationId = aws.String(deduplicationID(event))
	}

	cfg := retry.Config{
		MaxRetries:     s.config.MaxRetries,
		InitialBackoff: s.config.InitialBackoff,
		MaxBackoff:     s.config.MaxBackoff,
		BackoffFactor:  s.config.BackoffFactor,
	}
	onRetry := func(attempt int, err error, backoff time.Duration) {
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"maxRetries", s.config.MaxRetries,
			"backoff", backoff,
			"error", err,
			"outcome", event.Kind,
			"generation", event.Generation,
		)
	}

	err = retry.DoVoid(ctx, cfg, isRetryableError, onRetry, func() error {
		_, err := s.client.Publish(ctx, input)
		return err
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			s.logger.Error("request failed after all retries",
				"maxRetries", s.config.MaxRetries,
				"error", err,
				"outcome", event.Kind,
				"generation", event.Generation,
			)
		}
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	return nil
}

// deduplicationID identifies one outcome: generation, kind, batch and ids.
func deduplicationID(event entity.CycleEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d-%s-%d", event.Generation, event.Kind, event.Batch)
	for _, id := range event.TokenIDs {
		b.WriteByte('-')
		b.WriteString(id.String())
	}
	id := b.String()
	// SNS caps the deduplication id at 128 characters
	if len(id) > 128 {
		id = id[:128]
	}
	return id
}

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return false
	}
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) {
		return false
	}
	var authErr *types.AuthorizationErrorException
	if errors.As(err, &authErr) {
		return false
	}

	// throttling, internal errors and network issues
	return true
}

// Close marks the sink as closed and prevents further publishing.
func (s *EventSink) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.logger.Info("SNS event sink closed")
	})
	return nil
}
