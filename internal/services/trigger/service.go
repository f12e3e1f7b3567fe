// Package trigger consumes fetch-cycle triggers from a queue and runs the
// matching gallery cycle.
//
// A trigger is a JSON message, optionally wrapped in an SNS envelope:
//
//	{"type": "collection"}
//	{"type": "wallet", "account": "0x..."}
//	{"type": "disconnect"}
//
// Triggers received together are coalesced: only the last one runs, since a
// newer cycle would supersede the earlier ones anyway.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/gallery"
)

// Type names a trigger.
type Type string

const (
	TypeCollection Type = "collection"
	TypeWallet     Type = "wallet"
	TypeDisconnect Type = "disconnect"
)

// Message is the decoded body of one trigger.
type Message struct {
	Type    Type   `json:"type"`
	Account string `json:"account,omitempty"`
}

// ParseMessage decodes body, unwrapping an SNS envelope when present.
func ParseMessage(body string) (Message, error) {
	var envelope struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		body = envelope.Message
	}

	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return Message{}, fmt.Errorf("failed to parse trigger: %w", err)
	}

	switch msg.Type {
	case TypeCollection, TypeDisconnect:
	case TypeWallet:
		if !common.IsHexAddress(msg.Account) {
			return Message{}, fmt.Errorf("invalid account %q", msg.Account)
		}
	default:
		return Message{}, fmt.Errorf("unknown trigger type %q", msg.Type)
	}
	return msg, nil
}

// CycleRunner is the part of the gallery service the worker drives.
type CycleRunner interface {
	Session() gallery.Session
	SetSession(gallery.Session)
	RunCycle(ctx context.Context, kind entity.CycleKind, session gallery.Session) error
}

// Config holds configuration for the trigger worker.
type Config struct {
	// BatchSize is how many messages to fetch at once (max 10).
	BatchSize int

	// ErrorBackoff is the pause after a failed receive.
	ErrorBackoff time.Duration

	Logger *slog.Logger
}

// ConfigDefaults returns sensible defaults for the trigger worker.
func ConfigDefaults() Config {
	return Config{
		BatchSize:    10,
		ErrorBackoff: 5 * time.Second,
		Logger:       slog.Default(),
	}
}

// Service polls the queue and runs cycles one at a time.
type Service struct {
	config    Config
	consumer  outbound.SQSConsumer
	runner    CycleRunner
	logger    *slog.Logger
	closeOnce sync.Once
	stopCh    chan struct{}
}

// NewService creates a new trigger worker.
func NewService(config Config, consumer outbound.SQSConsumer, runner CycleRunner) (*Service, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("cycle runner is required")
	}

	defaults := ConfigDefaults()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Service{
		config:   config,
		consumer: consumer,
		runner:   runner,
		logger:   config.Logger.With("component", "trigger-worker"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Run polls for triggers and blocks until ctx is cancelled or Stop is called.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting trigger worker", "batchSize", s.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			s.logger.Info("stop signal received, stopping trigger worker")
			return nil
		default:
		}

		messages, err := s.consumer.ReceiveMessages(ctx, s.config.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.stopCh:
				return nil
			case <-time.After(s.config.ErrorBackoff):
			}
			continue
		}

		s.handleBatch(ctx, messages)
	}
}

// Stop signals the worker to stop after the current batch.
func (s *Service) Stop() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
}

// handleBatch applies the session change of every valid message in order,
// runs the cycle of the last one and deletes every message that no longer
// needs processing.
func (s *Service) handleBatch(ctx context.Context, messages []outbound.SQSMessage) {
	var (
		last    *Message
		pending []outbound.SQSMessage
	)
	for _, m := range messages {
		msg, err := ParseMessage(m.Body)
		if err != nil {
			// left on the queue for the dead-letter policy
			s.logger.Error("failed to process message", "messageID", m.MessageID, "error", err)
			continue
		}
		s.applySession(msg)
		last = &msg
		pending = append(pending, m)
	}
	if last == nil {
		return
	}

	if err := s.run(ctx, *last); err != nil {
		s.logger.Error("trigger failed", "type", last.Type, "error", err)
		return
	}

	for _, m := range pending {
		if err := s.consumer.DeleteMessage(ctx, m.ReceiptHandle); err != nil {
			s.logger.Error("failed to delete message", "messageID", m.MessageID, "error", err)
		}
	}
}

func (s *Service) applySession(msg Message) {
	session := s.runner.Session()
	switch msg.Type {
	case TypeDisconnect:
		session.Account = common.Address{}
		s.runner.SetSession(session)
		s.logger.Info("wallet disconnected")
	case TypeWallet:
		session.Account = common.HexToAddress(msg.Account)
		s.runner.SetSession(session)
	}
}

// run starts the cycle msg asks for against the current session.
func (s *Service) run(ctx context.Context, msg Message) error {
	var kind entity.CycleKind
	switch msg.Type {
	case TypeDisconnect:
		return nil
	case TypeWallet:
		kind = entity.CycleWallet
	default:
		kind = entity.CycleCollection
	}

	s.logger.Info("running triggered cycle", "cycle", kind)
	err := s.runner.RunCycle(ctx, kind, s.runner.Session())
	if errors.Is(err, gallery.ErrSuperseded) {
		return nil
	}
	return err
}
