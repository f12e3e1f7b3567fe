package testutil

import (
	"context"
	"sync"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// MockSQSConsumer implements outbound.SQSConsumer over a queue of batches.
// Each ReceiveMessages call pops one batch; an empty queue blocks until the
// context ends.
type MockSQSConsumer struct {
	mu       sync.Mutex
	batches  [][]outbound.SQSMessage
	deleted  []string
	closed   bool
	notEmpty chan struct{}

	ReceiveErr error
}

func NewMockSQSConsumer(batches ...[]outbound.SQSMessage) *MockSQSConsumer {
	return &MockSQSConsumer{batches: batches, notEmpty: make(chan struct{}, 1)}
}

// Push queues another batch.
func (m *MockSQSConsumer) Push(batch ...outbound.SQSMessage) {
	m.mu.Lock()
	m.batches = append(m.batches, batch)
	m.mu.Unlock()
	select {
	case m.notEmpty <- struct{}{}:
	default:
	}
}

func (m *MockSQSConsumer) ReceiveMessages(ctx context.Context, maxMessages int) ([]outbound.SQSMessage, error) {
	for {
		m.mu.Lock()
		if m.ReceiveErr != nil {
			err := m.ReceiveErr
			m.mu.Unlock()
			return nil, err
		}
		if len(m.batches) > 0 {
			batch := m.batches[0]
			m.batches = m.batches[1:]
			m.mu.Unlock()
			return batch, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.notEmpty:
		}
	}
}

func (m *MockSQSConsumer) DeleteMessage(ctx context.Context, receiptHandle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, receiptHandle)
	return nil
}

func (m *MockSQSConsumer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Deleted returns the receipt handles deleted so far.
func (m *MockSQSConsumer) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
