package sns

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/retry"
)

// mockSNSClient implements SNSPublisher for testing.
type mockSNSClient struct {
	mu          sync.Mutex
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("test-message-id")}, nil
}

const (
	testTopicARN     = "arn:aws:sns:us-east-1:123456789:gallery-cycles"
	testFIFOTopicARN = "arn:aws:sns:us-east-1:123456789:gallery-cycles.fifo"
)

var testContract = common.HexToAddress("0x401eC1012427D8570Ec260F914E213d642F53bEc")

func testEvent() entity.CycleEvent {
	return entity.CycleEvent{
		Generation: 7,
		Cycle:      entity.CycleCollection,
		Kind:       entity.OutcomeBatchDropped,
		Batch:      1,
		TokenIDs:   []entity.TokenID{11, 12, 13},
		Progress:   86.95652173913044,
		Err:        "execution reverted",
		At:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fastConfig(topic string, maxRetries int) Config {
	return Config{
		TopicARN:       topic,
		Contract:       testContract,
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestNewEventSink_Validation(t *testing.T) {
	tests := []struct {
		name    string
		client  SNSPublisher
		config  Config
		wantErr string
	}{
		{"nil client", nil, Config{TopicARN: testTopicARN}, "sns client is required"},
		{"missing topic", &mockSNSClient{}, Config{}, "topic ARN is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEventSink(tt.client, tt.config)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewEventSink_AppliesDefaults(t *testing.T) {
	sink, err := NewEventSink(&mockSNSClient{}, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", sink.config.MaxRetries)
	}
	if sink.config.InitialBackoff != 100*time.Millisecond {
		t.Errorf("expected InitialBackoff=100ms, got %v", sink.config.InitialBackoff)
	}
	if sink.config.MaxBackoff != 5*time.Second {
		t.Errorf("expected MaxBackoff=5s, got %v", sink.config.MaxBackoff)
	}
	if sink.config.BackoffFactor != 2.0 {
		t.Errorf("expected BackoffFactor=2.0, got %v", sink.config.BackoffFactor)
	}
	if sink.fifo {
		t.Error("standard topic detected as FIFO")
	}
}

func TestPublish_Success(t *testing.T) {
	client := &mockSNSClient{}
	sink, err := NewEventSink(client, fastConfig(testTopicARN, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(client.calls))
	}

	call := client.calls[0]
	if *call.TopicArn != testTopicARN {
		t.Errorf("topic ARN = %s", *call.TopicArn)
	}
	if call.MessageGroupId != nil || call.MessageDeduplicationId != nil {
		t.Error("FIFO fields set on a standard topic")
	}

	var decoded entity.CycleEvent
	if err := json.Unmarshal([]byte(*call.Message), &decoded); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if decoded.Kind != entity.OutcomeBatchDropped || decoded.Generation != 7 || len(decoded.TokenIDs) != 3 {
		t.Errorf("decoded = %+v", decoded)
	}

	wantAttrs := map[string]string{
		"outcome":    "BatchDropped",
		"cycle":      "collection",
		"generation": "7",
		"contract":   testContract.Hex(),
	}
	for k, want := range wantAttrs {
		got := call.MessageAttributes[k].StringValue
		if got == nil || *got != want {
			t.Errorf("attribute %s = %v, want %s", k, got, want)
		}
	}
}

func TestPublish_FIFOTopic(t *testing.T) {
	client := &mockSNSClient{}
	sink, err := NewEventSink(client, fastConfig(testFIFOTopicARN, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := client.calls[0]
	if call.MessageGroupId == nil || *call.MessageGroupId != testContract.Hex() {
		t.Errorf("MessageGroupId = %v", call.MessageGroupId)
	}
	if call.MessageDeduplicationId == nil || *call.MessageDeduplicationId != "7-BatchDropped-1-11-12-13" {
		t.Errorf("MessageDeduplicationId = %v", call.MessageDeduplicationId)
	}
}

func TestDeduplicationID_Truncated(t *testing.T) {
	ev := testEvent()
	ev.TokenIDs = make([]entity.TokenID, 100)
	for i := range ev.TokenIDs {
		ev.TokenIDs[i] = entity.TokenID(100000 + i)
	}
	if got := deduplicationID(ev); len(got) != 128 || !strings.HasPrefix(got, "7-BatchDropped-1-") {
		t.Errorf("deduplicationID = %q (%d chars)", got, len(got))
	}
}

func TestPublish_RetryOnThrottling(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			if callCount < 3 {
				return nil, &types.ThrottledException{Message: aws.String("throttled")}
			}
			return &sns.PublishOutput{MessageId: aws.String("success")}, nil
		},
	}
	sink, err := NewEventSink(client, fastConfig(testTopicARN, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sink.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("expected success after retry, got: %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestPublish_RetriesExhausted(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			return nil, &types.InternalErrorException{Message: aws.String("internal")}
		},
	}
	sink, err := NewEventSink(client, fastConfig(testTopicARN, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = sink.Publish(context.Background(), testEvent())
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	// Initial attempt + 2 retries = 3 calls
	if callCount != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", callCount)
	}
}

func TestPublish_NonRetryableError(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			return nil, &types.NotFoundException{Message: aws.String("no such topic")}
		},
	}
	sink, err := NewEventSink(client, fastConfig(testTopicARN, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var notFound *types.NotFoundException
	if err := sink.Publish(context.Background(), testEvent()); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundException, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestPublish_ContextCancelled(t *testing.T) {
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, &types.ThrottledException{Message: aws.String("throttled")}
		},
	}
	sink, err := NewEventSink(client, Config{
		TopicARN:       testTopicARN,
		MaxRetries:     10,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if err := sink.Publish(ctx, testEvent()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client := &mockSNSClient{}
	sink, err := NewEventSink(client, fastConfig(testTopicARN, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := sink.Publish(context.Background(), testEvent()); err == nil {
		t.Error("expected error publishing to a closed sink")
	}
	if len(client.calls) != 0 {
		t.Errorf("expected no calls, got %d", len(client.calls))
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"throttled", &types.ThrottledException{}, true},
		{"internal", &types.InternalErrorException{}, true},
		{"kms throttled", &types.KMSThrottlingException{}, true},
		{"not found", &types.NotFoundException{}, false},
		{"invalid parameter", &types.InvalidParameterException{}, false},
		{"authorization", &types.AuthorizationErrorException{}, false},
		{"network", errors.New("connection reset by peer"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
