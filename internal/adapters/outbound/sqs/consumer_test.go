package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/testutil"
)

type mockSQSAPI struct {
	receiveFunc func(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	deleteFunc  func(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)

	receives []*sqs.ReceiveMessageInput
	deletes  []*sqs.DeleteMessageInput
}

func (m *mockSQSAPI) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.receives = append(m.receives, params)
	if m.receiveFunc != nil {
		return m.receiveFunc(ctx, params, optFns...)
	}
	return &sqs.ReceiveMessageOutput{}, nil
}

func (m *mockSQSAPI) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.deletes = append(m.deletes, params)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, params, optFns...)
	}
	return &sqs.DeleteMessageOutput{}, nil
}

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/gallery-triggers"

func TestNewConsumer(t *testing.T) {
	if _, err := NewConsumer(aws.Config{}, Config{}, nil); err == nil {
		t.Error("expected error for missing queue URL")
	}

	c, err := newConsumer(&mockSQSAPI{}, Config{QueueURL: testQueueURL}, nil)
	if err != nil {
		t.Fatalf("newConsumer: %v", err)
	}
	if c.config.WaitTimeSeconds != 20 {
		t.Errorf("WaitTimeSeconds = %d, want 20", c.config.WaitTimeSeconds)
	}
}

func TestReceiveMessages(t *testing.T) {
	mock := &mockSQSAPI{
		receiveFunc: func(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
			return &sqs.ReceiveMessageOutput{
				Messages: []types.Message{
					{MessageId: aws.String("1"), ReceiptHandle: aws.String("r1"), Body: aws.String(`{"type":"collection"}`)},
					{MessageId: aws.String("2"), ReceiptHandle: nil, Body: aws.String("{}")},
					{MessageId: aws.String("3"), ReceiptHandle: aws.String("r3"), Body: aws.String(`{"type":"wallet"}`)},
				},
			}, nil
		},
	}
	c, err := newConsumer(mock, Config{QueueURL: testQueueURL, VisibilityTimeout: 300}, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("newConsumer: %v", err)
	}

	msgs, err := c.ReceiveMessages(context.Background(), 50)
	if err != nil {
		t.Fatalf("ReceiveMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ReceiptHandle != "r1" || msgs[1].MessageID != "3" {
		t.Errorf("messages = %+v", msgs)
	}

	in := mock.receives[0]
	if in.MaxNumberOfMessages != 10 {
		t.Errorf("MaxNumberOfMessages = %d, want capped at 10", in.MaxNumberOfMessages)
	}
	if in.VisibilityTimeout != 300 || in.WaitTimeSeconds != 20 || *in.QueueUrl != testQueueURL {
		t.Errorf("receive input = %+v", in)
	}
}

func TestReceiveMessages_Error(t *testing.T) {
	mock := &mockSQSAPI{
		receiveFunc: func(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	c, _ := newConsumer(mock, Config{QueueURL: testQueueURL}, nil)
	if _, err := c.ReceiveMessages(context.Background(), 0); err == nil {
		t.Error("expected error")
	}
	if mock.receives[0].MaxNumberOfMessages != 1 {
		t.Errorf("MaxNumberOfMessages = %d, want at least 1", mock.receives[0].MaxNumberOfMessages)
	}
}

func TestDeleteMessage(t *testing.T) {
	mock := &mockSQSAPI{}
	c, _ := newConsumer(mock, Config{QueueURL: testQueueURL}, nil)

	if err := c.DeleteMessage(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if len(mock.deletes) != 1 || *mock.deletes[0].ReceiptHandle != "r1" {
		t.Errorf("deletes = %+v", mock.deletes)
	}

	mock.deleteFunc = func(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
		return nil, errors.New("receipt handle expired")
	}
	if err := c.DeleteMessage(context.Background(), "r2"); err == nil {
		t.Error("expected error")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
