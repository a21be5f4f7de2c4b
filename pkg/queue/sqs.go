/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"k8s.io/klog/v2"
)

const (
	// MaxDelaySeconds is the SQS per-message delay cap.
	MaxDelaySeconds = 900

	dlqSuffix = "-dlq"
)

// API is the subset of the SQS client used by the provider.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Provider is one SQS queue bound to a fixed URL.
type Provider interface {
	Name() string
	IsDLQ() bool
	SendMessage(ctx context.Context, body interface{}, delaySeconds int64) (string, error)
	GetMessages(ctx context.Context) ([]sqstypes.Message, error)
	DeleteMessage(ctx context.Context, receiptHandle *string) error
}

// DefaultProvider implements Provider over the aws-sdk-go-v2 SQS client.
type DefaultProvider struct {
	client   API
	queueURL string

	waitTimeSeconds int32
	maxMessages     int32
}

// NewDefaultProvider binds an SQS client to a queue URL.
func NewDefaultProvider(client API, queueURL string, waitTimeSeconds, maxMessages int) (*DefaultProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("sqs client is nil")
	}
	if queueURL == "" {
		return nil, fmt.Errorf("queue url is empty")
	}
	return &DefaultProvider{
		client:          client,
		queueURL:        queueURL,
		waitTimeSeconds: int32(waitTimeSeconds),
		maxMessages:     int32(maxMessages),
	}, nil
}

// NewSQSClient builds the shared SQS client for the given region.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config, %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

// Name returns the last segment of the queue URL.
func (p *DefaultProvider) Name() string {
	ss := strings.Split(p.queueURL, "/")
	return ss[len(ss)-1]
}

// IsDLQ reports whether this queue is the dead-letter queue.
func (p *DefaultProvider) IsDLQ() bool {
	return strings.HasSuffix(p.Name(), dlqSuffix)
}

// SendMessage enqueues body as JSON with a per-message delay. Delays beyond
// the broker cap are clamped to it.
func (p *DefaultProvider) SendMessage(ctx context.Context, body interface{}, delaySeconds int64) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling the passed body as json, %w", err)
	}
	input := &sqs.SendMessageInput{
		MessageBody:  aws.String(string(raw)),
		QueueUrl:     aws.String(p.queueURL),
		DelaySeconds: ClampDelaySeconds(p.Name(), delaySeconds),
	}
	result, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("sending messages to sqs queue, %w", err)
	}
	return aws.ToString(result.MessageId), nil
}

// GetMessages long-polls the queue for the next batch.
func (p *DefaultProvider) GetMessages(ctx context.Context) ([]sqstypes.Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(p.queueURL),
		MaxNumberOfMessages: p.maxMessages,
		WaitTimeSeconds:     p.waitTimeSeconds,
	}
	result, err := p.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("receiving sqs messages, %w", err)
	}
	return result.Messages, nil
}

// DeleteMessage acknowledges one received message.
func (p *DefaultProvider) DeleteMessage(ctx context.Context, receiptHandle *string) error {
	input := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.queueURL),
		ReceiptHandle: receiptHandle,
	}
	if _, err := p.client.DeleteMessage(ctx, input); err != nil {
		return fmt.Errorf("deleting messages from sqs queue, %w", err)
	}
	return nil
}

// ClampDelaySeconds bounds a requested delay to [0, MaxDelaySeconds].
func ClampDelaySeconds(queueName string, delaySeconds int64) int32 {
	if delaySeconds < 0 {
		return 0
	}
	if delaySeconds > MaxDelaySeconds {
		klog.Warningf("clamping sqs delay %ds to %ds for queue %s", delaySeconds, MaxDelaySeconds, queueName)
		return MaxDelaySeconds
	}
	return int32(delaySeconds)
}
