package sqs

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"

	"aws-sqs-fifo-worker/internal/pkg/logger"
	"aws-sqs-fifo-worker/internal/pkg/queue"
)

// defaultRegion is used for request signing when only a service URL is given.
const defaultRegion = "us-east-1"

// sqsAPI is the subset of *sqs.Client the actions need.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var _ queue.QueueClient = (*SqsActions)(nil)

// SqsActions provides methods to interact with AWS SQS.
type SqsActions struct {
	SqsClient sqsAPI  // AWS SQS client
	Config    *Config // Configuration for SQS
}

type Config struct {
	QueueUrl        string // SQS queue URL
	Region          string // AWS region
	ServiceURL      string // Optional endpoint override, e.g. a FIPS or local endpoint
	AccessKeyID     string // Optional static credentials
	SecretAccessKey string
}

// NewClient creates a new sqs client
func NewClient(ctx context.Context, c *Config) (*sqs.Client, error) {
	region := c.Region
	if region == "" {
		region = defaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}

	// Load the Shared AWS Configuration
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	// Create an SQS service client
	svc := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if c.ServiceURL != "" {
			o.BaseEndpoint = aws.String(c.ServiceURL)
		}
	})
	return svc, nil
}

// New wraps client for the queue in c.
func New(client sqsAPI, c *Config) (*SqsActions, error) {
	if client == nil {
		return nil, errors.New("sqs client is required")
	}
	if c == nil || c.QueueUrl == "" {
		return nil, queue.ErrEmptyEndpoint
	}
	return &SqsActions{SqsClient: client, Config: c}, nil
}

func (a *SqsActions) Endpoint() string {
	return a.Config.QueueUrl
}

// Send sends a message to the SQS queue.
func (a *SqsActions) Send(ctx context.Context, msg queue.OutboundMessage) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(a.Config.QueueUrl),
		MessageBody: aws.String(msg.Body),
	}
	if msg.GroupID != "" {
		input.MessageGroupId = aws.String(msg.GroupID)
	}
	if msg.DeduplicationID != "" {
		input.MessageDeduplicationId = aws.String(msg.DeduplicationID)
	}

	out, err := a.SqsClient.SendMessage(ctx, input)
	if err != nil {
		logger.Error("SQS SendMessage error", zap.String("queueUrl", a.Config.QueueUrl), zap.Error(err))
		return &queue.SendError{Endpoint: a.Config.QueueUrl, StatusCode: errorStatus(err), Err: err}
	}
	if code := responseStatus(out.ResultMetadata); !success(code) {
		return &queue.SendError{Endpoint: a.Config.QueueUrl, StatusCode: code, Err: errors.New("unexpected response status")}
	}

	logger.Info("message sent",
		zap.String("queueUrl", a.Config.QueueUrl),
		zap.String("messageId", aws.ToString(out.MessageId)),
		zap.String("sequenceNumber", aws.ToString(out.SequenceNumber)),
	)
	return nil
}

// Receive long-polls the SQS queue for a single message.
func (a *SqsActions) Receive(ctx context.Context, opts queue.ReceiveOptions) (*queue.InboundMessage, error) {
	result, err := a.SqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(a.Config.QueueUrl),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     opts.WaitTimeSeconds,
		VisibilityTimeout:   opts.VisibilityTimeoutSeconds,
	})
	if err != nil {
		logger.Error("SQS ReceiveMessage error", zap.String("queueUrl", a.Config.QueueUrl), zap.Error(err))
		return nil, &queue.ReceiveError{Endpoint: a.Config.QueueUrl, Err: err}
	}

	for _, msg := range result.Messages {
		if msg.MessageId == nil || msg.ReceiptHandle == nil || msg.Body == nil {
			continue
		}
		return &queue.InboundMessage{
			ID:            *msg.MessageId,
			Body:          *msg.Body,
			ReceiptHandle: *msg.ReceiptHandle,
		}, nil
	}
	return nil, nil
}

// Delete deletes a message from the SQS queue.
func (a *SqsActions) Delete(ctx context.Context, receiptHandle string) error {
	out, err := a.SqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(a.Config.QueueUrl),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		logger.Error("unable to delete message from queue", zap.String("receiptHandle", receiptHandle), zap.Error(err))
		return &queue.DeleteError{
			Endpoint:      a.Config.QueueUrl,
			ReceiptHandle: receiptHandle,
			StatusCode:    errorStatus(err),
			Err:           err,
		}
	}
	if code := responseStatus(out.ResultMetadata); !success(code) {
		return &queue.DeleteError{
			Endpoint:      a.Config.QueueUrl,
			ReceiptHandle: receiptHandle,
			StatusCode:    code,
			Err:           errors.New("error processing delete message request"),
		}
	}
	return nil
}

// responseStatus returns the HTTP status of a completed call, or 0 when the
// raw response is not available.
func responseStatus(md middleware.Metadata) int {
	if raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && raw != nil && raw.Response != nil {
		return raw.StatusCode
	}
	return 0
}

func errorStatus(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func success(code int) bool {
	return code == 0 || (code >= 200 && code < 300)
}
