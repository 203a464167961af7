package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_messages_sent_total",
			Help: "Total messages sent to the queue",
		})

	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_send_failures_total",
			Help: "Total failed sends",
		})

	MessagesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_messages_received_total",
			Help: "Total messages received from the queue",
		})

	EmptyPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_empty_polls_total",
			Help: "Total receive calls that returned no message",
		})

	ReceiveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_receive_failures_total",
			Help: "Total failed receive calls",
		})

	MessagesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_messages_processed_total",
			Help: "Total messages processed",
		})

	MessagesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_messages_failed_total",
			Help: "Total messages whose processing failed",
		})

	MessagesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_messages_deleted_total",
			Help: "Total messages deleted after processing",
		})

	DeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_delete_failures_total",
			Help: "Total failed deletes",
		})

	DuplicatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aws_sqs_fifo_duplicates_skipped_total",
			Help: "Total redelivered messages skipped by the processed-message cache",
		})

	MessageProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aws_sqs_fifo_message_processing_seconds",
			Help:    "Histogram of message processing duration",
			Buckets: prometheus.DefBuckets,
		})
)

func Setup() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(SendFailures)
	prometheus.MustRegister(MessagesReceived)
	prometheus.MustRegister(EmptyPolls)
	prometheus.MustRegister(ReceiveFailures)
	prometheus.MustRegister(MessagesProcessed)
	prometheus.MustRegister(MessagesFailed)
	prometheus.MustRegister(MessagesDeleted)
	prometheus.MustRegister(DeleteFailures)
	prometheus.MustRegister(DuplicatesSkipped)
	prometheus.MustRegister(MessageProcessingTime)
}
