// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mqprom instruments message queues with prometheus metrics.
package mqprom

import (
	"time"

	"github.com/nxgtw/go-mqueue/mq"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names.
const (
	QueueLabel  = "mqueue_name"
	ResultLabel = "mqueue_result"
	OpLabel     = "mqueue_op"
)

// Values of ResultLabel.
const (
	ResultOK       = "ok"
	ResultFull     = "full"
	ResultEmpty    = "empty"
	ResultTooLarge = "too_large"
	ResultError    = "error"
)

// Values of OpLabel.
const (
	OpSend    = "send"
	OpReceive = "receive"
)

var (
	SendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqueue_send_total",
			Help: "total number of send calls by result",
		},
		[]string{QueueLabel, ResultLabel},
	)
	ReceiveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqueue_receive_total",
			Help: "total number of receive calls by result",
		},
		[]string{QueueLabel, ResultLabel},
	)
	MessageSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mqueue_message_size_bytes",
			Help:    "size of successfully sent and received messages",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{QueueLabel, OpLabel},
	)
	LatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mqueue_operation_latency_seconds",
			Help:    "latency of send and receive calls, including the time spent blocked",
			Buckets: prometheus.DefBuckets,
		},
		[]string{QueueLabel, OpLabel, ResultLabel},
	)
)

// Messenger is an mq.TimedMessenger, which reports metrics for every call.
type Messenger struct {
	m     mq.TimedMessenger
	queue string
}

var _ mq.TimedMessenger = (*Messenger)(nil)

// Wrap returns m instrumented with the package metrics, labelled by queue.
func Wrap(m mq.TimedMessenger, queue string) *Messenger {
	return &Messenger{m: m, queue: queue}
}

// Send implements mq.Messenger.
func (m *Messenger) Send(data []byte) error {
	start := time.Now()
	err := m.m.Send(data)
	m.observe(OpSend, start, len(data), err)
	return err
}

// SendTimeout implements mq.TimedMessenger.
func (m *Messenger) SendTimeout(data []byte, timeout time.Duration) error {
	start := time.Now()
	err := m.m.SendTimeout(data, timeout)
	m.observe(OpSend, start, len(data), err)
	return err
}

// Receive implements mq.Messenger.
func (m *Messenger) Receive() ([]byte, error) {
	start := time.Now()
	data, err := m.m.Receive()
	m.observe(OpReceive, start, len(data), err)
	return data, err
}

// ReceiveTimeout implements mq.TimedMessenger.
func (m *Messenger) ReceiveTimeout(timeout time.Duration) ([]byte, error) {
	start := time.Now()
	data, err := m.m.ReceiveTimeout(timeout)
	m.observe(OpReceive, start, len(data), err)
	return data, err
}

// Close closes the wrapped messenger.
func (m *Messenger) Close() error {
	return m.m.Close()
}

func (m *Messenger) observe(op string, start time.Time, size int, err error) {
	result := Result(err)
	LatencySeconds.WithLabelValues(m.queue, op, result).Observe(time.Since(start).Seconds())
	if op == OpSend {
		SendTotal.WithLabelValues(m.queue, result).Inc()
	} else {
		ReceiveTotal.WithLabelValues(m.queue, result).Inc()
	}
	if err == nil {
		MessageSizeBytes.WithLabelValues(m.queue, op).Observe(float64(size))
	}
}

// Result classifies the error of a send or receive call into a ResultLabel value.
func Result(err error) string {
	var tooLarge *mq.MessageTooLargeError
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, mq.ErrQueueFull):
		return ResultFull
	case errors.Is(err, mq.ErrQueueEmpty):
		return ResultEmpty
	case errors.As(err, &tooLarge):
		return ResultTooLarge
	default:
		return ResultError
	}
}
