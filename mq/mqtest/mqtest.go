// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mqtest provides an in-memory message queue for unit tests
// of code which uses mq.TimedMessenger.
package mqtest

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/nxgtw/go-mqueue/mq"

	"github.com/pkg/errors"
)

// Queue is an in-memory implementation of mq.TimedMessenger.
//
// It's implemented with channels and returns the same errors as mq.Queue:
// *mq.MessageTooLargeError, mq.ErrQueueFull, mq.ErrQueueEmpty, and errors
// matching mq.ErrClosed after Close.
type Queue struct {
	name    string
	msgs    chan []byte
	maxSize int

	closeOnce sync.Once
	done      chan struct{}
}

var _ mq.TimedMessenger = (*Queue)(nil)
var _ mq.Sizer = (*Queue)(nil)

// New creates a Queue. Zero attributes are replaced with the linux defaults.
// Only MaxMessages and MaxMessageSize of cfg are used.
func New(cfg mq.Config) *Queue {
	maxMsgs, maxSize := cfg.MaxMessages, cfg.MaxMessageSize
	if maxMsgs <= 0 {
		maxMsgs = mq.DefaultLinuxMqMaxSize
	}
	if maxSize <= 0 {
		maxSize = mq.DefaultLinuxMqMessageSize
	}
	return &Queue{
		name:    "/mqtest",
		msgs:    make(chan []byte, maxMsgs),
		maxSize: int(maxSize),
		done:    make(chan struct{}),
	}
}

// Name returns a fixed fake name.
func (q *Queue) Name() string {
	return q.name
}

// MaxMessageSize returns the max message size of the queue.
func (q *Queue) MaxMessageSize() int {
	return q.maxSize
}

// Close closes the queue. Blocked calls return an error matching mq.ErrClosed.
func (q *Queue) Close() error {
	err := q.closedError("close")
	q.closeOnce.Do(func() {
		close(q.done)
		err = nil
	})
	return err
}

// Size returns the number of buffered messages.
func (q *Queue) Size() (int, error) {
	if q.isClosed() {
		return 0, q.closedError("size")
	}
	return len(q.msgs), nil
}

// Send sends a message. It blocks, if the queue is full.
func (q *Queue) Send(data []byte) error {
	return q.send(context.Background(), data, nil)
}

// SendTimeout sends a message, waiting up to timeout for free space.
func (q *Queue) SendTimeout(data []byte, timeout time.Duration) error {
	return q.send(context.Background(), data, &timeout)
}

// SendContext sends a message, waiting for free space until ctx is done.
func (q *Queue) SendContext(ctx context.Context, data []byte) error {
	return q.send(ctx, data, nil)
}

// Receive receives a message. It blocks, if the queue is empty.
func (q *Queue) Receive() ([]byte, error) {
	return q.receive(context.Background(), nil)
}

// ReceiveTimeout receives a message, waiting up to timeout for it.
func (q *Queue) ReceiveTimeout(timeout time.Duration) ([]byte, error) {
	return q.receive(context.Background(), &timeout)
}

// ReceiveContext receives a message, waiting for it until ctx is done.
func (q *Queue) ReceiveContext(ctx context.Context) ([]byte, error) {
	return q.receive(ctx, nil)
}

func (q *Queue) send(ctx context.Context, data []byte, timeout *time.Duration) error {
	if q.isClosed() {
		return q.closedError("send")
	}
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return err
	}
	if len(data) > q.maxSize {
		return &mq.MessageTooLargeError{
			Name:        q.name,
			MessageSize: len(data),
			MaxSize:     q.maxSize,
			Cause:       syscall.EMSGSIZE,
		}
	}
	msg := append([]byte{}, data...)
	// try without waiting first, so that a zero timeout never races with the timer.
	select {
	case q.msgs <- msg:
		return nil
	default:
	}
	expired, stop := q.deadline(ctx, timeout)
	defer stop()
	select {
	case q.msgs <- msg:
		return nil
	case <-q.done:
		return q.closedError("send")
	case <-expired:
		return expiredError(ctx, mq.ErrQueueFull)
	}
}

func (q *Queue) receive(ctx context.Context, timeout *time.Duration) ([]byte, error) {
	if q.isClosed() {
		return nil, q.closedError("receive")
	}
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}
	select {
	case msg := <-q.msgs:
		return msg, nil
	default:
	}
	expired, stop := q.deadline(ctx, timeout)
	defer stop()
	select {
	case msg := <-q.msgs:
		return msg, nil
	case <-q.done:
		return nil, q.closedError("receive")
	case <-expired:
		return nil, expiredError(ctx, mq.ErrQueueEmpty)
	}
}

// deadline returns a chan, which is closed when the call must give up.
// nil timeout means waiting for ctx.
func (q *Queue) deadline(ctx context.Context, timeout *time.Duration) (<-chan struct{}, func()) {
	if timeout == nil {
		return ctx.Done(), func() {}
	}
	ch := make(chan struct{})
	if *timeout <= 0 {
		close(ch)
		return ch, func() {}
	}
	timer := time.AfterFunc(*timeout, func() { close(ch) })
	return ch, func() { timer.Stop() }
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *Queue) closedError(op string) error {
	return &mq.ResourceError{Op: op, Name: q.name, Errno: syscall.EBADF}
}

// expiredError returns ctx.Err() for a canceled context,
// and a timeout error of the given kind otherwise.
func expiredError(ctx context.Context, kind error) error {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, syscall.ETIMEDOUT)
}
