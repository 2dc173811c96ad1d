// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mq

import (
	"context"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nxgtw/go-mqueue/internal/common"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// mqAttr is struct mq_attr. C long has the size of Go int on linux.
type mqAttr struct {
	Flags   int /* Flags: 0 or O_NONBLOCK */
	Maxmsg  int /* Max. # of messages on queue */
	Msgsize int /* Max. message size (bytes) */
	Curmsgs int /* # of messages currently in queue */
	_       [4]int
}

// Attributes describes a kernel queue.
type Attributes struct {
	// Flags are the flags of the open description, 0 or O_NONBLOCK.
	Flags           int
	MaxMessages     int
	MaxMessageSize  int
	CurrentMessages int
}

// Queue is a handle to a named kernel message queue.
//
// The handle exclusively owns its descriptor. Several handles, in this
// or other processes, may refer to the same queue. Methods may be called
// concurrently, except that Close must not race with other calls.
type Queue struct {
	name        string
	fd          *atomic.Int32
	msgSize     int
	created     bool
	nonBlocking *atomic.Bool
	logger      *zap.Logger
}

// Open creates or opens a queue, depending on cfg.Mode.
//	name - must start with '/', like "/my-queue".
//	cfg - optional config, nil means the defaults.
// For an existing queue cfg.MaxMessages and cfg.MaxMessageSize are ignored.
func Open(name string, cfg *Config) (*Queue, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger().With(zap.String("mq", name))
	attrs := cfg.creationAttrs()
	var id int
	created, err := common.OpenOrCreate(func(create bool) error {
		var err error
		if create {
			id, err = mq_open(sysName(name), true, cfg.perm(), attrs)
		} else {
			id, err = mq_open(sysName(name), false, 0, nil)
		}
		return err
	}, int(cfg.Mode))
	if err != nil {
		return nil, newResourceError("mq_open", name, err)
	}
	current, err := mq_getattr(id)
	if err != nil {
		mq_close(id)
		return nil, newResourceError("mq_getsetattr", name, err)
	}
	logger.Debug("mq opened",
		zap.Int("fd", id),
		zap.Bool("created", created),
		zap.Int("maxMessages", current.Maxmsg),
		zap.Int("maxMessageSize", current.Msgsize))
	if !created && attrs != nil && (attrs.Maxmsg != current.Maxmsg || attrs.Msgsize != current.Msgsize) {
		logger.Debug("requested attributes ignored for an existing mq",
			zap.Int("requestedMaxMessages", attrs.Maxmsg),
			zap.Int("requestedMaxMessageSize", attrs.Msgsize))
	}
	return &Queue{
		name:        name,
		fd:          atomic.NewInt32(int32(id)),
		msgSize:     current.Msgsize,
		created:     created,
		nonBlocking: atomic.NewBool(cfg.NonBlocking),
		logger:      logger,
	}, nil
}

// ValidateName checks that name can be used as a queue name.
// It must start with '/', must have at least one more character,
// and must not contain other slashes or NUL bytes.
func ValidateName(name string) error {
	var reason string
	switch {
	case !strings.HasPrefix(name, "/"):
		reason = "must start with '/'"
	case len(name) == 1:
		reason = "must have at least one character after '/'"
	case strings.ContainsRune(name[1:], '/'):
		reason = "must not contain '/' except the leading one"
	case strings.IndexByte(name, 0) >= 0:
		reason = "must not contain NUL bytes"
	default:
		return nil
	}
	return &ValidationError{Field: "name", Value: strconv.Quote(name), Reason: reason}
}

// sysName converts a validated name into the form the kernel expects.
// The leading slash is a libc convention, the syscalls take a bare name.
func sysName(name string) string {
	return name[1:]
}

// Name returns the name the queue was opened with.
func (q *Queue) Name() string {
	return q.name
}

// Created returns true, if this handle has created the queue.
func (q *Queue) Created() bool {
	return q.created
}

// Fd returns the descriptor of the queue, or -1 if the handle is closed.
// On linux it can be used with select, poll and epoll to wait for the queue
// to become readable (has messages) or writable (has space).
// The descriptor remains owned by the handle.
func (q *Queue) Fd() int {
	return int(q.fd.Load())
}

// MaxMessageSize returns the max message size of the queue.
func (q *Queue) MaxMessageSize() int {
	return q.msgSize
}

// SetBlocking sets whether Send and Receive block.
// This applies to the current handle only.
func (q *Queue) SetBlocking(block bool) {
	q.nonBlocking.Store(!block)
}

// Send sends a message with the default priority.
// It blocks if the queue is full, unless the handle is non-blocking.
func (q *Queue) Send(data []byte) error {
	return q.send(data, q.defaultDeadline())
}

// SendTimeout sends a message, waiting up to timeout for free space.
// Zero or negative timeout means 'do not wait'. Returns ErrQueueFull if
// there was no space before the deadline.
func (q *Queue) SendTimeout(data []byte, timeout time.Duration) error {
	return q.send(data, deadlineAfter(timeout))
}

// SendContext sends a message, waiting for free space until the context's deadline.
// If the context has no deadline, it blocks like Send.
// Cancellation is checked only before the call: a blocked call is bounded
// by the deadline only.
func (q *Queue) SendContext(ctx context.Context, data []byte) error {
	deadline, err := q.contextDeadline(ctx)
	if err != nil {
		return err
	}
	return q.send(data, deadline)
}

// Receive receives a message. It blocks if the queue is empty,
// unless the handle is non-blocking.
func (q *Queue) Receive() ([]byte, error) {
	return q.receive(q.defaultDeadline())
}

// ReceiveTimeout receives a message, waiting up to timeout for it.
// Zero or negative timeout means 'do not wait'. Returns ErrQueueEmpty if
// there was no message before the deadline.
func (q *Queue) ReceiveTimeout(timeout time.Duration) ([]byte, error) {
	return q.receive(deadlineAfter(timeout))
}

// ReceiveContext receives a message, waiting for it until the context's deadline.
// If the context has no deadline, it blocks like Receive.
func (q *Queue) ReceiveContext(ctx context.Context) ([]byte, error) {
	deadline, err := q.contextDeadline(ctx)
	if err != nil {
		return nil, err
	}
	return q.receive(deadline)
}

// ReceiveBuffer receives a message into buf and returns its length.
// buf must be at least MaxMessageSize() bytes long.
// It blocks if the queue is empty, unless the handle is non-blocking.
func (q *Queue) ReceiveBuffer(buf []byte) (int, error) {
	return q.receiveInto(buf, q.defaultDeadline())
}

// ReceiveBufferTimeout is like ReceiveBuffer, but waits up to timeout for a message.
func (q *Queue) ReceiveBufferTimeout(buf []byte, timeout time.Duration) (int, error) {
	return q.receiveInto(buf, deadlineAfter(timeout))
}

// Size returns the number of messages currently in the queue.
// Under concurrent use it may be stale the moment it returns.
func (q *Queue) Size() (int, error) {
	attrs, err := q.Attrs()
	if err != nil {
		return 0, err
	}
	return attrs.CurrentMessages, nil
}

// Attrs returns the current attributes of the queue.
func (q *Queue) Attrs() (Attributes, error) {
	fd, err := q.descriptor("mq_getsetattr")
	if err != nil {
		return Attributes{}, err
	}
	attrs, err := mq_getattr(fd)
	if err != nil {
		return Attributes{}, newResourceError("mq_getsetattr", q.name, err)
	}
	return Attributes{
		Flags:           attrs.Flags,
		MaxMessages:     attrs.Maxmsg,
		MaxMessageSize:  attrs.Msgsize,
		CurrentMessages: attrs.Curmsgs,
	}, nil
}

// Unlink removes the name of the queue. Open handles keep working,
// a new Open with the same name creates a new queue.
// It can be called after Close.
func (q *Queue) Unlink() error {
	if err := Unlink(q.name); err != nil {
		return err
	}
	q.logger.Debug("mq unlinked")
	return nil
}

// Close releases the descriptor. It does not remove the queue.
// Closing a closed handle returns an error matching ErrClosed.
func (q *Queue) Close() error {
	fd := q.fd.Swap(-1)
	if fd < 0 {
		return closedError("close", q.name)
	}
	if err := mq_close(int(fd)); err != nil {
		return newResourceError("close", q.name, err)
	}
	q.logger.Debug("mq closed", zap.Int32("fd", fd))
	return nil
}

// Destroy closes the handle and removes the queue.
func (q *Queue) Destroy() error {
	if err := q.Close(); err != nil {
		return err
	}
	return q.Unlink()
}

// Unlink removes the queue name. Unlinking a queue, which does not exist,
// returns a *ResourceError matching os.ErrNotExist.
func Unlink(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := mq_unlink(sysName(name)); err != nil {
		return newResourceError("mq_unlink", name, err)
	}
	return nil
}

func (q *Queue) send(data []byte, deadline *time.Time) error {
	const op = "mq_timedsend"
	fd, err := q.descriptor(op)
	if err != nil {
		return err
	}
	err = common.UninterruptedSyscall(func() error {
		return mq_timedsend(fd, data, deadline)
	}, q.onRetry(op))
	switch {
	case err == nil:
		return nil
	case common.SyscallErrHasCode(err, syscall.EMSGSIZE):
		return &MessageTooLargeError{Name: q.name, MessageSize: len(data), MaxSize: q.msgSize, Cause: err}
	case common.IsTimeoutErr(err):
		return newTemporaryError(ErrQueueFull, err)
	default:
		return newResourceError(op, q.name, err)
	}
}

func (q *Queue) receive(deadline *time.Time) ([]byte, error) {
	buf := make([]byte, q.msgSize)
	n, err := q.receiveInto(buf, deadline)
	if err != nil {
		return nil, err
	}
	return buf[:n:n], nil
}

func (q *Queue) receiveInto(buf []byte, deadline *time.Time) (int, error) {
	const op = "mq_timedreceive"
	if len(buf) < q.msgSize {
		return 0, &ValidationError{
			Field:  "buffer size",
			Value:  strconv.Itoa(len(buf)),
			Reason: "must not be less than the max message size " + strconv.Itoa(q.msgSize),
		}
	}
	fd, err := q.descriptor(op)
	if err != nil {
		return 0, err
	}
	var n int
	err = common.UninterruptedSyscall(func() error {
		var err error
		n, err = mq_timedreceive(fd, buf, deadline)
		return err
	}, q.onRetry(op))
	switch {
	case err == nil:
		return n, nil
	case common.IsTimeoutErr(err):
		return 0, newTemporaryError(ErrQueueEmpty, err)
	default:
		return 0, newResourceError(op, q.name, err)
	}
}

// descriptor returns the descriptor, or an error if the handle is closed.
// A closed handle never reaches the kernel, as its descriptor number may have been reused.
func (q *Queue) descriptor(op string) (int, error) {
	fd := q.fd.Load()
	if fd < 0 {
		return -1, closedError(op, q.name)
	}
	return int(fd), nil
}

// defaultDeadline returns nil (block forever) for blocking handles,
// and 'now' for non-blocking ones.
func (q *Queue) defaultDeadline() *time.Time {
	if q.nonBlocking.Load() {
		return deadlineAfter(0)
	}
	return nil
}

func (q *Queue) contextDeadline(ctx context.Context) (*time.Time, error) {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		return &deadline, nil
	}
	return q.defaultDeadline(), nil
}

func (q *Queue) onRetry(op string) func(int) {
	return func(attempt int) {
		q.logger.Debug("interrupted mq syscall, retrying", zap.String("op", op), zap.Int("attempt", attempt))
	}
}

func deadlineAfter(timeout time.Duration) *time.Time {
	if timeout < 0 {
		timeout = 0
	}
	deadline := time.Now().Add(timeout)
	return &deadline
}
