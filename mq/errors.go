// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

var (
	// ErrQueueFull is returned by non-blocking and timed sends,
	// if the queue had no free space before the deadline.
	ErrQueueFull = errors.New("mq: queue is full")
	// ErrQueueEmpty is returned by non-blocking and timed receives,
	// if the queue had no messages before the deadline.
	ErrQueueEmpty = errors.New("mq: queue is empty")
	// ErrClosed matches errors returned by operations on a closed handle.
	ErrClosed = errors.New("mq: handle is closed")
)

// ValidationError is returned, when a caller-supplied parameter violates a precondition.
// Nothing is created or changed in the kernel, when it is returned.
//
// It wraps syscall.EINVAL, which is what the platform reports for the same mistakes.
type ValidationError struct {
	// Field is the name of the invalid parameter.
	Field string
	// Value is the printable form of the rejected value.
	Value string
	// Reason describes the violated rule.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mq: invalid %s %s: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns syscall.EINVAL.
func (e *ValidationError) Unwrap() error {
	return syscall.EINVAL
}

// MessageTooLargeError is returned by send operations,
// when the message is larger than the queue's max message size.
// The message is not enqueued.
type MessageTooLargeError struct {
	Name        string
	MessageSize int
	// MaxSize is the max message size of the queue,
	// as it was read when the handle was opened.
	MaxSize int
	// Cause is syscall.EMSGSIZE for kernel queues.
	Cause error
}

func (e *MessageTooLargeError) Error() string {
	msg := fmt.Sprintf("mq: message too large for %s (%d > %d)", e.Name, e.MessageSize, e.MaxSize)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *MessageTooLargeError) Unwrap() error {
	return e.Cause
}

// ResourceError wraps any other platform failure.
// The platform error code is preserved in Errno, so
//	errors.Is(err, syscall.EACCES)
//	errors.Is(err, os.ErrNotExist)
// work as expected.
type ResourceError struct {
	// Op is the failed system call, like "mq_open".
	Op    string
	Name  string
	Errno syscall.Errno
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("mq: %s %s: %v", e.Op, e.Name, e.Errno)
}

// Unwrap returns the platform error code.
func (e *ResourceError) Unwrap() error {
	return e.Errno
}

// Is makes every EBADF resource error match ErrClosed.
func (e *ResourceError) Is(target error) bool {
	return target == ErrClosed && e.Errno == syscall.EBADF
}

// temporaryError is returned, when a timed operation could not complete in time.
// It matches both its kind (ErrQueueFull or ErrQueueEmpty) and the platform code.
type temporaryError struct {
	kind  error
	cause error
}

func newTemporaryError(kind, cause error) *temporaryError {
	return &temporaryError{kind: kind, cause: cause}
}

func (e *temporaryError) Temporary() bool {
	return true
}

func (e *temporaryError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *temporaryError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// IsTemporary returns true, if the error is an expected signal from
// a non-blocking or a timed operation, i.e. the queue was full or empty.
// Callers are expected to handle such errors as control flow.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueEmpty)
}

// newResourceError converts an error from a system call into the library's taxonomy.
func newResourceError(op, name string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &ResourceError{Op: op, Name: name, Errno: errno}
	}
	return errors.Wrapf(err, "mq: %s %s", op, name)
}

func closedError(op, name string) error {
	return &ResourceError{Op: op, Name: name, Errno: syscall.EBADF}
}
