// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mq provides access to POSIX message queues.
//
// A queue is a named, kernel-resident FIFO of discrete byte messages,
// which can be shared by unrelated processes. Queue is a handle to such an object:
//	q, err := mq.Open("/jobs", &mq.Config{MaxMessages: 8, MaxMessageSize: 1024})
//	...
//	err = q.Send([]byte("hello"))
//	msg, err := q.ReceiveTimeout(0) // returns ErrQueueEmpty instead of blocking
//
// Closing a handle never removes the queue, use Unlink for that.
// The library adds no locking of its own: the kernel serializes concurrent
// senders and receivers of all processes.
//
// Errors are typed:
//	*ValidationError - invalid parameters, nothing was done.
//	*MessageTooLargeError - the message exceeds the queue's limit.
//	ErrQueueFull, ErrQueueEmpty - expected results of non-blocking and timed calls.
//	*ResourceError - any other platform failure with its errno.
//
// Kernel queues are available on Linux only; on other platforms all operations
// fail with ENOSYS after parameters are validated.
package mq
