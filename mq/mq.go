// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"io"
	"time"
)

// Messenger is an interface which must be satisfied by any
// message queue implementation on any platform.
type Messenger interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	io.Closer
}

// TimedMessenger is a Messenger, which supports send/receive timeouts.
// A zero timeout makes the call fail immediately with ErrQueueFull
// or ErrQueueEmpty instead of blocking.
type TimedMessenger interface {
	Messenger
	SendTimeout(data []byte, timeout time.Duration) error
	ReceiveTimeout(timeout time.Duration) ([]byte, error)
}

// Sizer reports the number of messages currently stored in a queue.
type Sizer interface {
	Size() (int, error)
}

// this is to ensure, that the kernel queue satisfies queue interfaces.
var (
	_ TimedMessenger = (*Queue)(nil)
	_ Sizer          = (*Queue)(nil)
)
