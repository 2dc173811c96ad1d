// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package common contains helpers shared by the syscall-level code.
package common

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Open modes understood by OpenOrCreate.
const (
	ModeOpenOrCreate = iota
	ModeCreateOnly
	ModeOpenOnly
)

// openOrCreateAttempts bounds the create/open race with a concurrent unlink.
const openOrCreateAttempts = 16

// OpenOrCreate calls creator according to the mode and returns whether
// the object was created.
// creator(true) must create the object exclusively, creator(false) must
// open an existing one.
// For ModeOpenOrCreate it alternates exclusive creation and opening,
// so that a concurrent create or unlink by another process does not fail the call.
func OpenOrCreate(creator func(create bool) error, mode int) (bool, error) {
	switch mode {
	case ModeOpenOnly:
		return false, creator(false)
	case ModeCreateOnly:
		if err := creator(true); err != nil {
			return false, err
		}
		return true, nil
	case ModeOpenOrCreate:
		var err error
		for attempt := 0; attempt < openOrCreateAttempts; attempt++ {
			if err = creator(true); !errors.Is(err, os.ErrExist) {
				return err == nil, err
			}
			if err = creator(false); !errors.Is(err, os.ErrNotExist) {
				return false, err
			}
		}
		return false, err
	default:
		return false, errors.Errorf("unknown open mode %d", mode)
	}
}

// SyscallErrHasCode returns true, if err is, or wraps, the given errno.
func SyscallErrHasCode(err error, code syscall.Errno) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == code
	}
	return false
}

// IsInterruptedSyscallErr returns true, if the syscall was interrupted by a signal.
func IsInterruptedSyscallErr(err error) bool {
	return SyscallErrHasCode(err, syscall.EINTR)
}

// IsTimeoutErr returns true, if a timed or a non-blocking syscall could not complete in time.
func IsTimeoutErr(err error) bool {
	return SyscallErrHasCode(err, syscall.ETIMEDOUT) || SyscallErrHasCode(err, syscall.EAGAIN)
}

// UninterruptedSyscall calls f until it returns an error other than EINTR.
// onRetry, if not nil, is called before every retry.
// Timed syscalls must use absolute deadlines, so that retries do not extend the wait.
func UninterruptedSyscall(f func() error, onRetry func(attempt int)) error {
	for attempt := 1; ; attempt++ {
		err := f()
		if !IsInterruptedSyscallErr(err) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt)
		}
	}
}
