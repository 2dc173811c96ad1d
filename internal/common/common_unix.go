// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

package common

import (
	"time"

	"golang.org/x/sys/unix"
)

// DeadlineToTimeSpec converts an absolute deadline into a timespec.
// A nil deadline means 'wait forever' and is converted into a nil timespec.
func DeadlineToTimeSpec(deadline *time.Time) *unix.Timespec {
	if deadline == nil {
		return nil
	}
	ts := unix.NsecToTimespec(deadline.UnixNano())
	return &ts
}
