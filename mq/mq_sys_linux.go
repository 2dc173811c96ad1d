// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux
// +build linux

package mq

import (
	"os"
	"time"
	"unsafe"

	"github.com/nxgtw/go-mqueue/internal/allocator"
	"github.com/nxgtw/go-mqueue/internal/common"

	"golang.org/x/sys/unix"
)

// syscalls

func mq_open(name string, create bool, perm os.FileMode, attrs *mqAttr) (int, error) {
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if create {
		flags |= unix.O_CREAT | unix.O_EXCL
	}
	nameBytes, err := allocator.CStringPtr(name)
	if err != nil {
		return -1, err
	}
	attrsP := unsafe.Pointer(attrs)
	id, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(nameBytes),
		uintptr(flags),
		uintptr(perm.Perm()),
		uintptr(attrsP),
		0,
		0)
	allocator.Use(nameBytes)
	allocator.Use(attrsP)
	if errno != 0 {
		return -1, errno
	}
	return int(id), nil
}

func mq_timedsend(id int, data []byte, deadline *time.Time) error {
	rawData := allocator.ByteSliceData(data)
	timeoutPtr := unsafe.Pointer(common.DeadlineToTimeSpec(deadline))
	_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(id),
		uintptr(rawData),
		uintptr(len(data)),
		0, // priority
		uintptr(timeoutPtr),
		0)
	allocator.Use(rawData)
	allocator.Use(timeoutPtr)
	if errno != 0 {
		return errno
	}
	return nil
}

func mq_timedreceive(id int, data []byte, deadline *time.Time) (int, error) {
	rawData := allocator.ByteSliceData(data)
	timeoutPtr := unsafe.Pointer(common.DeadlineToTimeSpec(deadline))
	msgSize, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(id),
		uintptr(rawData),
		uintptr(len(data)),
		0, // priority is not needed
		uintptr(timeoutPtr),
		0)
	allocator.Use(rawData)
	allocator.Use(timeoutPtr)
	if errno != 0 {
		return 0, errno
	}
	return int(msgSize), nil
}

func mq_getattr(id int) (*mqAttr, error) {
	attrs := new(mqAttr)
	attrsPtr := unsafe.Pointer(attrs)
	_, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR,
		uintptr(id),
		0,
		uintptr(attrsPtr))
	allocator.Use(attrsPtr)
	if errno != 0 {
		return nil, errno
	}
	return attrs, nil
}

func mq_unlink(name string) error {
	nameBytes, err := allocator.CStringPtr(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(nameBytes), 0, 0)
	allocator.Use(nameBytes)
	if errno != 0 {
		return errno
	}
	return nil
}

func mq_close(id int) error {
	return unix.Close(id)
}
