// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build !linux
// +build !linux

package mq

import (
	"os"
	"syscall"
	"time"
)

// posix message queues are a linux kernel facility here.

func mq_open(name string, create bool, perm os.FileMode, attrs *mqAttr) (int, error) {
	return -1, syscall.ENOSYS
}

func mq_timedsend(id int, data []byte, deadline *time.Time) error {
	return syscall.ENOSYS
}

func mq_timedreceive(id int, data []byte, deadline *time.Time) (int, error) {
	return 0, syscall.ENOSYS
}

func mq_getattr(id int) (*mqAttr, error) {
	return nil, syscall.ENOSYS
}

func mq_unlink(name string) error {
	return syscall.ENOSYS
}

func mq_close(id int) error {
	return syscall.ENOSYS
}
