// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package allocator contains helpers for passing Go memory to raw syscalls.
package allocator

import (
	"runtime"
	"syscall"
	"unsafe"
)

// ByteSliceData returns a pointer to the data of the given byte slice.
// For an empty slice it returns nil, which the kernel accepts together
// with a zero length.
func ByteSliceData(slice []byte) unsafe.Pointer {
	if len(slice) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(slice))
}

// CStringPtr returns a pointer to a NUL-terminated copy of s.
// It fails, if s contains a NUL byte.
func CStringPtr(s string) (unsafe.Pointer, error) {
	b, err := syscall.BytePtrFromString(s)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(b), nil
}

// Use ensures, that p is kept live until that point.
// Pointers converted to uintptr for a syscall must be kept alive
// until the syscall returns.
func Use(p unsafe.Pointer) {
	runtime.KeepAlive(p)
}
