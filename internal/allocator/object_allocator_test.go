// Copyright 2015 Aleksandr Demakin. All rights reserved.

package allocator

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestByteSliceData(t *testing.T) {
	a := assert.New(t)
	a.Nil(ByteSliceData(nil))
	a.Nil(ByteSliceData([]byte{}))
	data := []byte{1, 2, 3}
	p := ByteSliceData(data)
	a.Equal(unsafe.Pointer(&data[0]), p)
	a.Equal(byte(1), *(*byte)(p))
	Use(p)
}

func TestByteSliceDataSubslice(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	p := ByteSliceData(data[2:])
	assert.Equal(t, byte(3), *(*byte)(p))
}

func TestCStringPtr(t *testing.T) {
	a := assert.New(t)
	p, err := CStringPtr("abc")
	if !a.NoError(err) {
		return
	}
	raw := unsafe.Slice((*byte)(p), 4)
	a.Equal([]byte{'a', 'b', 'c', 0}, raw)
	_, err = CStringPtr("a\x00b")
	a.Error(err)
}
