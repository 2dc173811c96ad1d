// Copyright 2016 Aleksandr Demakin. All rights reserved.

package testutil

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStringToBytes(t *testing.T) {
	a := assert.New(t)
	data := []struct {
		in  string
		out []byte
	}{
		{in: "", out: []byte{}},
		{in: "00", out: []byte{0}},
		{in: "010203", out: []byte{1, 2, 3}},
		{in: "0aFF", out: []byte{0x0a, 0xff}},
	}
	for _, d := range data {
		b, err := StringToBytes(d.in)
		a.NoError(err, d.in)
		a.Equal(d.out, b, d.in)
	}
	for _, in := range []string{"1", "0G", "x0"} {
		_, err := StringToBytes(in)
		a.Error(err, in)
	}
}

func TestBytesToString(t *testing.T) {
	a := assert.New(t)
	a.Equal("", BytesToString(nil))
	a.Equal("000A10FF", BytesToString([]byte{0, 10, 16, 255}))
	b, err := StringToBytes(BytesToString([]byte("hello")))
	a.NoError(err)
	a.Equal([]byte("hello"), b)
}

func TestWaitForFunc(t *testing.T) {
	a := assert.New(t)
	a.True(WaitForFunc(func() {}, time.Second))
	block := make(chan struct{})
	defer close(block)
	a.False(WaitForFunc(func() { <-block }, 10*time.Millisecond))
}

func TestWaitForAppResultChan(t *testing.T) {
	a := assert.New(t)
	ch := make(chan TestAppResult, 1)
	_, ok := WaitForAppResultChan(ch, 10*time.Millisecond)
	a.False(ok)
	ch <- TestAppResult{Output: "done", Err: errors.New("failed")}
	result, ok := WaitForAppResultChan(ch, time.Second)
	a.True(ok)
	a.Equal("done", result.Output)
	a.EqualError(result.Err, "failed")
}
