// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineToTimeSpec(t *testing.T) {
	a := assert.New(t)
	a.Nil(DeadlineToTimeSpec(nil))
	deadline := time.Unix(1500, 250)
	ts := DeadlineToTimeSpec(&deadline)
	if a.NotNil(ts) {
		a.EqualValues(1500, ts.Sec)
		a.EqualValues(250, ts.Nsec)
	}
}
