// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package testutil contains helpers for tests, which need other processes.
package testutil

import (
	"bytes"
	"context"
	"encoding/hex"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TestAppResult is a result of a 'go run' program launch.
type TestAppResult struct {
	Output string
	Err    error
}

// StringToBytes takes an input string in a 2-hex-symbol per byte format
// and returns corresponding byte array. An empty string is an empty message.
func StringToBytes(input string) ([]byte, error) {
	b, err := hex.DecodeString(input)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid byte string %q", input)
	}
	return b, nil
}

// BytesToString converts a byte slice into its upper-case hex representation.
func BytesToString(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

func startTestApp(ctx context.Context, args []string) (*exec.Cmd, *bytes.Buffer, error) {
	cmd := exec.CommandContext(ctx, "go", append([]string{"run"}, args...)...)
	buff := bytes.NewBuffer(nil)
	cmd.Stderr = buff
	cmd.Stdout = buff
	if err := cmd.Start(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to start test app")
	}
	return cmd, buff, nil
}

func waitForCommand(cmd *exec.Cmd, buff *bytes.Buffer) TestAppResult {
	result := TestAppResult{}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = errors.Errorf("%v, exit code = %d", err, exitErr.ExitCode())
		}
		result.Err = err
	}
	result.Output = buff.String()
	return result
}

// RunTestApp runs a go program via 'go run' and waits for it.
// The process is killed, when ctx is done.
func RunTestApp(ctx context.Context, args ...string) TestAppResult {
	cmd, buff, err := startTestApp(ctx, args)
	if err != nil {
		return TestAppResult{Err: err}
	}
	return waitForCommand(cmd, buff)
}

// RunTestAppAsync starts a go program via 'go run' and returns immediately.
// The process is killed, when ctx is done.
// To wait for the program to finish, receive on the returned chan.
func RunTestAppAsync(ctx context.Context, args ...string) <-chan TestAppResult {
	ch := make(chan TestAppResult, 1)
	cmd, buff, err := startTestApp(ctx, args)
	if err != nil {
		ch <- TestAppResult{Err: err}
		return ch
	}
	go func() {
		ch <- waitForCommand(cmd, buff)
	}()
	return ch
}

// WaitForFunc calls f asynchronously leaving it some time to finish.
// It returns true, if f completed.
func WaitForFunc(f func(), d time.Duration) bool {
	ch := make(chan struct{})
	go func() {
		f()
		close(ch)
	}()
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

// WaitForAppResultChan waits for a value from ch with a timeout.
func WaitForAppResultChan(ch <-chan TestAppResult, d time.Duration) (TestAppResult, bool) {
	select {
	case value := <-ch:
		return value, true
	case <-time.After(d):
		return TestAppResult{}, false
	}
}
