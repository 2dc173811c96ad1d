// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLimitFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestReadLimits(t *testing.T) {
	a := assert.New(t)
	dir := writeLimitFiles(t, map[string]string{
		"msg_default":     "12\n",
		"msgsize_default": "4096\n",
		"msg_max":         "20\n",
		"msgsize_max":     "16384\n",
		"queues_max":      "128\n",
	})
	limits, err := readLimits(dir)
	if !a.NoError(err) {
		return
	}
	a.Equal(Limits{
		DefaultMaxMessages:    12,
		DefaultMaxMessageSize: 4096,
		MaxMessages:           20,
		MaxMessageSize:        16384,
		MaxQueues:             128,
	}, limits)
}

func TestReadLimitsOldKernel(t *testing.T) {
	a := assert.New(t)
	// kernels before 3.5 have no *_default files.
	dir := writeLimitFiles(t, map[string]string{
		"msg_max":     "10",
		"msgsize_max": "8192",
		"queues_max":  "256",
	})
	limits, err := readLimits(dir)
	a.NoError(err)
	a.EqualValues(DefaultLinuxMqMaxSize, limits.DefaultMaxMessages)
	a.EqualValues(DefaultLinuxMqMessageSize, limits.DefaultMaxMessageSize)
}

func TestReadLimitsErrors(t *testing.T) {
	a := assert.New(t)
	_, err := readLimits(filepath.Join(t.TempDir(), "missing"))
	a.Error(err)
	dir := writeLimitFiles(t, map[string]string{"msg_max": "lots"})
	_, err = readLimits(dir)
	a.Error(err)
}

func TestPlatformLimits(t *testing.T) {
	limits := PlatformLimits()
	assert.True(t, limits.DefaultMaxMessages > 0)
	assert.True(t, limits.DefaultMaxMessageSize > 0)
}
