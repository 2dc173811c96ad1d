// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Compiled-in kernel defaults, used only if procfs cannot be read.
// Source: include/linux/ipc_namespace.h
const (
	// DefaultLinuxMqMaxSize is the default linux mq queue size.
	DefaultLinuxMqMaxSize = 10
	// DefaultLinuxMqMessageSize is the default linux mq message size.
	DefaultLinuxMqMessageSize = 8192
	// DefaultLinuxMqMaxQueues is the default limit of queues in the system.
	DefaultLinuxMqMaxQueues = 256
)

// LinuxMqProcDir is where linux exposes the mq limits.
const LinuxMqProcDir = "/proc/sys/fs/mqueue"

// Limits describes platform defaults and caps for message queues.
// Unprivileged processes cannot create queues exceeding MaxMessages or MaxMessageSize.
type Limits struct {
	// DefaultMaxMessages is used for a new queue, if its capacity is not set.
	DefaultMaxMessages int64
	// DefaultMaxMessageSize is used for a new queue, if its message size is not set.
	DefaultMaxMessageSize int64
	MaxMessages           int64
	MaxMessageSize        int64
	MaxQueues             int64
}

// ReadLimits reads the current limits from procfs.
// Fields, for which procfs has no file (older kernels lack the *_default ones),
// keep the compiled-in defaults.
func ReadLimits() (Limits, error) {
	return readLimits(LinuxMqProcDir)
}

// PlatformLimits returns ReadLimits result, or the compiled-in defaults if procfs is unavailable.
func PlatformLimits() Limits {
	limits, err := ReadLimits()
	if err != nil {
		return defaultLimits()
	}
	return limits
}

func defaultLimits() Limits {
	return Limits{
		DefaultMaxMessages:    DefaultLinuxMqMaxSize,
		DefaultMaxMessageSize: DefaultLinuxMqMessageSize,
		MaxMessages:           DefaultLinuxMqMaxSize,
		MaxMessageSize:        DefaultLinuxMqMessageSize,
		MaxQueues:             DefaultLinuxMqMaxQueues,
	}
}

func readLimits(dir string) (Limits, error) {
	if _, err := os.Stat(dir); err != nil {
		return Limits{}, errors.Wrap(err, "mq limits are not available")
	}
	limits := defaultLimits()
	fields := []struct {
		file string
		dst  *int64
	}{
		{"msg_default", &limits.DefaultMaxMessages},
		{"msgsize_default", &limits.DefaultMaxMessageSize},
		{"msg_max", &limits.MaxMessages},
		{"msgsize_max", &limits.MaxMessageSize},
		{"queues_max", &limits.MaxQueues},
	}
	for _, f := range fields {
		value, err := readLimitFile(filepath.Join(dir, f.file))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Limits{}, err
		}
		*f.dst = value
	}
	return limits, nil
}

func readLimitFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value in %s", path)
	}
	return value, nil
}
