// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nxgtw/go-mqueue/internal/common"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DefaultPerm is the permission used for new queues, if Config.Perm is 0.
const DefaultPerm os.FileMode = 0600

// OpenMode defines what Open does, depending on whether the queue exists.
type OpenMode int

const (
	// OpenOrCreate creates the queue, if it does not exist, and attaches to it otherwise.
	OpenOrCreate OpenMode = common.ModeOpenOrCreate
	// CreateOnly creates a new queue and fails, if it already exists.
	CreateOnly OpenMode = common.ModeCreateOnly
	// OpenOnly attaches to an existing queue and fails, if it does not exist.
	OpenOnly OpenMode = common.ModeOpenOnly
)

var openModeNames = map[OpenMode]string{
	OpenOrCreate: "openOrCreate",
	CreateOnly:   "createOnly",
	OpenOnly:     "openOnly",
}

func (m OpenMode) String() string {
	if name, ok := openModeNames[m]; ok {
		return name
	}
	return "OpenMode(" + strconv.Itoa(int(m)) + ")"
}

var (
	_ yaml.Unmarshaler = (*OpenMode)(nil)
	_ yaml.Marshaler   = OpenMode(0)
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *OpenMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	for mode, name := range openModeNames {
		if name == s {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown open mode %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (m OpenMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Config holds parameters for Open. The zero value is valid:
// open or create the queue with platform default attributes.
//
// MaxMessages and MaxMessageSize are applied only when the queue is created.
// When attaching to an existing queue they are ignored.
type Config struct {
	// MaxMessages is the max number of messages the queue may hold at once.
	// 0 means the platform default.
	MaxMessages int64 `yaml:"maxMessages"`

	// MaxMessageSize is the max size of a single message in bytes.
	// 0 means the platform default.
	MaxMessageSize int64 `yaml:"maxMessageSize"`

	Mode OpenMode `yaml:"mode"`

	// Perm is the permission of a created queue, DefaultPerm if 0.
	// Execute bits are not allowed.
	Perm os.FileMode `yaml:"perm"`

	// NonBlocking makes Send and Receive on the handle fail with
	// ErrQueueFull/ErrQueueEmpty instead of blocking.
	NonBlocking bool `yaml:"nonBlocking"`

	// Logger receives debug events of the handle. nil disables logging.
	Logger *zap.Logger `yaml:"-"`
}

// ParseConfig decodes a yaml document into a Config and validates it.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "mq: failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config without touching the kernel.
func (cfg *Config) Validate() error {
	if cfg.MaxMessages < 0 {
		return &ValidationError{
			Field:  "max messages",
			Value:  strconv.FormatInt(cfg.MaxMessages, 10),
			Reason: "must be positive, or 0 for the platform default",
		}
	}
	if cfg.MaxMessageSize < 0 {
		return &ValidationError{
			Field:  "max message size",
			Value:  strconv.FormatInt(cfg.MaxMessageSize, 10),
			Reason: "must be positive, or 0 for the platform default",
		}
	}
	if !checkMqPerm(cfg.Perm) {
		return &ValidationError{
			Field:  "permissions",
			Value:  cfg.Perm.String(),
			Reason: "only read and write permission bits are allowed",
		}
	}
	if _, ok := openModeNames[cfg.Mode]; !ok {
		return &ValidationError{
			Field:  "open mode",
			Value:  cfg.Mode.String(),
			Reason: "unknown mode",
		}
	}
	return nil
}

func (cfg *Config) perm() os.FileMode {
	if cfg.Perm == 0 {
		return DefaultPerm
	}
	return cfg.Perm
}

func (cfg *Config) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}

func (cfg *Config) hasAttrs() bool {
	return cfg.MaxMessages != 0 || cfg.MaxMessageSize != 0
}

// creationAttrs returns attributes for a new queue.
// If none were set, it returns nil, and the kernel applies its own defaults.
// If only one was set, the other is taken from the platform defaults,
// capped by the platform max, as the kernel requires both of them.
func (cfg *Config) creationAttrs() *mqAttr {
	if !cfg.hasAttrs() {
		return nil
	}
	attrs := &mqAttr{Maxmsg: int(cfg.MaxMessages), Msgsize: int(cfg.MaxMessageSize)}
	if attrs.Maxmsg == 0 || attrs.Msgsize == 0 {
		fillDefaultAttrs(attrs, PlatformLimits())
	}
	return attrs
}

// fillDefaultAttrs sets zero attributes to the platform defaults.
// The kernel caps its own defaults by the max values in the same way.
func fillDefaultAttrs(attrs *mqAttr, limits Limits) {
	if attrs.Maxmsg == 0 {
		attrs.Maxmsg = int(min(limits.DefaultMaxMessages, limits.MaxMessages))
	}
	if attrs.Msgsize == 0 {
		attrs.Msgsize = int(min(limits.DefaultMaxMessageSize, limits.MaxMessageSize))
	}
}

func checkMqPerm(perm os.FileMode) bool {
	return uint32(perm)&^0666 == 0
}
