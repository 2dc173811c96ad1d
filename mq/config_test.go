// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestParseConfig(t *testing.T) {
	for _, c := range []struct {
		label string
		yaml  string
		want  Config
	}{
		{
			label: "empty",
			yaml:  "{}",
			want:  Config{},
		},
		{
			label: "full",
			yaml: `
maxMessages: 16
maxMessageSize: 4096
mode: createOnly
perm: 0640
nonBlocking: true
`,
			want: Config{
				MaxMessages:    16,
				MaxMessageSize: 4096,
				Mode:           CreateOnly,
				Perm:           0640,
				NonBlocking:    true,
			},
		},
		{
			label: "open-only",
			yaml:  "mode: openOnly",
			want:  Config{Mode: OpenOnly},
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			got, err := ParseConfig([]byte(c.yaml))
			if err != nil {
				t.Fatalf("ParseConfig returned error: %v", err)
			}
			if diff := cmp.Diff(c.want, got, cmpopts.IgnoreFields(Config{}, "Logger")); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	for _, c := range []struct {
		label      string
		yaml       string
		validation bool
	}{
		{label: "unknown-key", yaml: "maxMsg: 10"},
		{label: "unknown-mode", yaml: "mode: sometimes"},
		{label: "bad-type", yaml: "maxMessages: many"},
		{label: "negative-size", yaml: "maxMessageSize: -1", validation: true},
		{label: "negative-count", yaml: "maxMessages: -5", validation: true},
		{label: "exec-perm", yaml: "perm: 0755", validation: true},
	} {
		t.Run(c.label, func(t *testing.T) {
			_, err := ParseConfig([]byte(c.yaml))
			if !assert.Error(t, err) {
				return
			}
			if c.validation {
				assert.ErrorAs(t, err, new(*ValidationError))
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	a := assert.New(t)
	a.NoError((&Config{}).Validate())
	a.NoError((&Config{MaxMessages: 1, MaxMessageSize: 1, Perm: 0666}).Validate())
	a.Error((&Config{Perm: 0700}).Validate())
	a.Error((&Config{Perm: os.ModeDir | 0600}).Validate())
	a.Error((&Config{Mode: OpenMode(7)}).Validate())
}

func TestOpenModeYAML(t *testing.T) {
	a := assert.New(t)
	for mode, name := range openModeNames {
		out, err := yaml.Marshal(mode)
		a.NoError(err)
		a.Equal(name+"\n", string(out))
		var decoded OpenMode
		a.NoError(yaml.Unmarshal(out, &decoded))
		a.Equal(mode, decoded)
	}
	a.Equal("OpenMode(9)", OpenMode(9).String())
}

func TestConfigDefaults(t *testing.T) {
	a := assert.New(t)
	cfg := &Config{}
	a.Equal(DefaultPerm, cfg.perm())
	a.NotNil(cfg.logger())
	a.Nil(cfg.creationAttrs())

	cfg = &Config{MaxMessages: 3, MaxMessageSize: 100, Perm: 0644}
	a.Equal(os.FileMode(0644), cfg.perm())
	attrs := cfg.creationAttrs()
	if a.NotNil(attrs) {
		a.Equal(3, attrs.Maxmsg)
		a.Equal(100, attrs.Msgsize)
	}

	limits := PlatformLimits()
	attrs = (&Config{MaxMessageSize: 100}).creationAttrs()
	if a.NotNil(attrs) {
		a.EqualValues(min(limits.DefaultMaxMessages, limits.MaxMessages), attrs.Maxmsg)
		a.Equal(100, attrs.Msgsize)
	}
	attrs = (&Config{MaxMessages: 3}).creationAttrs()
	if a.NotNil(attrs) {
		a.Equal(3, attrs.Maxmsg)
		a.EqualValues(min(limits.DefaultMaxMessageSize, limits.MaxMessageSize), attrs.Msgsize)
	}
}

func TestFillDefaultAttrs(t *testing.T) {
	a := assert.New(t)
	limits := Limits{
		DefaultMaxMessages:    10,
		DefaultMaxMessageSize: 8192,
		MaxMessages:           20,
		MaxMessageSize:        16384,
	}
	attrs := &mqAttr{Msgsize: 100}
	fillDefaultAttrs(attrs, limits)
	a.Equal(10, attrs.Maxmsg)
	a.Equal(100, attrs.Msgsize)

	attrs = &mqAttr{Maxmsg: 3}
	fillDefaultAttrs(attrs, limits)
	a.Equal(3, attrs.Maxmsg)
	a.Equal(8192, attrs.Msgsize)

	// defaults above the max values are capped, as the kernel does for its own defaults.
	limits.MaxMessages = 5
	limits.MaxMessageSize = 1024
	attrs = &mqAttr{Msgsize: 100}
	fillDefaultAttrs(attrs, limits)
	a.Equal(5, attrs.Maxmsg)
	attrs = &mqAttr{Maxmsg: 3}
	fillDefaultAttrs(attrs, limits)
	a.Equal(1024, attrs.Msgsize)
}
