// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, uint8(1), c.Version)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "logfmt", c.LogFormat)
}

func TestSocketFromEnv(t *testing.T) {
	t.Setenv(socketEnvVar, "/run/lnetyaml.sock")
	c := NewConfig()
	assert.Equal(t, "/run/lnetyaml.sock", c.Socket)
}

func TestRegisterCommonFlagsOverridesDefault(t *testing.T) {
	c := NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterCommonFlags(flags)
	require.NoError(t, flags.Parse([]string{"--version", "3", "--log-level", "debug"}))
	assert.Equal(t, uint8(3), c.Version)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestRegisterStreamAndFlagsFlags(t *testing.T) {
	c := NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterStreamFlag(flags)
	c.RegisterFlagsFlag(flags)
	require.NoError(t, flags.Parse([]string{"--stream", "--flags", "2"}))
	assert.True(t, c.Stream)
	assert.Equal(t, uint16(2), c.Flags)
}
