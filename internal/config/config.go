// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package config holds CLI flag values shared by cmd/lnetyaml's get and
// set subcommands, grounded on the Config/RegisterFlags(*pflag.FlagSet)
// pattern used throughout the pack for cobra-fronted tools.
package config

import (
	"os"

	"github.com/spf13/pflag"
)

// socketEnvVar supplies the initial value of Config.Socket, read once
// when NewConfig runs. cmd/lnetyaml does not pass Config.Socket to
// transport.Open, so neither it nor --socket changes which socket is
// opened.
const socketEnvVar = "LNETYAML_SOCKET"

// defaultSocket is the value Config.Socket takes when LNETYAML_SOCKET is
// unset: a real netlink socket has no filesystem path.
const defaultSocket = ""

// Config holds flag values for both subcommands. Not every field
// applies to both: Stream and Flags are get/set-specific respectively.
type Config struct {
	Socket    string
	Version   uint8
	Stream    bool
	Flags     uint16
	LogLevel  string
	LogFormat string
}

// NewConfig returns a Config with the defaults spec §6 names: version 1,
// text logging at info level, and the socket resolved from the
// environment if the flag is left at its zero value.
func NewConfig() *Config {
	return &Config{
		Socket:    socketFromEnv(),
		Version:   1,
		LogLevel:  "info",
		LogFormat: "logfmt",
	}
}

func socketFromEnv() string {
	if v, ok := os.LookupEnv(socketEnvVar); ok {
		return v
	}
	return defaultSocket
}

// RegisterCommonFlags adds the flags shared by get and set: --socket,
// --version, --log-level, --log-format.
func (c *Config) RegisterCommonFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Socket, "socket", c.Socket, "netlink socket path (defaults to $LNETYAML_SOCKET; not used by get or set)")
	flags.Uint8Var(&c.Version, "version", c.Version, "generic-netlink family version")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (json, logfmt)")
}

// RegisterStreamFlag adds --stream, used only by the get subcommand.
func (c *Config) RegisterStreamFlag(flags *pflag.FlagSet) {
	flags.BoolVar(&c.Stream, "stream", c.Stream, "keep the session open for asynchronous events")
}

// RegisterFlagsFlag adds --flags, used only by the set subcommand.
func (c *Config) RegisterFlagsFlag(flags *pflag.FlagSet) {
	flags.Uint16Var(&c.Flags, "flags", c.Flags, "generic-netlink message flags")
}
