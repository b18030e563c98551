// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Command lnetyaml is a netlink/YAML bridge: get streams a generic-netlink
// family's current state out as YAML, set reads YAML from stdin and pushes
// it back in as a single outbound message.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chaos/lnetyaml/internal/config"
	"github.com/chaos/lnetyaml/internal/logging"
	"github.com/chaos/lnetyaml/internal/session"
	"github.com/chaos/lnetyaml/internal/transport"
)

// parseCommand validates a command-line <command> argument, shared by
// both subcommands.
func parseCommand(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("lnetyaml: invalid command %q: %w", s, err)
	}
	return uint8(v), nil
}

func main() {
	root := &cobra.Command{
		Use:           "lnetyaml",
		Short:         "Bridge a generic-netlink family to YAML",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newGetCommand(), newSetCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newGetCommand() *cobra.Command {
	cfg := config.NewConfig()
	cmd := &cobra.Command{
		Use:           "get <family> <command>",
		Short:         "Stream a generic-netlink family's current state out as YAML",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runGet(cfg, args[0], args[1])
		},
	}
	cfg.RegisterCommonFlags(cmd.Flags())
	cfg.RegisterStreamFlag(cmd.Flags())
	return cmd
}

func newSetCommand() *cobra.Command {
	cfg := config.NewConfig()
	cmd := &cobra.Command{
		Use:           "set <family> <command>",
		Short:         "Read YAML from stdin and push it to a generic-netlink family",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runSet(cfg, args[0], args[1])
		},
	}
	cfg.RegisterCommonFlags(cmd.Flags())
	cfg.RegisterFlagsFlag(cmd.Flags())
	return cmd
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	h, err := logging.NewHandler(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func runGet(cfg *config.Config, family, command string) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	cmdByte, err := parseCommand(command)
	if err != nil {
		return err
	}

	conn, err := transport.Open(family)
	if err != nil {
		return fmt.Errorf("lnetyaml: open %s: %w", family, err)
	}
	defer conn.Close()

	logger.Info("get", "family", family, "command", cmdByte, "stream", cfg.Stream)
	return doGet(cfg, conn, os.Stdout)
}

func runSet(cfg *config.Config, family, command string) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	cmdByte, err := parseCommand(command)
	if err != nil {
		return err
	}

	conn, err := transport.Open(family)
	if err != nil {
		return fmt.Errorf("lnetyaml: open %s: %w", family, err)
	}
	defer conn.Close()

	logger.Info("set", "family", family, "command", cmdByte, "flags", cfg.Flags)
	return doSet(cfg, conn, cmdByte, os.Stdin)
}

// doGet drives a reader session over conn, decoding its YAML output
// through a full yaml.v3 round trip (validating well-formedness, spec
// §9 testable invariant 2) before re-encoding it canonically to out.
func doGet(cfg *config.Config, conn transport.Conn, out io.Writer) error {
	s, err := session.AttachReader(conn, cfg.Stream)
	if err != nil {
		return fmt.Errorf("lnetyaml: attach reader: %w", err)
	}
	defer s.Close()

	dec := yaml.NewDecoder(s.Reader())
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()

	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			if readErr := s.Reader().LastError(); readErr != nil {
				return readErr
			}
			return fmt.Errorf("lnetyaml: decode: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("lnetyaml: encode: %w", err)
		}
	}
	return nil
}

// doSet decodes one YAML document from in and re-encodes it through
// yaml.v3's canonical 2-space-indent style into a writer session over
// conn, stamped with command and cfg's version/flags.
func doSet(cfg *config.Config, conn transport.Conn, command uint8, in io.Reader) error {
	s, err := session.AttachWriter(conn, conn.FamilyID(), cfg.Version, command, cfg.Flags)
	if err != nil {
		return fmt.Errorf("lnetyaml: attach writer: %w", err)
	}
	defer s.Close()

	var doc any
	dec := yaml.NewDecoder(in)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("lnetyaml: decode stdin: %w", err)
	}

	enc := yaml.NewEncoder(s.Writer())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("lnetyaml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lnetyaml: encode: %w", err)
	}
	// A blank line is the outbound transcoder's signal to send the message.
	if _, err := s.Writer().Write([]byte("\n")); err != nil {
		return err
	}
	if werr := s.Writer().LastError(); werr != nil {
		return werr
	}
	return nil
}
