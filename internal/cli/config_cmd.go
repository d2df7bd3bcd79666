// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/completion"
	"github.com/jeranaias/switchboard/internal/config"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change settings.

set and unset change the endpoint settings stored with the session:
` + fmt.Sprint(config.EndpointKeys) + `

Process settings (data directory, storage, logging, budget) live in
config.toml; "config init" writes a commented default file.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%-22s %s\n", "data_dir", e.cfg.DataDir)
				fmt.Fprintf(e.out, "%-22s %s\n", "storage", e.cfg.Storage)
				fmt.Fprintf(e.out, "%-22s %s\n", "log.level", e.cfg.Log.Level)
				fmt.Fprintln(e.out)

				endpoint := a.Endpoint()
				for _, key := range config.EndpointKeys {
					value, ok := endpoint.Field(key)
					switch {
					case !ok:
						value = infoStyle.Render("(default)")
					case key == "api_key":
						value = "set, fingerprint " + completion.KeyFingerprint(value)
					}
					fmt.Fprintf(e.out, "%-22s %s\n", key, value)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set an endpoint setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				return a.SetEndpointField(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Clear an optional endpoint setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.session(cmd)
				if err != nil {
					return err
				}
				return a.SetEndpointField(args[0], "")
			},
		},
		newConfigInitCommand(e),
	)
	return cmd
}

func newConfigInitCommand(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.flags.configPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
