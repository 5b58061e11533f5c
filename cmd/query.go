// Copyright 2026 The pureflashblade-mcp Authors

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade"
	"github.com/pureflashblade/pureflashblade-mcp/mcpserver"
	"github.com/pureflashblade/pureflashblade-mcp/query"
)

const verifySSLFlag = "verify-ssl"

func addTargetFlags(cmd *cobra.Command, target *query.Target) {
	cmd.Flags().StringVar(&target.Host, "host", "", "array management address")
	cmd.Flags().StringVar(&target.APIToken, "api-token", "", "API token of the array management user")
	cmd.Flags().StringVar(&target.Array, "array", "", "configured array profile")
	cmd.Flags().Bool(verifySSLFlag, false, "verify the TLS certificate of --host")
}

// resolveTarget copies --verify-ssl into target when it was given
func resolveTarget(cmd *cobra.Command, target query.Target) (query.Target, error) {
	if cmd.Flags().Changed(verifySSLFlag) {
		verify, err := cmd.Flags().GetBool(verifySSLFlag)
		if err != nil {
			return target, err
		}
		target.VerifySSL = &verify
	}
	return target, nil
}

func newQueryCmd() *cobra.Command {
	var target query.Target
	var command, params string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one command against an array and print the JSON result",
		Example: `  pureflashblade query --host 10.0.0.5 --api-token T-... --command get_file_systems
  pureflashblade query --array fb01 --command get_buckets --params '{"names": ["b1"]}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var parameters map[string]interface{}
			if params != "" {
				if err := json.Unmarshal([]byte(params), &parameters); err != nil {
					return fberrors.NewErrorf(fberrors.InvalidArgument, "--params is not a JSON object: %v", err)
				}
			}

			resolved, err := resolveTarget(cmd, target)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.service.Query(cmd.Context(), resolved, command, parameters)
			if res == nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			if res.ContinuationToken != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "more items available, repeat with --params '{\"continuation_token\": %q}'\n", res.ContinuationToken)
			}
			return err
		},
	}
	addTargetFlags(cmd, &target)
	cmd.Flags().StringVar(&command, "command", "", "command to run, see the commands subcommand")
	cmd.Flags().StringVar(&params, "params", "", "command parameters as a JSON object")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}

func newArrayFullCmd() *cobra.Command {
	var target query.Target
	var days int

	cmd := &cobra.Command{
		Use:   "array-full",
		Short: "Print array information, space and performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveTarget(cmd, target)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.service.ArrayFull(cmd.Context(), resolved, days)
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return err
		},
	}
	addTargetFlags(cmd, &target)
	cmd.Flags().IntVar(&days, "days", query.DefaultDays, "days of performance history")
	return cmd
}

func newCommandsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the commands the query tool accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(flashblade.Commands())
			}
			fmt.Fprint(cmd.OutOrStdout(), mcpserver.CommandTable())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", mcpserver.ServerName, Version)
		},
	}
}
