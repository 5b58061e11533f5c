// Copyright 2026 The pureflashblade-mcp Authors

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pureflashblade/pureflashblade-mcp/config"
	"github.com/pureflashblade/pureflashblade-mcp/httpapi"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/mcpserver"
	"github.com/pureflashblade/pureflashblade-mcp/query"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP on stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cmd, query.WithNotifier(mcpserver.Notifier()))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Watch(); err != nil {
		log.Warnf("configuration changes will not be picked up: %v", err)
	}
	go a.sessions.Run(ctx, 0)

	log.Infof("%s %s serving MCP on stdio", mcpserver.ServerName, Version)
	return mcpserver.New(a.service).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func newServeHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Serve the query API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Watch(); err != nil {
				log.Warnf("configuration changes will not be picked up: %v", err)
			}
			go a.sessions.Run(ctx, 0)

			return httpapi.Run(ctx, a.store.Get().HTTPListen, httpapi.NewRouter(a.service))
		},
	}
	cmd.Flags().String(config.FlagNames[config.KeyHTTPListen], config.DefaultHTTPListen, "address to listen on")
	return cmd
}
