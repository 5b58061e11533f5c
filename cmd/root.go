// Copyright 2026 The pureflashblade-mcp Authors

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pureflashblade/pureflashblade-mcp/config"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/mcpserver"
	"github.com/pureflashblade/pureflashblade-mcp/query"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
	tracing  bool

	// Version is reported by the version command and to MCP clients
	Version = mcpserver.ServerVersion
)

// NewRootCmd builds the command tree. Without a subcommand the MCP server is started on stdio.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pureflashblade",
		Short: "MCP server for Pure Storage FlashBlade arrays",
		Long: `pureflashblade lets an AI assistant query Pure Storage FlashBlade arrays.

Started by the host application it speaks the Model Context Protocol on stdin/stdout
and offers the pure-fb, get-array-full and pure-fb-commands tools. The same queries
are available from the command line and, with serve-http, as a small REST API.

Arrays are addressed with explicit --host/--api-token values or by the name of a
profile from the configuration file:

  arrays:
    fb01:
      host: 10.0.0.5
      api_token: T-...        # plain or base64
      verify_ssl: false

Environment: PUREFB_HOST, PUREFB_API_TOKEN, PUREFB_VERIFY_SSL, PUREFB_REQUEST_TIMEOUT,
PUREFB_SESSION_TTL, PUREFB_DEFAULT_ARRAY, PUREFB_HTTP_LISTEN.`,
		SilenceUsage:      true,
		Version:           Version,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { log.CloseTracer() },
		RunE:              runServe,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file with array profiles (yaml, json or toml)")
	pf.StringVar(&logLevel, "log-level", log.DefaultLogLevel, "log level: trace, debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "also write logs to this file, rotated")
	pf.BoolVar(&tracing, "tracing", false, "report spans to a local jaeger agent")
	pf.Duration(config.FlagNames[config.KeyRequestTimeout], config.DefaultRequestTimeout, "timeout of a single REST request")
	pf.Duration(config.FlagNames[config.KeySessionTTL], config.DefaultSessionTTL, "idle time after which an array session is logged out")
	pf.String(config.FlagNames[config.KeyDefaultArray], "", "profile used when a call names no array")

	rootCmd.AddCommand(
		newServeCmd(),
		newServeHTTPCmd(),
		newQueryCmd(),
		newArrayFullCmd(),
		newCommandsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	params := &log.LogParams{
		Level:      logLevel,
		MaxFiles:   log.DefaultMaxLogFiles,
		MaxSizeMiB: log.DefaultMaxLogSize,
		Format:     log.DefaultLogFormat,
	}
	if err := log.InitLogging(logFile, params, true); err != nil {
		return err
	}
	if tracing {
		if err := log.InitTracing(mcpserver.ServerName); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the command line. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func userAgent() string {
	return fmt.Sprintf("%s-mcp/%s", mcpserver.ServerName, Version)
}

// app wires the configuration, the session cache and the query service for one command
type app struct {
	store    *config.Store
	sessions *flashblade.SessionCache
	service  *query.Service
}

func newApp(cmd *cobra.Command, opts ...query.Option) (*app, error) {
	store, err := config.NewStore(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	sessions := flashblade.NewSessionCache(store.Get().SessionTTL, flashblade.WithUserAgent(userAgent()))
	store.OnReload(func(cfg *config.Config) { sessions.SetTTL(cfg.SessionTTL) })
	return &app{
		store:    store,
		sessions: sessions,
		service:  query.NewService(store, sessions, opts...),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.sessions.Close(context.Background())
}
