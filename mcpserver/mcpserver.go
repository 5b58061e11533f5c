// Copyright 2026 The pureflashblade-mcp Authors

package mcpserver

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	"github.com/pureflashblade/pureflashblade-mcp/flashblade"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/query"
	"github.com/pureflashblade/pureflashblade-mcp/stringformat"
)

const (
	// ServerName is announced to the host application during initialize
	ServerName = "pureflashblade"
	// ServerVersion is announced with ServerName
	ServerVersion = "0.1.0"

	ToolQuery     = "pure-fb"
	ToolArrayFull = "get-array-full"
	ToolCommands  = "pure-fb-commands"

	logNotification = "notifications/message"
)

// Server exposes the query service as MCP tools
type Server struct {
	mcp     *server.MCPServer
	service *query.Service
}

type toolArgs struct {
	query.Target `mapstructure:",squash"`
	Command      string                 `mapstructure:"command"`
	Parameters   map[string]interface{} `mapstructure:"parameters"`
	Days         int                    `mapstructure:"days"`
}

// Notifier forwards query responses to the MCP client as log notifications.
// Outside of an MCP request it does nothing.
func Notifier() query.Notifier {
	return query.NotifierFunc(notify)
}

func notify(ctx context.Context, level, message string) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	err := srv.SendNotificationToClient(ctx, logNotification, map[string]any{
		"level":  level,
		"logger": ServerName,
		"data":   message,
	})
	if err != nil {
		log.Tracef("log notification not delivered: %v", err)
	}
}

// New registers the tools against service
func New(service *query.Service) *Server {
	s := &Server{service: service}
	s.mcp = server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(traceTool),
	)
	s.mcp.AddTool(queryTool(), s.handleQuery)
	s.mcp.AddTool(arrayFullTool(), s.handleArrayFull)
	s.mcp.AddTool(commandsTool(), s.handleCommands)
	return s
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over in and out until in is closed or ctx is done
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.Trace(">>>>> Serve")
	defer log.Trace("<<<<< Serve")

	errWriter := log.Writer(logrus.ErrorLevel)
	defer errWriter.Close()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(errWriter, "", 0))
	err := stdio.Listen(ctx, in, out)
	if err == context.Canceled {
		return nil
	}
	return err
}

func queryTool() mcp.Tool {
	return mcp.NewTool(ToolQuery,
		mcp.WithDescription("Run a command against a given FlashBlade"),
		mcp.WithString("host", mcp.Description("IP address of array management endpoint")),
		mcp.WithString("api_token", mcp.Description("API token for array management user")),
		mcp.WithString("command", mcp.Required(), mcp.Description("SDK call to run against the array")),
		mcp.WithObject("parameters",
			mcp.Description("Optional parameters to pass to the SDK call"),
			mcp.AdditionalProperties(true)),
		mcp.WithString("array", mcp.Description("Name of a configured array, used when host and api_token are not given")),
		mcp.WithBoolean("verify_ssl", mcp.Description("Verify the TLS certificate of host")),
	)
}

func arrayFullTool() mcp.Tool {
	return mcp.NewTool(ToolArrayFull,
		mcp.WithDescription("Get array full information, space and 7 days performance"),
		mcp.WithString("host", mcp.Description("IP address of array management endpoint")),
		mcp.WithString("api_token", mcp.Description("API token for array management user")),
		mcp.WithString("array", mcp.Description("Name of a configured array, used when host and api_token are not given")),
		mcp.WithBoolean("verify_ssl", mcp.Description("Verify the TLS certificate of host")),
		mcp.WithNumber("days", mcp.Description("Days of performance history"), mcp.DefaultNumber(query.DefaultDays), mcp.Min(1)),
	)
}

func commandsTool() mcp.Tool {
	return mcp.NewTool(ToolCommands,
		mcp.WithDescription("List the commands pure-fb accepts and the REST collection each one reads"),
	)
}

func traceTool(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		span, ctx := log.StartSpan(ctx, "mcp."+request.Params.Name)
		defer span.Finish()
		log.Infof(">>>>> tool %s called, arguments=%v", request.Params.Name, log.ArgsScrubber(request.GetArguments()))
		defer log.Infof("<<<<< tool %s", request.Params.Name)
		return next(ctx, request)
	}
}

func decodeArgs(request mcp.CallToolRequest) (*toolArgs, error) {
	raw := request.GetArguments()
	if len(raw) == 0 {
		return nil, fberrors.NewError(fberrors.InvalidArgument, "Missing arguments")
	}
	args := &toolArgs{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: args})
	if err != nil {
		return nil, fberrors.NewError(fberrors.Internal, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid arguments: %v", err)
	}
	args.Command = strings.TrimSpace(args.Command)
	return args, nil
}

// announce tells the client which array is being queried, without the token
func announce(ctx context.Context, target query.Target) {
	token := ""
	if target.APIToken != "" {
		token = log.MapScrubber(map[string]string{"api_token": target.APIToken})["api_token"]
	}
	notify(ctx, "info", fmt.Sprintf("Initializing query with '%s' and '%s'", target.Host, token))
}

func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs(request)
	if err != nil {
		return nil, err
	}
	announce(ctx, args.Target)
	if args.Command == "" {
		return nil, fberrors.NewError(fberrors.InvalidArgument, "Missing command")
	}

	res, err := s.service.Query(ctx, args.Target, args.Command, args.Parameters)
	if err != nil {
		if res == nil {
			return nil, err
		}
		return mcp.NewToolResultError(res.Text), nil
	}
	result := mcp.NewToolResultText(res.Text)
	if res.ContinuationToken != "" {
		result.Content = append(result.Content, mcp.NewTextContent(fmt.Sprintf(
			"The result is partial. Pass {\"continuation_token\": %q} in parameters to read the next items.", res.ContinuationToken)))
	}
	return result, nil
}

func (s *Server) handleArrayFull(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs(request)
	if err != nil {
		return nil, err
	}
	announce(ctx, args.Target)

	out, err := s.service.ArrayFull(ctx, args.Target, args.Days)
	if err != nil {
		if out == "" {
			return nil, err
		}
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CommandTable()), nil
}

// CommandTable renders the registered commands as fixed width columns
func CommandTable() string {
	eps := flashblade.Commands()
	width := len("COMMAND")
	for _, ep := range eps {
		if len(ep.Command) > width {
			width = len(ep.Command)
		}
	}
	widths := []int{width + 2, 0}
	var b strings.Builder
	b.WriteString(stringformat.Columns(widths, "COMMAND", "PATH"))
	b.WriteString("\n")
	for _, ep := range eps {
		b.WriteString(stringformat.Columns(widths, ep.Command, ep.Path))
		b.WriteString("\n")
	}
	return b.String()
}
