// Copyright 2026 The pureflashblade-mcp Authors

package logger

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	otLog "github.com/opentracing/opentracing-go/log"
	log "github.com/sirupsen/logrus"
	"github.com/uber/jaeger-client-go/config"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = TextFormat
	DefaultMaxLogFiles = 10
	MaxFilesLimit      = 20
	DefaultMaxLogSize  = 100  // in MB
	MaxLogSizeLimit    = 1024 // in MB
	JSONFormat         = "json"
	TextFormat         = "text"

	maskedValue = "**********"
)

// LogParams to configure logging
type LogParams struct {
	Level      string
	File       string
	MaxFiles   int
	MaxSizeMiB int
	Format     string
}

var (
	logParams LogParams
	initMutex sync.Mutex

	// console output always goes to stderr, stdout belongs to the MCP transport
	consoleWriter io.Writer = os.Stderr

	tracerCloser io.Closer
)

func (l LogParams) isValidLevel() bool {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func (l LogParams) isValidLogFormat() bool {
	switch l.Format {
	case JSONFormat, TextFormat:
		return true
	default:
		return false
	}
}

func (l LogParams) isValidMaxLogFiles() bool {
	if l.MaxFiles == 0 || l.MaxFiles > MaxFilesLimit {
		return false
	}
	return true
}

func (l LogParams) isValidMaxLogSize() bool {
	if l.MaxSizeMiB == 0 || l.MaxSizeMiB > MaxLogSizeLimit {
		return false
	}
	return true
}

func (l LogParams) GetLevel() string {
	if !l.isValidLevel() {
		return DefaultLogLevel
	}
	return l.Level
}

func (l LogParams) GetFile() string {
	return l.File
}

func (l LogParams) GetMaxFiles() int {
	if !l.isValidMaxLogFiles() {
		return DefaultMaxLogFiles
	}
	return l.MaxFiles
}

func (l LogParams) GetMaxSize() int {
	if !l.isValidMaxLogSize() {
		return DefaultMaxLogSize
	}
	return l.MaxSizeMiB
}

func (l LogParams) GetLogFormat() string {
	if !l.isValidLogFormat() {
		return DefaultLogFormat
	}
	return l.Format
}

func (l LogParams) UseJsonFormatter() bool {
	return l.GetLogFormat() == JSONFormat
}

func updateLogParamsFromEnv() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logParams.Level = level
	}

	logFile := os.Getenv("LOG_FILE")
	if logFile != "" {
		logParams.File = logFile
	}

	maxSize := os.Getenv("LOG_MAX_SIZE")
	if maxSize != "" {
		size, err := strconv.ParseInt(maxSize, 0, 0)
		if err == nil {
			logParams.MaxSizeMiB = int(size)
		}
	}

	maxFiles := os.Getenv("LOG_MAX_FILES")
	if maxFiles != "" {
		fileCount, err := strconv.ParseInt(maxFiles, 0, 0)
		if err == nil {
			logParams.MaxFiles = int(fileCount)
		}
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat != "" {
		logParams.Format = logFormat
	}
}

// InitLogging initializes logging with given params. Environment overrides
// (LOG_LEVEL, LOG_FILE, LOG_MAX_SIZE, LOG_MAX_FILES, LOG_FORMAT) win over params.
func InitLogging(logName string, params *LogParams, alsoLogToStderr bool) (err error) {
	initMutex.Lock()
	defer initMutex.Unlock()

	// if logParams is not provided, then initialize from defaults
	if params == nil {
		logParams = LogParams{
			Level:      DefaultLogLevel,
			MaxSizeMiB: DefaultMaxLogSize,
			MaxFiles:   DefaultMaxLogFiles,
			Format:     DefaultLogFormat,
		}
	} else {
		logParams = *params
	}

	// verify if log location is provided
	if logName != "" {
		logParams.File = logName
	}

	// check any overrides from env and apply
	updateLogParamsFromEnv()

	// No output except for the hooks
	log.SetOutput(ioutil.Discard)
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))

	if logParams.GetFile() != "" {
		if err = addFileHook(); err != nil {
			return err
		}
	}
	if alsoLogToStderr {
		if err = addConsoleHook(); err != nil {
			return err
		}
	}

	// Set log level
	level, err := log.ParseLevel(logParams.GetLevel())
	if err != nil {
		return err
	}
	log.SetLevel(level)

	// Remind users where the log file lives
	log.WithFields(log.Fields{
		"logLevel":        log.GetLevel().String(),
		"logFileLocation": logParams.GetFile(),
		"alsoLogToStderr": alsoLogToStderr,
	}).Info("Initialized logging.")

	return nil
}

// InitTracing installs a jaeger backed global opentracing tracer for the given service.
func InitTracing(service string) error {
	cfg := &config.Configuration{
		ServiceName: service,
		Sampler: &config.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &config.ReporterConfig{
			LogSpans: true,
		},
	}
	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return fmt.Errorf("cannot init tracing: %v", err)
	}
	opentracing.SetGlobalTracer(tracer)
	tracerCloser = closer
	log.Tracef("Tracing initialized for service %s", service)
	return nil
}

// CloseTracer flushes and closes the tracer installed by InitTracing
func CloseTracer() {
	if tracerCloser != nil {
		tracerCloser.Close()
		tracerCloser = nil
	}
}

// StartSpan starts a child span of whatever span ctx carries. The global tracer is a
// no-op unless InitTracing was called.
func StartSpan(ctx context.Context, operation string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operation)
}

// LogToSpan records an event on the span carried by ctx, if any
func LogToSpan(ctx context.Context, event string) {
	if span := opentracing.SpanFromContext(ctx); span != nil {
		span.LogFields(otLog.String("event", event))
	}
}

func addConsoleHook() error {
	log.AddHook(NewConsoleHook())
	return nil
}

func addFileHook() error {
	// Write to the log file
	logFileHook, err := NewFileHook()
	if err != nil {
		return fmt.Errorf("could not initialize logging to file %s: %v", logParams.GetFile(), err)
	}
	log.AddHook(logFileHook)
	return nil
}

// ConsoleHook sends log entries to stderr.
type ConsoleHook struct {
	formatter log.Formatter
	mutex     sync.Mutex
}

// NewConsoleHook creates a new log hook for writing to stderr.
func NewConsoleHook() *ConsoleHook {
	if logParams.UseJsonFormatter() {
		return &ConsoleHook{formatter: &log.JSONFormatter{CallerPrettyfier: callerPrettyfier}}
	}
	return &ConsoleHook{formatter: &log.TextFormatter{FullTimestamp: true, CallerPrettyfier: callerPrettyfier}}
}

func (hook *ConsoleHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook *ConsoleHook) checkIfTerminal(w io.Writer) bool {
	switch v := w.(type) {
	case *os.File:
		return terminal.IsTerminal(int(v.Fd()))
	default:
		return false
	}
}

func (hook *ConsoleHook) Fire(entry *log.Entry) error {
	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	//https://github.com/sirupsen/logrus/issues/172
	if tf, ok := hook.formatter.(*log.TextFormatter); ok && runtime.GOOS != "windows" {
		tf.ForceColors = hook.checkIfTerminal(consoleWriter)
	}

	lineBytes, err := hook.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read entry, %v", err)
		return err
	}
	consoleWriter.Write(lineBytes)
	return nil
}

// FileHook sends log entries to a file.
type FileHook struct {
	formatter log.Formatter
	mutex     *sync.Mutex
	logWriter io.Writer
}

// callerPrettyfier reports the calling function and file without the package path
func callerPrettyfier(f *runtime.Frame) (string, string) {
	s := strings.Split(f.Function, ".")
	funcname := s[len(s)-1]
	_, filename := path.Split(f.File)
	return funcname, filename
}

// NewFileHook creates a new log hook for writing to a file.
func NewFileHook() (hook *FileHook, err error) {
	if logParams.UseJsonFormatter() {
		hook = &FileHook{&log.JSONFormatter{}, &sync.Mutex{}, nil}
	} else {
		hook = &FileHook{&log.TextFormatter{FullTimestamp: true}, &sync.Mutex{}, nil}
	}

	// use lumberjack for log rotation
	hook.logWriter = &lumberjack.Logger{
		Filename:   logParams.GetFile(),
		MaxSize:    logParams.GetMaxSize(),
		MaxBackups: logParams.GetMaxFiles(),
		MaxAge:     30,
		Compress:   true,
	}
	return hook, nil
}

func (hook *FileHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook *FileHook) Fire(entry *log.Entry) error {
	lineBytes, err := hook.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read log entry. %v", err)
		return err
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()
	hook.logWriter.Write(lineBytes)
	return nil
}

// Writer returns a pipe that logs each written line at the given level. Used to hand
// third-party libraries that want a *log.Logger.
func Writer(level log.Level) *io.PipeWriter {
	return log.StandardLogger().WriterLevel(level)
}

// HTTPLogger : wrapper for http logging
func HTTPLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panicked := true
		defer func() {
			if panicked {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				sourced().Errorf("HTTPLogger: panic serving %v:\n%s", name, buf)
			}
		}()

		sourced().Infof(
			">>>>> %s %s - %s",
			r.Method,
			r.RequestURI,
			name,
		)

		start := time.Now()
		inner.ServeHTTP(w, r)

		sourced().Infof(
			"<<<<< %s %s - %s %s",
			r.Method,
			r.RequestURI,
			name,
			time.Since(start),
		)

		panicked = false
	})
}

// IsSensitive checks if the given key exists in the list of bad words (sensitive info)
func IsSensitive(key string) bool {
	badWords := []string{
		"x-auth-token",
		"api-token",
		"api_token",
		"username",
		"user",
		"password",
		"passwd",
		"secret",
		"token",
		"accesskey",
		"passphrase",
	}
	key = strings.ToLower(key)
	for _, bad := range badWords {
		// Perform case-insensitive and substring match
		if strings.Contains(key, bad) {
			return true
		}
	}
	return false
}

// MapScrubber returns a copy of m with the values of sensitive keys masked
func MapScrubber(m map[string]string) map[string]string {
	retMap := make(map[string]string)
	for k, v := range m {
		if IsSensitive(k) {
			retMap[k] = maskedValue
		} else {
			retMap[k] = v
		}
	}
	return retMap
}

// ArgsScrubber is MapScrubber for decoded JSON arguments. Nested objects are scrubbed as well.
func ArgsScrubber(m map[string]interface{}) map[string]interface{} {
	retMap := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch {
		case IsSensitive(k):
			retMap[k] = maskedValue
		default:
			if nested, ok := v.(map[string]interface{}); ok {
				retMap[k] = ArgsScrubber(nested)
			} else {
				retMap[k] = v
			}
		}
	}
	return retMap
}

// HeaderScrubber returns a copy of h with sensitive header values masked
func HeaderScrubber(h http.Header) http.Header {
	ret := make(http.Header, len(h))
	for k, v := range h {
		if IsSensitive(k) {
			ret[k] = []string{maskedValue}
		} else {
			ret[k] = v
		}
	}
	return ret
}

// sourced adds a source field to the logger that contains
// the file name and line where the logging happened.
func sourced() *log.Entry {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "<???>"
		line = 1
	} else {
		slash := strings.LastIndex(file, "/")
		file = file[slash+1:]
	}
	return log.WithField("file", fmt.Sprintf("%s:%d", file, line))
}

// Trace logs a message at level Trace on the standard logger.
func Trace(args ...interface{}) {
	sourced().Trace(args...)
}

// Info logs a message at level Info on the standard logger.
func Info(args ...interface{}) {
	sourced().Info(args...)
}

// Error logs a message at level Error on the standard logger.
func Error(args ...interface{}) {
	sourced().Error(args...)
}

// Tracef logs a message at level Trace on the standard logger.
func Tracef(format string, args ...interface{}) {
	sourced().Tracef(format, args...)
}

// Debugf logs a message at level Debug on the standard logger.
func Debugf(format string, args ...interface{}) {
	sourced().Debugf(format, args...)
}

// Infof logs a message at level Info on the standard logger.
func Infof(format string, args ...interface{}) {
	sourced().Infof(format, args...)
}

// Warnf logs a message at level Warn on the standard logger.
func Warnf(format string, args ...interface{}) {
	sourced().Warnf(format, args...)
}

// Errorf logs a message at level Error on the standard logger.
func Errorf(format string, args ...interface{}) {
	sourced().Errorf(format, args...)
}
