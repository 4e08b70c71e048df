package log

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/motemen/go-loghttp"
)

// Logger is the global logger instance
var Logger *slog.Logger

var (
	level  = new(slog.LevelVar)
	output = &switchWriter{w: os.Stderr}
)

// switchWriter lets the destination change while loggers are in use
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// InitLogger initializes the global logger
// It sets the log level to Debug if FHIRVAL_DEBUG is set
func InitLogger() {
	level.Set(slog.LevelInfo)
	if os.Getenv("FHIRVAL_DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// init initializes the logger when the package is imported
func init() {
	InitLogger()
}

// SetDebug switches the global logger between Debug and Info level
func SetDebug(debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelInfo)
}

// SetOutput redirects log output to w and returns the previous destination
func SetOutput(w io.Writer) io.Writer {
	output.mu.Lock()
	defer output.mu.Unlock()
	prev := output.w
	output.w = w
	return prev
}

// Transport wraps base so every round trip is logged at debug level.
// A nil base falls back to http.DefaultTransport.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loghttp.Transport{
		Transport:   base,
		LogRequest:  logRequest,
		LogResponse: logResponse,
	}
}

// NewHTTPClient returns a client with the logging transport and the given timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: Transport(nil),
		Timeout:   timeout,
	}
}

func logRequest(req *http.Request) {
	Debug("HTTP request",
		"method", req.Method,
		"url", req.URL.String(),
		"headers", req.Header,
	)
}

func logResponse(resp *http.Response) {
	Debug("HTTP response",
		"method", resp.Request.Method,
		"url", resp.Request.URL.String(),
		"status", resp.Status,
		"status_code", resp.StatusCode,
	)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
