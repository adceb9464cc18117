package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

var (
	nullWriter = &NullWriter{}
	Error      *log.Logger
	Warn       *log.Logger
	Info       *log.Logger
	Debug      *log.Logger
	Trace      *log.Logger
)

func StringToLogLevel(value string) LogLevel {
	switch strings.ToLower(value) {
	case "error":
		return ERROR
	case "warn":
		return WARN
	case "info":
		return INFO
	case "debug":
		return DEBUG
	case "trace":
		return TRACE
	}
	log.Printf("Invalid log level: '%s'. Returning INFO", value)
	return INFO
}

func (s LogLevel) String() string {
	switch s {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	}
	return "UNKNOWN"
}

type NullWriter struct {
	io.Writer
}

func (s *NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func init() {
	Initialize(ERROR)
}

// Initialize enables loggers up to and including logLevel. Levels above it
// write to a null sink so call sites never need nil checks.
func Initialize(logLevel LogLevel) {
	Error = makeLogger(ERROR, logLevel, os.Stderr, "ERROR: ")
	Warn = makeLogger(WARN, logLevel, os.Stdout, "WARN:  ")
	Info = makeLogger(INFO, logLevel, os.Stdout, "INFO:  ")
	Debug = makeLogger(DEBUG, logLevel, os.Stdout, "DEBUG: ")
	Trace = makeLogger(TRACE, logLevel, os.Stdout, "TRACE: ")
}

func makeLogger(level LogLevel, enabled LogLevel, out io.Writer, prefix string) *log.Logger {
	if enabled >= level {
		return log.New(out, prefix, flags)
	}
	return log.New(nullWriter, prefix, flags)
}
