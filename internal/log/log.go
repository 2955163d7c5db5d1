// Package log configures the logrus logger shared by the HTTP service, the
// MCP server and the CLI.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields = logrus.Fields

// Options controls where and how verbosely the logger writes.
type Options struct {
	// Level is a logrus level name. Unknown or empty values fall back to info.
	Level string

	// File, when set, adds a rotating log file next to the primary output.
	File string

	// Env "test" disables the file writer regardless of File.
	Env string

	// Output is the primary writer. Defaults to os.Stderr so stdout stays free
	// for the MCP protocol.
	Output io.Writer

	// NoColors strips ANSI colors, used when the output is not a terminal.
	NoColors bool
}

// NewLogger builds a logger from opts.
func NewLogger(opts Options) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}

	if opts.File != "" && opts.Env != "test" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(true)

	return logger
}

// Discard returns a logger that drops everything. Used by tests and by
// callers that did not configure logging.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
