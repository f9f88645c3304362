// Package log wraps slog with a rotating file writer. A nil *Logger is valid:
// debug and info output is dropped and warnings and errors go to the default
// slog logger.
package log

import(
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// {{{ Logger{}, New

type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

// New logs to <dir>/<name>.slog, rotated by size; with an empty dir it logs
// to stderr.
func New(name, level, dir string) *Logger {
	var w io.Writer = os.Stderr
	logFile := ""
	if dir != "" {
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(dir, name+".slog"),
			MaxSize:    64, // MB
			MaxAge:     14,
			MaxBackups: 4,
			Compress:   true,
		}
		w, logFile = lj, lj.Filename
	}
	return NewWithWriter(w, level, logFile)
}

func NewWithWriter(w io.Writer, level, logFile string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level:ParseLevel(level)})
	l := &Logger{
		Logger:  slog.New(h),
		LogFile: logFile,
		Start:   time.Now(),
	}
	return l
}

// }}}
// {{{ ParseLevel

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug": return slog.LevelDebug
	case "warn":  return slog.LevelWarn
	case "error": return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level, using info\n", level)
		return slog.LevelInfo
	}
}

// }}}
// {{{ l.Debug .. l.With

func (l *Logger)enabled(lvl slog.Level) bool {
	return l != nil && l.Logger.Enabled(context.Background(), lvl)
}

func (l *Logger)Debug(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) { l.Logger.Debug(msg, args...) }
}

func (l *Logger)Debugf(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) { l.Logger.Debug(fmt.Sprintf(msg, args...)) }
}

func (l *Logger)Info(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) { l.Logger.Info(msg, args...) }
}

func (l *Logger)Infof(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) { l.Logger.Info(fmt.Sprintf(msg, args...)) }
}

func (l *Logger)Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger)Warnf(msg string, args ...any) { l.Warn(fmt.Sprintf(msg, args...)) }

func (l *Logger)Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
	} else {
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger)Errorf(msg string, args ...any) { l.Error(fmt.Sprintf(msg, args...)) }

func (l *Logger)With(args ...any) *Logger {
	if l == nil { return nil }
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		Start:   l.Start,
	}
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
