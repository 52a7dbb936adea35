// Package logging builds the per-run logger: colored text on the console
// and plain text in <dir>/microkin.log.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const FileName = "microkin.log"

type Options struct {
	// Dir receives the log file. Empty disables it.
	Dir     string
	Level   string
	Console io.Writer
	Colors  bool
}

// Logger is a logrus logger bound to an optional run log file.
type Logger struct {
	*logrus.Logger
	file *os.File
}

func New(opts Options) (*Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(console)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     opts.Colors,
		DisableColors:   !opts.Colors,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})

	out := &Logger{Logger: log}
	if opts.Dir == "" {
		return out, nil
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(opts.Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	out.file = f
	log.AddHook(&fileHook{
		w: f,
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		},
	})
	return out, nil
}

// Close flushes and closes the run log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Discard returns a logger that writes nothing.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}
