package framevk

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

// Logger groups the leveled loggers every component writes to.
type Logger struct {
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
}

// NewLogger returns a Logger writing all levels to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		Info:  log.New(w, "INFO: ", logFlags),
		Warn:  log.New(w, "WARNING: ", logFlags),
		Error: log.New(w, "ERROR: ", logFlags),
	}
}

// NewFileLogger opens (or creates) info_log.txt, warn_log.txt and
// error_log.txt under dir and appends to them.
func NewFileLogger(dir string) (*Logger, error) {
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		return f, errors.Wrapf(err, "open %s", name)
	}

	infoFile, err := open("info_log.txt")
	if err != nil {
		return nil, err
	}
	warnFile, err := open("warn_log.txt")
	if err != nil {
		return nil, err
	}
	errorFile, err := open("error_log.txt")
	if err != nil {
		return nil, err
	}
	return &Logger{
		Info:  log.New(infoFile, "INFO: ", logFlags),
		Warn:  log.New(warnFile, "WARNING: ", logFlags),
		Error: log.New(errorFile, "ERROR: ", logFlags),
	}, nil
}

// DiscardLogger returns a Logger that drops everything.
func DiscardLogger() *Logger {
	return NewLogger(io.Discard)
}

func orDiscard(l *Logger) *Logger {
	if l == nil {
		return DiscardLogger()
	}
	return l
}
