package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// New builds a text logger writing to out, or stdout when out is nil.
func New(verbose bool, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Logger: log}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(false, io.Discard)
}

// Table returns an entry tagged with the table being processed.
func (l *Logger) Table(name string) *logrus.Entry {
	return l.WithField("table", name)
}
