// Package logger wraps logrus with the fields the editor and services log by.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
	serviceName string
}

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// New builds a JSON logger at the given level (DEBUG, INFO, WARN, ERROR).
func New(serviceName, level string, out io.Writer) *Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	switch strings.ToUpper(level) {
	case "DEBUG":
		log.SetLevel(logrus.DebugLevel)
	case "WARN":
		log.SetLevel(logrus.WarnLevel)
	case "ERROR":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	return &Logger{Logger: log, serviceName: serviceName}
}

// Init replaces the process-wide logger. Call once from main.
func Init(serviceName, level string) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = New(serviceName, level, os.Stdout)
	return defaultLogger
}

// Default returns the process-wide logger, creating an INFO logger if Init
// was never called.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("flyingbus", os.Getenv("LOG_LEVEL"), os.Stdout)
	}
	return defaultLogger
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *Logger {
	return New("test", "ERROR", io.Discard)
}

func (l *Logger) base() *logrus.Entry {
	return l.WithField("service", l.serviceName)
}

func (l *Logger) WithSession(sessionID string) *logrus.Entry {
	return l.base().WithField("session_id", sessionID)
}

func (l *Logger) WithArticle(articleID string) *logrus.Entry {
	return l.base().WithField("article_id", articleID)
}

func (l *Logger) WithUser(userID uint) *logrus.Entry {
	return l.base().WithField("user_id", userID)
}

func (l *Logger) WithErr(err error) *logrus.Entry {
	return l.base().WithError(err)
}
