package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds the production logger used across the service.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithSubject tags a logger with the caller's identity subject.
func WithSubject(l *zap.Logger, subject string) *zap.Logger {
	if subject == "" {
		return l
	}
	return l.With(zap.String("subject", subject))
}
