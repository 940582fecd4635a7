package shared

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/modelfactory/modelfactory"
)

type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LogAdapter lets a charmbracelet logger receive modelfactory's logs.
type LogAdapter struct {
	*log.Logger
}

func (l LogAdapter) Log(_ context.Context, level modelfactory.LogLevel, msg string, fields ...modelfactory.LogField) {
	args := make([]any, 0, 2*len(fields))
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	switch level {
	case modelfactory.LogLevelDebug:
		l.Logger.Debug(msg, args...)
	case modelfactory.LogLevelInfo:
		l.Logger.Info(msg, args...)
	case modelfactory.LogLevelWarning:
		l.Logger.Warn(msg, args...)
	case modelfactory.LogLevelError:
		l.Logger.Error(msg, args...)
	}
}
