package common

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Severity represents log message severity levels
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) option() level.Option {
	switch s {
	case SeverityDebug:
		return level.AllowDebug()
	case SeverityInfo:
		return level.AllowInfo()
	case SeverityWarning:
		return level.AllowWarn()
	default:
		return level.AllowError()
	}
}

// NewLogger returns a logfmt logger writing to w that drops records below minLevel.
func NewLogger(w io.Writer, minLevel Severity) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	return level.NewFilter(logger, minLevel.option())
}

// NewNopLogger returns a logger that doesn't log anything
func NewNopLogger() log.Logger {
	return log.NewNopLogger()
}
