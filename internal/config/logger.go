package config

import (
	"io"

	"github.com/go-kratos/kratos/v2/log"
)

// NewLogger returns a kratos logger writing key/value lines to w, tagged
// with timestamp, caller and service name, and dropping records below
// level ("debug", "info", "warn", "error"; unknown values mean info).
func NewLogger(w io.Writer, service, level string) log.Logger {
	logger := log.With(log.NewStdLogger(w),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service", service,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(level)))
}
