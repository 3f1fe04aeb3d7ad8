// Package logsetup wraps github.com/cihub/seelog behind the small
// Debugf/Infof/Warnf/Errorf surface the rest of this module logs
// through. Only internal/tagsync/{localfs,remotefs} and
// internal/command use it; the pure reconciliation packages
// (tag, syncedpath, repository, reconcile) never log.
package logsetup

import (
	"fmt"
	"io"

	"github.com/cihub/seelog"
)

const defaultFormat = "%Date(2006-01-02 15:04:05) [%LEVEL] %Msg%n"

// SetupLogger replaces the package-level seelog logger with one that
// writes to w at the given minimum level ("debug", "info", "warn",
// "error", or "critical"; defaults to "info" on an unrecognized
// value). Call once at process startup.
func SetupLogger(level string, w io.Writer) error {
	lvl, ok := seelogLevels[level]
	if !ok {
		lvl = seelog.InfoLvl
	}

	logger, err := seelog.LoggerFromWriterWithMinLevelAndFormat(w, lvl, defaultFormat)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	return seelog.ReplaceLogger(logger)
}

var seelogLevels = map[string]seelog.LogLevel{
	"debug":    seelog.DebugLvl,
	"info":     seelog.InfoLvl,
	"warn":     seelog.WarnLvl,
	"error":    seelog.ErrorLvl,
	"critical": seelog.CriticalLvl,
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	seelog.Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...any) {
	seelog.Infof(format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...any) {
	_ = seelog.Warnf(format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...any) {
	_ = seelog.Errorf(format, args...)
}

// Flush blocks until every buffered log message has been written.
// Call before process exit.
func Flush() {
	seelog.Flush()
}
