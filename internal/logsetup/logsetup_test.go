package logsetup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesAtOrAboveConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger("warn", &buf))
	defer Flush()

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")
	Flush()

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestSetupLoggerDefaultsUnrecognizedLevelToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger("not-a-level", &buf))
	defer Flush()

	Debugf("debug message")
	Infof("info message")
	Flush()

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, "info message")
}
