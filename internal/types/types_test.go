package types

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowEqual(t *testing.T) {
	assert.True(t, Row{"a", "b"}.Equal(Row{"a", "b"}))
	assert.True(t, Row{}.Equal(nil))
	assert.False(t, Row{"a", "b"}.Equal(Row{"a"}))
	assert.False(t, Row{"a", "b"}.Equal(Row{"b", "a"}))
}

func TestRowClone(t *testing.T) {
	r := Row{"a"}
	c := r.Clone()
	c[0] = "b"
	assert.Equal(t, "a", r[0])
}

func TestPersistenceError(t *testing.T) {
	cause := fmt.Errorf("line 3: %w", ErrArity)
	var err error = &PersistenceError{Op: "load", Path: "data/t.csv", Err: cause}
	wrapped := fmt.Errorf("open: %w", err)

	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.ErrorIs(t, wrapped, ErrArity)
	assert.NotErrorIs(t, wrapped, ErrParse)
	assert.Equal(t, "load data/t.csv: line 3: wrong number of values", err.Error())

	var perr *PersistenceError
	require.True(t, errors.As(wrapped, &perr))
	assert.Equal(t, "data/t.csv", perr.Path)

	notFound := &PersistenceError{Op: "save", Path: "x", Err: os.ErrPermission}
	assert.ErrorIs(t, notFound, os.ErrPermission)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"", LogLevelInfo},
		{"INFO", LogLevelInfo},
		{"warn", LogLevelWarning},
		{"warning", LogLevelWarning},
		{"error", LogLevelError},
		{"none", LogLevelNone},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := InitLogger(LoggerOptions{Level: LogLevelInfo, Format: "json", Output: &buf})
	defer cleanup()

	logger.Debug("hidden")
	logger.Info("table saved", "table", "stud")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"table saved"`)
	assert.Contains(t, buf.String(), `"table":"stud"`)

	buf.Reset()
	logger, cleanup = InitLogger(LoggerOptions{Level: LogLevelNone, Output: &buf})
	defer cleanup()
	logger.Error("dropped")
	assert.Empty(t, buf.String())
}
