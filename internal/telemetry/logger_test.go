package telemetry_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/internal/telemetry"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.New(&buf, "debug")

	logger.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "value")
}

func TestLoggerErrorIncludesErrMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.New(&buf, "debug")

	logger.Error("boom", errors.New("kaboom"))

	assert.Contains(t, buf.String(), "kaboom")
}

func TestNamedLoggerAttachesLogName(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.New(&buf, "debug").Named("validator")

	logger.Debug("checking")

	assert.Contains(t, buf.String(), "validator")
}

func TestNoopDiscardsOutput(t *testing.T) {
	logger := telemetry.Noop()
	assert.NotPanics(t, func() {
		logger.Info("anything")
		logger.Debug("anything")
		logger.Error("anything", errors.New("x"))
	})
}
