package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", "json")

	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "loud", "json")

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
