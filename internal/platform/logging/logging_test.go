package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.Info().Str("book_id", "b1").Msg("purchase recorded")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "b1", line["book_id"])
	assert.Equal(t, "purchase recorded", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "json")

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "chatty", "json")

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "console")

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
