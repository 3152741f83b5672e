package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", "text", &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("Stored chunk", "path", "a.pdf")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"Stored chunk\"")
	assert.Contains(t, out, "path=a.pdf")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("DEBUG", "json", &buf)
	require.NoError(t, err)

	log.Debug("Extracted document", "pages", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Extracted document", entry["msg"])
	assert.Equal(t, float64(3), entry["pages"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "text", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "yaml", &bytes.Buffer{})
	assert.Error(t, err)
}
