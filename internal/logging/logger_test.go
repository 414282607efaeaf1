package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl, "пустая строка означает INFO")

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("recipes", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("рецепт %s пропущен", "grass_to_path")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [recipes] рецепт grass_to_path пропущен")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Error("ничего")
		_ = l.Close()
	})
}
