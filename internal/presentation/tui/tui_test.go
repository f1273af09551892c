package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "|___/")
}

func TestRenderers(t *testing.T) {
	out, err := PlainRenderer("**hi**")
	require.NoError(t, err)
	assert.Equal(t, "**hi**", out)

	r, err := NewRenderer(60)
	require.NoError(t, err)
	out, err = r("# Hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
}
