package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Input(t *testing.T) {
	in := strings.NewReader("\"CHOOSE_1\"\n\n{\"event_id\":\"ASK\"}\nplain\n{\"other\":1}\n")
	h := runner.NewJSONHandler(in, &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"CHOOSE_1", "ASK", "plain", `{"other":1}`} {
		got, err := h.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(strings.NewReader(""), out)
	ctx := context.Background()

	require.NoError(t, h.Show(ctx, &domain.View{StepID: "start", NPCText: "Hi"}))
	require.NoError(t, h.SystemOutput(ctx, "note"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var step map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &step))
	assert.Equal(t, "step", step["type"])
	assert.Equal(t, "start", step["view"].(map[string]any)["step_id"])

	assert.JSONEq(t, `{"type":"system","message":"note"}`, lines[1])
}
