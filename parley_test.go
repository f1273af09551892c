package parley_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/testutils"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...parley.Option) *parley.Engine {
	t.Helper()
	eng, err := parley.New("", opts...)
	require.NoError(t, err)
	return eng
}

func TestEngine_AlexEndToEnd(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "meet-alex", s.DialogueID)
	assert.Equal(t, "start", s.CurrentStepID)
	assert.Equal(t, []domain.TranscriptEntry{{Speaker: domain.SpeakerNPC, Text: "Hi, I'm Alex."}}, s.Transcript)
	assert.Equal(t, domain.StatusInProgress, s.Status)

	s, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	require.NoError(t, err)
	assert.Equal(t, "end", s.CurrentStepID)
	assert.Equal(t, 1, s.Scores[domain.Clarity])
	assert.Equal(t, domain.StatusDone, s.Status)

	_, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyDone)

	r, err := eng.Replay(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, r.ID)
	assert.Equal(t, "start", r.CurrentStepID)
	assert.Empty(t, r.Scores)
	assert.Equal(t, []domain.TranscriptEntry{{Speaker: domain.SpeakerNPC, Text: "Hi, I'm Alex."}}, r.Transcript)
	assert.Equal(t, domain.StatusInProgress, r.Status)

	stored, err := eng.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Transcript, stored.Transcript)
	step, err := stored.CurrentStep()
	require.NoError(t, err, "Get must bind the graph")
	assert.Equal(t, "start", step.ID)
}

func TestEngine_UnknownOptionDoesNotPersist(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)

	_, err = eng.Select(ctx, s.ID, "NOPE")
	assert.ErrorIs(t, err, domain.ErrUnknownOption)

	stored, err := eng.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Transcript, 1)
	assert.Equal(t, "start", stored.CurrentStepID)
}

func TestEngine_DisplayNameSubstitution(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", DialogueID: "lunch-table", DisplayName: "Sam"})
	require.NoError(t, err)

	s, err = eng.Select(ctx, s.ID, "ASK_TO_SIT")
	require.NoError(t, err)
	assert.Equal(t, "Yes! Mind if I sit here? I'm Sam.", s.Transcript[1].Text)
}

func TestEngine_NotFound(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "nope"})
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	_, err = eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", DialogueID: "nope"})
	assert.ErrorIs(t, err, domain.ErrDialogueNotFound)

	_, err = eng.Select(ctx, "missing", "X")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = eng.Replay(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func brokenSource(t *testing.T) *memory.Source {
	t.Helper()
	b := dsl.New("loop")
	b.Add("start").Say("again?").Option("AGAIN", "again", "start")
	src, err := memory.NewSource(
		dsl.Scenario("broken", "Broken", "", b.Graph()),
		dsl.Scenario("ok", "OK", "", dsl.New("fine").Add("start").Say("bye").MustBuild()),
	)
	require.NoError(t, err)
	return src
}

func TestEngine_InvalidGraph(t *testing.T) {
	eng := newEngine(t, parley.WithSource(brokenSource(t)))

	_, err := eng.Start(context.Background(), parley.StartRequest{ScenarioID: "broken"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidGraph))
}

func TestEngine_TerminalStartIsDoneImmediately(t *testing.T) {
	eng := newEngine(t, parley.WithSource(brokenSource(t)))

	s, err := eng.Start(context.Background(), parley.StartRequest{ScenarioID: "ok"})
	require.NoError(t, err)
	assert.True(t, s.IsDone())
}

func TestEngine_Validate(t *testing.T) {
	eng := newEngine(t, parley.WithSource(brokenSource(t)))

	reports, err := eng.Validate(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byScenario := map[string]parley.Report{}
	for _, r := range reports {
		byScenario[r.ScenarioID] = r
	}
	assert.False(t, byScenario["broken"].OK())
	assert.Contains(t, byScenario["broken"].Violations[0], "no terminal step")
	assert.True(t, byScenario["ok"].OK())
}

func TestEngine_BuiltinScenariosAreValid(t *testing.T) {
	reports, err := newEngine(t).Validate(context.Background())
	require.NoError(t, err)
	for _, r := range reports {
		assert.True(t, r.OK(), "%s/%s: %v %v", r.ScenarioID, r.DialogueID, r.Violations, r.Err)
	}
}

func TestEngine_Options(t *testing.T) {
	var started atomic.Int32
	var n atomic.Int32
	eng := newEngine(t,
		parley.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
		parley.WithLifecycleHooks(domain.LifecycleHooks{
			OnSessionStart: func(context.Context, *domain.SessionEvent) { started.Add(1) },
		}),
		parley.WithLifecycleHooks(domain.LifecycleHooks{
			OnSessionStart: func(context.Context, *domain.SessionEvent) { started.Add(1) },
		}),
		parley.WithInterpolator(func(label, name string) string { return label + "!" }),
	)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, int32(2), started.Load(), "hooks from repeated options are merged")

	s, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	require.NoError(t, err)
	assert.Equal(t, "Hi Alex!!", s.Transcript[1].Text)

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, ids)
}

func TestEngine_ExplicitSessionIDMustBeUnique(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", SessionID: "mine"})
	require.NoError(t, err)
	_, err = eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", SessionID: "mine"})
	assert.Error(t, err)
}

func TestEngine_Subscribe(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)

	diffs, cancel := eng.Subscribe(s.ID)
	defer cancel()

	_, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	require.NoError(t, err)

	select {
	case d := <-diffs:
		require.NotNil(t, d)
		require.NotNil(t, d.CurrentStepID)
		assert.Equal(t, "end", *d.CurrentStepID)
		assert.Equal(t, map[domain.Category]int{domain.Clarity: 1}, d.Scores)
		assert.Len(t, d.Appended, 2)
		assert.False(t, d.Reset)
	case <-time.After(time.Second):
		t.Fatal("no diff received")
	}

	_, err = eng.Replay(ctx, s.ID)
	require.NoError(t, err)
	d := <-diffs
	assert.True(t, d.Reset)

	require.NoError(t, eng.Delete(ctx, s.ID))
	_, open := <-diffs
	assert.False(t, open, "delete closes subscriptions")
}

func TestEngine_Delete(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)
	require.NoError(t, eng.Delete(ctx, s.ID))

	_, err = eng.Get(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_LoamDirectory(t *testing.T) {
	dir := testutils.WriteScenarios(t, map[string]string{"intro.yaml": testutils.AlexYAML})
	eng, err := parley.New(dir)
	require.NoError(t, err)

	list, err := eng.Scenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"meet-alex"}, list[0].DialogueIDs)

	s, err := eng.Start(context.Background(), parley.StartRequest{ScenarioID: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "Hi, I'm Alex.", s.Transcript[0].Text)
}

func TestEngine_WatchUnsupported(t *testing.T) {
	_, err := newEngine(t).Watch(context.Background())
	assert.Error(t, err)
}

func TestEngine_Invalidate(t *testing.T) {
	src := memory.MustSource(memory.Builtin()...)
	eng := newEngine(t, parley.WithSource(src))
	ctx := context.Background()

	g1, err := eng.Graph(ctx, "intro", "")
	require.NoError(t, err)
	g2, err := eng.Graph(ctx, "intro", "meet-alex")
	require.NoError(t, err)
	assert.Same(t, g1, g2, "default dialogue is cached under its own id too")

	changed := dsl.New("meet-alex").Add("start").Say("Hey there.").MustBuild()
	require.NoError(t, src.Add(dsl.Scenario("intro", "Saying hello", "", changed)))

	g3, err := eng.Graph(ctx, "intro", "meet-alex")
	require.NoError(t, err)
	assert.Same(t, g1, g3, "cache holds until invalidated")

	eng.Invalidate("intro")
	g4, err := eng.Graph(ctx, "intro", "meet-alex")
	require.NoError(t, err)
	assert.Equal(t, "Hey there.", g4.Start().NPCText)
}
