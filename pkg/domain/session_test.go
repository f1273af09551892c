package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph map[string]Step

func (g fakeGraph) Step(id string) (Step, bool) {
	s, ok := g[id]
	return s, ok
}

func (g fakeGraph) ID() string { return "fake" }

func TestStep_Kind(t *testing.T) {
	assert.Equal(t, StepTerminal, Step{ID: "end"}.Kind())
	assert.Equal(t, StepChoice, Step{ID: "start", Options: []Option{{EventID: "A", NextStepID: "end"}}}.Kind())
}

func TestStep_FindOption_FirstMatchWins(t *testing.T) {
	step := Step{
		ID: "start",
		Options: []Option{
			{EventID: "DUP", Label: "first", NextStepID: "a"},
			{EventID: "DUP", Label: "second", NextStepID: "b"},
		},
	}

	opt, ok := step.FindOption("DUP")
	require.True(t, ok)
	assert.Equal(t, "first", opt.Label)

	_, ok = step.FindOption("MISSING")
	assert.False(t, ok)
}

func TestSession_CurrentStep(t *testing.T) {
	s := NewSession("s1", "intro")

	_, err := s.CurrentStep()
	assert.ErrorIs(t, err, ErrGraphNotBound)

	s.Bind(fakeGraph{"start": {ID: "start", NPCText: "Hello"}})
	step, err := s.CurrentStep()
	require.NoError(t, err)
	assert.Equal(t, "Hello", step.NPCText)
}

func TestSession_ScoreAbsenceIsNotZero(t *testing.T) {
	s := NewSession("s1", "intro")
	s.Scores[Empathy] = 0

	v, ok := s.Score(Empathy)
	assert.True(t, ok)
	assert.Equal(t, 0, v)

	_, ok = s.Score(Clarity)
	assert.False(t, ok, "never-credited categories must be reported as absent")
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s1", "intro")
	s.Scores[Clarity] = 1
	s.Transcript = append(s.Transcript, TranscriptEntry{Speaker: SpeakerNPC, Text: "Hi"})

	c := s.Clone()
	c.Scores[Clarity] = 5
	c.Transcript[0].Text = "changed"

	assert.Equal(t, 1, s.Scores[Clarity])
	assert.Equal(t, "Hi", s.Transcript[0].Text)
}

func TestScenario_Dialogue(t *testing.T) {
	sc := &Scenario{ID: "coffee", Dialogues: []StepGraph{{ID: "first"}, {ID: "second"}}}

	d, err := sc.Dialogue("")
	require.NoError(t, err)
	assert.Equal(t, "first", d.ID)

	d, err = sc.Dialogue("second")
	require.NoError(t, err)
	assert.Equal(t, "second", d.ID)

	_, err = sc.Dialogue("third")
	assert.ErrorIs(t, err, ErrDialogueNotFound)

	assert.Equal(t, []string{"first", "second"}, sc.Summary().DialogueIDs)
}
