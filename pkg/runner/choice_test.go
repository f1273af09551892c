package runner_test

import (
	"testing"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
)

func TestResolveChoice(t *testing.T) {
	view := &domain.View{Options: []domain.RenderedOption{{EventID: "ASK_TO_SIT"}, {EventID: "MUMBLE"}}}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1", "ASK_TO_SIT", true},
		{" 2 ", "MUMBLE", true},
		{"0", "", false},
		{"3", "", false},
		{"mumble", "MUMBLE", true},
		{"ASK", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := runner.ResolveChoice(view, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, ok := runner.ResolveChoice(nil, "1")
	assert.False(t, ok)
}

func TestResolveChoice_EventIDBeforeIndex(t *testing.T) {
	view := &domain.View{Options: []domain.RenderedOption{{EventID: "2"}, {EventID: "1"}, {EventID: "Wave"}}}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2", "2", true},
		{"1", "1", true},
		{"3", "Wave", true},
		{"wave", "Wave", true},
		{"5", "", false},
	}
	for _, tt := range tests {
		got, ok := runner.ResolveChoice(view, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestScores(t *testing.T) {
	s := domain.NewSession("s", "d")
	s.Scores[domain.SocialAwareness] = 2
	s.Scores[domain.Clarity] = 0
	s.Scores["humor"] = 1

	assert.Equal(t, []runner.CategoryScore{
		{Category: domain.Clarity, Score: 0},
		{Category: domain.SocialAwareness, Score: 2},
		{Category: "humor", Score: 1},
	}, runner.Scores(s))
	assert.Nil(t, runner.Scores(nil))
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Self advocacy", runner.CategoryTitle(domain.SelfAdvocacy))
	assert.Equal(t, "Social awareness", runner.CategoryTitle(domain.SocialAwareness))
	assert.Equal(t, "Clarity", runner.CategoryTitle(domain.Clarity))
	assert.Equal(t, "Small talk", runner.CategoryTitle("small_talk"))
}
