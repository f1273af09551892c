package memory

import "github.com/parleyhq/parley/pkg/domain"

// Builtin returns the scenarios bundled with the binary.
// They are used when no scenario directory is configured.
func Builtin() []domain.Scenario {
	return []domain.Scenario{
		{
			ID:          "intro",
			Title:       "Saying hello",
			Description: "Introduce yourself to a new classmate.",
			Dialogues: []domain.StepGraph{
				{
					ID:    "meet-alex",
					Title: "Meet Alex",
					Steps: []domain.Step{
						{
							ID:      "start",
							NPCText: "Hi, I'm Alex.",
							Options: []domain.Option{
								{Label: "Hi Alex!", EventID: "CHOOSE_1", NextStepID: "end", ScoreDeltas: map[domain.Category]int{domain.Clarity: 1}},
							},
						},
						{ID: "end", NPCText: "Nice meeting you."},
					},
				},
				{
					ID:    "lunch-table",
					Title: "Joining a lunch table",
					Steps: []domain.Step{
						{
							ID:      "start",
							NPCText: "Oh, hey. Are you looking for a seat?",
							Options: []domain.Option{
								{Label: "Yes! Mind if I sit here? I'm {{name}}.", EventID: "ASK_TO_SIT", NextStepID: "welcome", ScoreDeltas: map[domain.Category]int{domain.Clarity: 1, domain.Assertiveness: 1}},
								{Label: "Uh, I guess.", EventID: "MUMBLE", NextStepID: "nudge"},
							},
						},
						{
							ID:      "nudge",
							NPCText: "You can sit with us if you want.",
							Options: []domain.Option{
								{Label: "Thanks, that's kind of you.", EventID: "THANK", NextStepID: "welcome", ScoreDeltas: map[domain.Category]int{domain.Empathy: 1}},
							},
						},
						{
							ID:      "welcome",
							NPCText: "We were just talking about the science fair. Are you entering?",
							Options: []domain.Option{
								{Label: "I am. What are you all building?", EventID: "ASK_BACK", NextStepID: "end", ScoreDeltas: map[domain.Category]int{domain.SocialAwareness: 2}},
								{Label: "Yes.", EventID: "SHORT_ANSWER", NextStepID: "end"},
							},
						},
						{ID: "end", NPCText: "Cool. See you around!"},
					},
				},
			},
		},
		{
			ID:          "asking-for-help",
			Title:       "Asking for help",
			Description: "Ask a teacher for an extension on an assignment.",
			Dialogues: []domain.StepGraph{
				{
					ID:    "extension",
					Title: "The late essay",
					Steps: []domain.Step{
						{
							ID:      "start",
							NPCText: "Hi, come in. What can I do for you?",
							Options: []domain.Option{
								{Label: "I need a few more days for the essay because I was sick last week.", EventID: "EXPLAIN", NextStepID: "consider", ScoreDeltas: map[domain.Category]int{domain.SelfAdvocacy: 2, domain.Clarity: 1}},
								{Label: "Never mind, it's nothing.", EventID: "BACK_OFF", NextStepID: "probe"},
							},
						},
						{
							ID:      "probe",
							NPCText: "Are you sure? You look like something is on your mind.",
							Options: []domain.Option{
								{Label: "Actually, could I have more time for the essay?", EventID: "ASK", NextStepID: "consider", ScoreDeltas: map[domain.Category]int{domain.SelfAdvocacy: 1}},
								{Label: "I'm sure.", EventID: "LEAVE", NextStepID: "missed"},
							},
						},
						{
							ID:      "consider",
							NPCText: "I can give you until Monday. Will that work?",
							Options: []domain.Option{
								{Label: "Yes, thank you for understanding.", EventID: "ACCEPT", NextStepID: "end", ScoreDeltas: map[domain.Category]int{domain.Empathy: 1}},
								{Label: "Could it be Wednesday? I still have a test on Monday.", EventID: "NEGOTIATE", NextStepID: "end", ScoreDeltas: map[domain.Category]int{domain.Assertiveness: 2}},
							},
						},
						{ID: "missed", NPCText: "Okay. My door is always open."},
						{ID: "end", NPCText: "Good luck with the essay!"},
					},
				},
			},
		},
	}
}
