package domain

// RenderedOption is an option as presented to the user, with placeholders substituted.
type RenderedOption struct {
	EventID string `json:"event_id"`
	Label   string `json:"label"`
}

// View is what a presentation layer needs to draw the current step.
type View struct {
	SessionID string           `json:"session_id"`
	StepID    string           `json:"step_id"`
	NPCText   string           `json:"npc"`
	Options   []RenderedOption `json:"options"`
	Terminal  bool             `json:"terminal"`
}
