package loam

// ScenarioMetadata is the frontmatter (or whole-document data for .json/.yaml files) of a scenario file.
// Dialogues stay untyped here and are decoded with mapstructure, because loam hands back
// whatever the serializer produced (json.Number in strict mode, nested maps from YAML).
type ScenarioMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
	Dialogues   []any  `json:"dialogues" mapstructure:"dialogues"`

	// Steps is shorthand for a scenario with a single dialogue named after the scenario.
	Steps []any `json:"steps" mapstructure:"steps"`
}
