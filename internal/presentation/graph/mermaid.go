package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
)

// Overlay marks the progress of a session on the exported graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFor builds an overlay from a session's path.
func OverlayFor(s *domain.Session) *Overlay {
	if s == nil {
		return nil
	}
	return &Overlay{VisitedSteps: s.Path, CurrentStep: s.CurrentStepID}
}

// GenerateMermaid produces a Mermaid flowchart for a dialogue.
// The entry step is drawn as a circle and terminal steps as stadiums.
// Edges are labelled with the event id and the score categories the option credits.
func GenerateMermaid(g domain.StepGraph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range g.Steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case step.ID == domain.StartStepID:
			opener, closer = "((", "))"
		case step.IsTerminal():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(step.ID), closer)

		for _, opt := range step.Options {
			label := opt.EventID
			if cats := creditedCategories(opt); cats != "" {
				label += " +" + cats
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(label), sanitizeMermaidID(opt.NextStepID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] || id == overlay.CurrentStep {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func creditedCategories(opt domain.Option) string {
	var cats []string
	for c, d := range opt.ScoreDeltas {
		if d > 0 {
			cats = append(cats, string(c))
		}
	}
	sort.Strings(cats)
	return strings.Join(cats, ",")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
