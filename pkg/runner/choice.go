package runner

import (
	"slices"
	"strconv"
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
)

// ResolveChoice maps player input to an event id of the view.
// Input may be the event id itself or the 1-based option number.
// An event id match wins over a number, exact before case-insensitive.
func ResolveChoice(view *domain.View, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if view == nil || input == "" {
		return "", false
	}
	for _, opt := range view.Options {
		if opt.EventID == input {
			return opt.EventID, true
		}
	}
	for _, opt := range view.Options {
		if strings.EqualFold(opt.EventID, input) {
			return opt.EventID, true
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(view.Options) {
		return view.Options[n-1].EventID, true
	}
	return "", false
}

// CategoryScore is one line of a score summary.
type CategoryScore struct {
	Category domain.Category `json:"category"`
	Score    int             `json:"score"`
}

// Scores lists the categories a session was credited in, well-known categories first.
// Categories no selected option ever touched are left out rather than shown as zero.
func Scores(s *domain.Session) []CategoryScore {
	if s == nil {
		return nil
	}
	var out []CategoryScore
	seen := make(map[domain.Category]bool, len(domain.KnownCategories))
	for _, c := range domain.KnownCategories {
		seen[c] = true
		if v, ok := s.Score(c); ok {
			out = append(out, CategoryScore{Category: c, Score: v})
		}
	}
	var extra []string
	for c := range s.Scores {
		if !seen[c] {
			extra = append(extra, string(c))
		}
	}
	slices.Sort(extra)
	for _, c := range extra {
		out = append(out, CategoryScore{Category: domain.Category(c), Score: s.Scores[domain.Category(c)]})
	}
	return out
}

// CategoryTitle turns a category key such as "selfAdvocacy" into "Self advocacy".
func CategoryTitle(c domain.Category) string {
	var b strings.Builder
	for i, r := range string(c) {
		switch {
		case i == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(string(r)))
		case r == '_' || r == '-':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
