package runtime

import (
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
)

// DefaultFallbackName replaces the placeholder when a session has no display name.
const DefaultFallbackName = "friend"

// Interpolator is a pure display transform applied to option labels.
// It must not retain or mutate its inputs.
type Interpolator func(label, displayName string) string

// NameInterpolator substitutes domain.NamePlaceholder with the display name,
// or with fallback when the name is blank.
func NameInterpolator(fallback string) Interpolator {
	return func(label, displayName string) string {
		if !strings.Contains(label, domain.NamePlaceholder) {
			return label
		}
		name := strings.TrimSpace(displayName)
		if name == "" {
			name = fallback
		}
		return strings.ReplaceAll(label, domain.NamePlaceholder, name)
	}
}
