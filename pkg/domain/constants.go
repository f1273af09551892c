package domain

// StartStepID is the unique entry point of every StepGraph.
const StartStepID = "start"

// NamePlaceholder is substituted with the user's display name when an option
// label is rendered or recorded in the transcript.
const NamePlaceholder = "{{name}}"

// Category is a named score dimension accumulated across a session.
// The set is open: graphs may introduce categories not listed here.
type Category string

// Well-known score categories.
const (
	Clarity         Category = "clarity"
	Empathy         Category = "empathy"
	Assertiveness   Category = "assertiveness"
	SelfAdvocacy    Category = "selfAdvocacy"
	SocialAwareness Category = "socialAwareness"
)

// KnownCategories lists the well-known categories in display order.
var KnownCategories = []Category{Clarity, Empathy, Assertiveness, SelfAdvocacy, SocialAwareness}
