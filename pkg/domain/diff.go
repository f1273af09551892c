package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStepID *string        `json:"current_step_id,omitempty"`
	Status        *SessionStatus `json:"status,omitempty"`

	// Scores contains only categories whose value changed or appeared.
	Scores map[Category]int `json:"scores,omitempty"`

	// Appended holds transcript entries added since the old snapshot.
	// When the transcript was rewritten (replay), Reset is true and Appended holds the whole transcript.
	Appended []TranscriptEntry `json:"appended,omitempty"`
	Reset    bool              `json:"reset,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.CurrentStepID != newSession.CurrentStepID {
		diff.CurrentStepID = &newSession.CurrentStepID
	}
	if oldSession == nil || oldSession.Status != newSession.Status {
		diff.Status = &newSession.Status
	}

	diff.Scores = diffScores(oldSession, newSession)
	diff.Appended, diff.Reset = diffTranscript(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffScores(old, new *Session) map[Category]int {
	delta := make(map[Category]int)
	for k, v := range new.Scores {
		if old == nil {
			delta[k] = v
			continue
		}
		if prev, ok := old.Scores[k]; !ok || prev != v {
			delta[k] = v
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffTranscript assumes append-only transcripts within one session.
// A shorter transcript or a changed prefix means the session was replayed.
func diffTranscript(old, new *Session) ([]TranscriptEntry, bool) {
	if old == nil {
		if len(new.Transcript) == 0 {
			return nil, false
		}
		return new.Transcript, false
	}

	oldLen := len(old.Transcript)
	if len(new.Transcript) < oldLen || !samePrefix(old.Transcript, new.Transcript) {
		return new.Transcript, true
	}
	if len(new.Transcript) == oldLen {
		return nil, false
	}
	return new.Transcript[oldLen:], false
}

func samePrefix(prefix, full []TranscriptEntry) bool {
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		d.Status == nil &&
		len(d.Scores) == 0 &&
		len(d.Appended) == 0 &&
		!d.Reset
}
