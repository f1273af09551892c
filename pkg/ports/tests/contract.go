// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id, "meet-alex")
	s.ScenarioID = "intro"
	s.DisplayName = "Sam"
	s.Scores[domain.Clarity] = 2
	s.Transcript = append(s.Transcript,
		domain.TranscriptEntry{Speaker: domain.SpeakerNPC, Text: "Hi, I'm Alex."},
		domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: "Hi Alex!"},
		domain.TranscriptEntry{Speaker: domain.SpeakerNPC, Text: "Nice meeting you."},
	)
	s.CurrentStepID = "end"
	s.Status = domain.StatusDone
	s.Turn = 1
	return s
}

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := sampleSession(sessionID)

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.CurrentStepID, loaded.CurrentStepID)
		assert.Equal(t, session.Status, loaded.Status)
		assert.Equal(t, session.Transcript, loaded.Transcript)
		assert.Equal(t, 2, loaded.Scores[domain.Clarity])
		assert.Equal(t, "Sam", loaded.DisplayName)
		assert.Nil(t, loaded.Graph(), "loaded sessions are never bound")
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Scores[domain.Clarity] = 100

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Scores[domain.Clarity])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, sampleSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, sampleSession(id1)))
		require.NoError(t, store.Save(ctx, id2, sampleSession(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunScenarioSourceContract verifies a ScenarioSource that contains the scenario knownID.
func RunScenarioSourceContract(t *testing.T, source ports.ScenarioSource, knownID string) {
	ctx := context.Background()

	t.Run("Get Known", func(t *testing.T) {
		sc, err := source.GetScenario(ctx, knownID)
		require.NoError(t, err)
		assert.Equal(t, knownID, sc.ID)
		assert.NotEmpty(t, sc.Dialogues)
	})

	t.Run("Get Unknown", func(t *testing.T) {
		_, err := source.GetScenario(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
	})

	t.Run("List Includes Known", func(t *testing.T) {
		list, err := source.ListScenarios(ctx)
		require.NoError(t, err)

		var ids []string
		for _, s := range list {
			ids = append(ids, s.ID)
		}
		assert.Contains(t, ids, knownID)
	})
}
