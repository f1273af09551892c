// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// AlexYAML is the introductory scenario in YAML form.
const AlexYAML = `id: intro
title: Saying hello
description: Introduce yourself to a new classmate.
dialogues:
  - id: meet-alex
    title: Meet Alex
    steps:
      - id: start
        npc: "Hi, I'm Alex."
        options:
          - label: Hi Alex!
            event_id: CHOOSE_1
            next: end
            scores:
              clarity: 1
      - id: end
        npc: Nice meeting you.
`

// WriteScenarios creates a temporary directory populated with files (name -> content).
// It returns the absolute path of the directory.
func WriteScenarios(t *testing.T, files map[string]string) string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// SetupTestRepo writes files into a temp dir and opens a strict loam repository over it.
func SetupTestRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir := WriteScenarios(t, files)
	opts = append([]loam.Option{loam.WithStrict(true), loam.WithReadOnly(true)}, opts...)
	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return dir, repo
}
