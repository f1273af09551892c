/*
Package parley is a dialogue practice engine for rehearsing everyday social conversations.

A Scenario groups one or more Dialogues. Each Dialogue is a step graph: every step has an
NPC line and a list of options the user can pick; picking an option moves to the next step
and credits score categories such as clarity or empathy. A step with no options ends the
dialogue.

# Architecture

The engine is hexagonal. Scenario definitions come from a ports.ScenarioSource (a directory
of YAML/JSON/Markdown files through loam, an in-memory list, or anything else), sessions
live in a ports.SessionStore (memory, file, Redis), and hosts (the CLI, the HTTP server,
the MCP server) drive the engine through this package.

# Usage

	eng, err := parley.New("./scenarios")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", DisplayName: "Sam"})
	if err != nil {
		log.Fatal(err)
	}

	s, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	if errors.Is(err, domain.ErrSessionAlreadyDone) {
		// offer a replay
	}

Graphs are validated once, when first used, and cached until the source reports a change.
*/
package parley
