/*
Package runner implements the interactive play loop for parley sessions.

It sits between the engine and the person practicing: it shows the NPC line and
the numbered options of the current step, reads a choice, applies it, and at the
end prints the score summary and offers a replay.

# Key Components

  - Runner: the loop itself.
  - IOHandler: decouples how views are shown and choices are read.
  - TextHandler: interactive terminal usage, optionally with a Markdown renderer.
  - JSONHandler: newline-delimited JSON for scripted clients.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	s, _ := engine.Start(ctx, parley.StartRequest{ScenarioID: "intro"})
	if err := r.Run(ctx, engine, s.ID); err != nil {
		log.Fatal(err)
	}
*/
package runner
