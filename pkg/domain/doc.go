/*
Package domain contains the core domain models for the Parley dialogue engine.

It defines the entities of a practice session: the declarative step graph a
scenario is authored as, and the mutable Session that records a single
play-through. This package is kept pure and free of external dependencies
like I/O or persistence.

# Key Entities

  - StepGraph: An immutable, named collection of Steps (one playable Dialogue).
  - Step: One point in the dialogue (NPC line + options, or terminal).
  - Option: A user-selectable response carrying a transition target and score deltas.
  - Session: The runtime snapshot of one play-through (current step, scores, transcript).
  - Scenario: A top-level practice unit grouping one or more Dialogues.
*/
package domain
