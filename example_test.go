package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/dsl"
)

// ExampleNew_memory shows an engine over scenarios defined in code.
func ExampleNew_memory() {
	alex := dsl.New("meet-alex").
		Add("start").
		Say("Hi, I'm Alex.").
		Option("CHOOSE_1", "Hi Alex!", "end", dsl.Score(domain.Clarity, 1)).
		Add("end").
		Say("Nice meeting you.").
		MustBuild()

	src := memory.MustSource(dsl.Scenario("intro", "Saying hello", "", alex))
	eng, err := parley.New("", parley.WithSource(src))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s, err := eng.Start(ctx, parley.StartRequest{ScenarioID: "intro", SessionID: "demo"})
	if err != nil {
		log.Fatal(err)
	}
	s, err = eng.Select(ctx, s.ID, "CHOOSE_1")
	if err != nil {
		log.Fatal(err)
	}

	for _, line := range s.Transcript {
		fmt.Printf("%s: %s\n", line.Speaker, line.Text)
	}
	fmt.Println("status:", s.Status, "clarity:", s.Scores[domain.Clarity])

	// Output:
	// npc: Hi, I'm Alex.
	// user: Hi Alex!
	// npc: Nice meeting you.
	// status: done clarity: 1
}
