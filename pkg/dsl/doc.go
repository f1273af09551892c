/*
Package dsl provides a fluent Go builder for dialogue step graphs.

It lets scenarios be written in code instead of YAML or JSON, which is handy for
tests, generated content, and IDE autocompletion.

Example usage:

	g, err := dsl.New("meet-alex").
		Title("Meet Alex").
		Add("start").
		Say("Hi, I'm Alex.").
		Option("CHOOSE_1", "Hi Alex!", "end", dsl.Score(domain.Clarity, 1)).
		Add("end").
		Say("Nice meeting you.").
		Build()

Steps keep the order in which they were first added, and options keep declaration order,
which matters because the first option matching an event id wins.
*/
package dsl
