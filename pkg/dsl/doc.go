/*
Package dsl builds Weft projects in Go instead of YAML or JSON.

Exec bindings are declared on the node that fires them and data bindings on the
node that pulls them, mirroring where the runtime stores each kind.

	b := dsl.New("counting")
	b.Add("1").Name("clock").Class("std:clock", "Clock").Exec("tick", "2", "inc")
	b.Add("2").Name("count").Class("std:counter", "Counter").Exec("done", "3", "in")
	b.Add("3").Name("print").Class("std:print", "Printer").Data("value", "2", "count")
	b.Entry("1", "tick")

	loader, err := b.Build()
	// ... pass loader to weft.New with weft.WithProjectLoader
*/
package dsl
