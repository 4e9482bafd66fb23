/*
Package weft is a hot-reloadable dataflow graph runtime.

A project describes node instances (a code unit module plus a class name),
signals between their ports, and an entry point. The runtime loads each code
unit, instantiates the nodes, wires the signals and, on every tick, invokes
the entry. Editing a code unit or the project file while the host runs swaps
the affected nodes in place and carries their state across.

# Signals

There are two kinds of signal:

  - Data: the target pulls a value from the source's data output whenever it
    reads its data input.
  - Exec: firing the source's exec output calls the target's exec input.

A node that faults (constructor, init or execution) is marked invalid and
unwired; the rest of the graph keeps running, and the node comes back on the
next reload of its unit.

# Usage

The host owns the frame context and drives the clock:

	frame := domain.NewFrameContext(1280, 720)
	rt, err := weft.New("project.yaml", frame, weft.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Close()

	for now := range ticker.C {
		frame.Advance(now.Sub(start).Seconds())
		if err := rt.Tick(ctx); err != nil {
			logger.Error("project unreadable", "err", err)
		}
	}

By default code units are Lua scripts next to the project file, and the
built-in classes in pkg/stdnodes are available under the "std:" prefix.
*/
package weft
