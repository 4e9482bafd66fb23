/*
Package domain contains the core data model of the Weft runtime.

It defines the descriptors parsed from a project (nodes, signals and the entry
reference), the shared frame context supplied by the host, the state snapshot
carried across reloads, and the observability events emitted while the graph is
reconciled and executed. The package is kept free of I/O so that adapters and
the runtime can share it without cycles.

# Key Entities

  - NodeDefinition: binds a stable guid to a code unit and a class name.
  - SignalDefinition: a directed edge between two named ports, tagged data or exec.
  - Project: an immutable snapshot of all definitions and the declared entry.
  - FrameContext: host-owned values (resolution, time) read by node instances.
  - Snapshot: the serializable state handed from an outgoing instance to its replacement.
  - GraphStatus: a read-only view of the live graph published after every tick.
*/
package domain
