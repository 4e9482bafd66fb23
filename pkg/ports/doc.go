/*
Package ports defines the driven ports (interfaces) of the Weft runtime.

These interfaces decouple the graph manager from where projects, code units and
node state actually live, so the same runtime drives Lua scripts on disk, Go
classes registered in-process, or test doubles.

# Key Interfaces

  - ProjectLoader: produces the current Project (file, memory).
  - UnitLoader: loads a code unit by module path and watches it for changes (Lua, native, router).
  - ChangeWatch: non-blocking change detection for one backing location.
  - SnapshotStore: persists node state snapshots across process restarts (memory, file, redis).
  - DistributedLocker: serializes checkpoints from several runtimes sharing one store.
*/
package ports
