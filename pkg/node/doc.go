/*
Package node defines the capability set a node class must satisfy to be bound
into a Weft graph.

A Class declares its ports through a Spec and builds Instances. An Instance
exposes one callable per declared data output and per declared exec input, plus
the lifecycle methods Init, GetState and SetState.

Ports is the explicit slot table that realizes signals. The runtime rebinds
slots in it when signals are patched; instances only ever go through it:

  - Pull reads a data input. The bound slot executes the source's data output.
  - Fire triggers an exec output. Every bound slot executes a target's exec input.

Unbound slots are inert: Pull yields nil and Fire does nothing.
*/
package node
