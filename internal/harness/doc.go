// Package harness runs YAML scenario files against a real dispatcher.
//
// A scenario is a named sequence of operations with optional
// expectations per step: whether the envelope is ok, the error kind
// when it is not, and a subset match over the result. Scenarios
// exercise the full stack (dispatcher, coordinator, both stores, scope
// manager) exactly the way a transport would, so a green scenario is a
// statement about observable behavior, not about internals.
//
// The runner collects every step's envelope, which doubles as the
// input for golden-file comparison in tests.
package harness
