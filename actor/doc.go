// Package actor implements the cooperative actor model used to run the
// execution engine: a single dispatcher goroutine drains one mailbox in
// FIFO order, guaranteeing that messages from a given sender to a given
// target are delivered in the order they were sent. Actors are organised
// in a parent/child tree; an unhandled failure stops an actor's children,
// then propagates to its parent as a FAILED signal unless a SignalHandler
// contains it.
//
// A WorkerPool registered on the System (AddPool) can be fetched by a
// handler through Context.Pool to run blocking work off the dispatcher
// goroutine and report back with an ordinary message. No actor in this
// module does so: the engine's node processors run their node functions,
// model execution and storage I/O included, on the dispatcher goroutine.
package actor
