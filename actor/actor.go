// Package actor implements a cooperative, single-threaded, in-process
// actor runtime: a hierarchical registry of actors communicating through
// FIFO mailboxes, dispatched by one dedicated goroutine, with supervision
// that propagates failures up the parent chain.
package actor

import "fmt"

// ID is a hierarchical actor address, e.g. "/engine-0/job1-0/graph-1".
type ID string

// Root is the address of the implicit top-level actor every other actor is
// spawned under, directly or transitively.
const Root ID = "/"

// Child returns the id of the n-th child spawned under id with the given
// name, matching the "{parent}/{name}-{n}" naming scheme.
func (id ID) Child(name string, n int) ID {
	if id == Root {
		return ID(fmt.Sprintf("/%s-%d", name, n))
	}
	return ID(fmt.Sprintf("%s/%s-%d", id, name, n))
}

// State is an actor's lifecycle state.
type State int

const (
	NotStarted State = iota
	Starting
	Running
	Stopping
	Stopped
	ErrorState
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Starting:
		return "STARTING"
	case Running:
		return "RUNNING"
	case Stopping:
		return "STOPPING"
	case Stopped:
		return "STOPPED"
	case ErrorState:
		return "ERROR"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one the actor does not leave.
func (s State) Terminal() bool {
	return s == Stopped || s == Failed
}

// Signal names the small closed set of lifecycle messages the system
// synthesises itself, as opposed to ordinary actor-defined messages.
type Signal string

const (
	SigStart   Signal = "actor:start"
	SigStop    Signal = "actor:stop"
	SigStarted Signal = "actor:started"
	SigStopped Signal = "actor:stopped"
	SigFailed  Signal = "actor:failed"
)

// Msg is one mailbox entry: an ordinary message or a signal, identified by
// Name, sent from Sender to Target.
type Msg struct {
	Sender ID
	Target ID
	Name   string
	Args   []any

	signal Signal
	cause  error
}

// IsSignal reports whether m is a lifecycle signal rather than an ordinary
// actor-defined message.
func (m Msg) IsSignal() bool { return m.signal != "" }

// Handler is one message handler an actor registers for a message name.
// Ctx exposes spawn/send/stop bound to the calling actor's identity.
type Handler func(ctx *Context, msg Msg) error

// Actor is the behaviour every spawned entity implements: a table mapping
// message names to handlers, looked up once per delivered message. This is
// the explicit-handler-table substitute for per-message-class reflection.
type Actor interface {
	Handlers() map[string]Handler
}

// SignalHandler is implemented by actors that want to intercept a child's
// FAILED signal. Returning true contains the failure at this actor;
// returning false lets it propagate to this actor's own parent.
type SignalHandler interface {
	OnSignal(ctx *Context, signal Signal, from ID, cause error) bool
}
