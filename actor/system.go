package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreflow/coreflow/log"
)

type node struct {
	id       ID
	parent   ID
	class    string
	actor    Actor
	state    State
	children map[ID]bool
	nextNum  int
	err      error
}

// System is the single-threaded dispatcher: one mailbox, one goroutine
// draining it, and a registry of live actors. All state mutation happens
// on the dispatcher goroutine; the registry map itself is guarded by mu
// only for the brief window Spawn/remove touch it from outside callers
// (tests, external Send calls).
type System struct {
	mu    sync.Mutex
	nodes map[ID]*node

	mailbox chan Msg
	logger  log.Logger

	pools map[string]*WorkerPool

	done   chan struct{}
	result error
}

// New creates a system with an implicit running root actor.
func New(logger log.Logger) *System {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	s := &System{
		nodes:   make(map[ID]*node),
		mailbox: make(chan Msg, 256),
		logger:  logger,
		pools:   make(map[string]*WorkerPool),
		done:    make(chan struct{}),
	}
	s.nodes[Root] = &node{id: Root, state: Running, children: make(map[ID]bool)}
	return s
}

// AddPool registers an auxiliary worker pool under a class name, where a
// handler can fetch it through Context.Pool. The system itself routes no
// work to a pool: every handler, node functions included, runs on the
// dispatcher goroutine.
func (s *System) AddPool(class string, pool *WorkerPool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[class] = pool
}

// Spawn creates a new actor as a child of parent and enqueues its start
// signal. The returned id is stable for the actor's lifetime.
func (s *System) Spawn(parent ID, name, class string, a Actor) (ID, error) {
	s.mu.Lock()
	p, ok := s.nodes[parent]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("actor: parent %s not found", parent)
	}
	if p.state != Running && p.state != Starting {
		s.mu.Unlock()
		return "", fmt.Errorf("actor: parent %s is not running", parent)
	}
	n := p.nextNum
	p.nextNum++
	id := parent.Child(name, n)
	p.children[id] = true
	s.nodes[id] = &node{id: id, parent: parent, class: class, actor: a, state: NotStarted, children: make(map[ID]bool)}
	s.mu.Unlock()

	s.enqueue(Msg{Target: id, signal: SigStart})
	return id, nil
}

// Send delivers an ordinary message to target's mailbox.
func (s *System) Send(from, to ID, name string, args ...any) {
	s.enqueue(Msg{Sender: from, Target: to, Name: name, Args: args})
}

// Stop requests target (and, recursively, all its children first) stop.
func (s *System) Stop(requester, target ID) error {
	s.mu.Lock()
	n, ok := s.nodes[target]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("actor: target %s not found", target)
	}
	if requester != target && requester != n.parent && requester != Root {
		s.mu.Unlock()
		return fmt.Errorf("actor: %s may not stop %s", requester, target)
	}
	s.mu.Unlock()
	s.enqueue(Msg{Target: target, signal: SigStop})
	return nil
}

func (s *System) enqueue(m Msg) {
	select {
	case s.mailbox <- m:
	case <-s.done:
	}
}

// Run drains the mailbox on the calling goroutine until the root actor
// reaches a terminal state, the context is cancelled, or Shutdown is
// called. It returns the first error a top-level FAILED signal carried, if
// any.
func (s *System) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return s.result
		case m := <-s.mailbox:
			s.dispatch(m)
		}
	}
}

// Shutdown stops the dispatch loop from outside, used for SIGINT/SIGTERM
// handling in the process-control wrapper.
func (s *System) Shutdown(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		s.result = err
		close(s.done)
	}
}

// State returns the current lifecycle state of id.
func (s *System) State(id ID) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return 0, false
	}
	return n.state, true
}

func (s *System) dispatch(m Msg) {
	s.mu.Lock()
	n, ok := s.nodes[m.Target]
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("actor: message %s dropped, target %s not found", m.Name, m.Target)
		return
	}

	if m.IsSignal() {
		s.dispatchSignal(n, m)
		return
	}

	if n.state != Running {
		s.logger.Warn("actor: message %s to %s dropped, actor not running (%s)", m.Name, n.id, n.state)
		return
	}

	if n.actor == nil {
		s.logger.Warn("actor: message %s to %s dropped, no handlers registered", m.Name, n.id)
		return
	}

	handler, ok := n.actor.Handlers()[m.Name]
	if !ok {
		s.logger.Warn("actor: %s has no handler for %q", n.id, m.Name)
		return
	}

	if sp, ok := n.actor.(SignatureProvider); ok {
		if sig, ok := sp.Signatures()[m.Name]; ok {
			if err := checkSignature(m.Name, sig, m.Args); err != nil {
				s.failActor(n, err)
				return
			}
		}
	}

	ctx := &Context{sys: s, self: n.id}
	if err := s.invoke(ctx, handler, m); err != nil {
		s.failActor(n, err)
	}
}

// invoke runs a handler, recovering a panic into an error so one bad node
// function cannot take down the dispatcher goroutine.
func (s *System) invoke(ctx *Context, handler Handler, m Msg) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actor: handler panic: %v", r)
		}
	}()
	return handler(ctx, m)
}

func (s *System) dispatchSignal(n *node, m Msg) {
	switch m.signal {
	case SigStart:
		s.handleStart(n)
	case SigStop:
		s.handleStop(n)
	case SigStarted, SigStopped:
		// n is the parent; m.Sender is the child that started or stopped.
		if child, ok := s.lookup(m.Sender); ok {
			s.notifyParent(child, m.signal, nil)
		}
		if m.signal == SigStopped {
			s.removeNode(m.Sender)
		}
	case SigFailed:
		s.handleChildFailed(n, m)
	}
}

func (s *System) handleStart(n *node) {
	s.setState(n, Starting)
	ctx := &Context{sys: s, self: n.id}
	if handler, ok := n.actor.Handlers()[string(SigStart)]; ok {
		if err := s.invoke(ctx, handler, Msg{Target: n.id, signal: SigStart}); err != nil {
			s.failActor(n, err)
			return
		}
	}
	s.setState(n, Running)
	s.enqueue(Msg{Target: n.parent, Sender: n.id, signal: SigStarted})

	if n.id == Root {
	}
}

func (s *System) handleStop(n *node) {
	s.mu.Lock()
	children := make([]ID, 0, len(n.children))
	for c := range n.children {
		children = append(children, c)
	}
	s.mu.Unlock()
	if len(children) > 0 {
		for _, c := range children {
			s.enqueue(Msg{Target: c, signal: SigStop})
		}
		// re-enqueue our own stop behind the children's; it will find an
		// empty children set once they've all reported stopped.
		s.enqueue(Msg{Target: n.id, signal: SigStop})
		return
	}

	s.setState(n, Stopping)
	ctx := &Context{sys: s, self: n.id}
	if handler, ok := n.actor.Handlers()[string(SigStop)]; ok {
		if err := s.invoke(ctx, handler, Msg{Target: n.id, signal: SigStop}); err != nil {
			s.failActor(n, err)
			return
		}
	}
	s.setState(n, Stopped)
	s.enqueue(Msg{Target: n.parent, Sender: n.id, signal: SigStopped})

	if n.id == Root {
		s.Shutdown(nil)
	}
}

func (s *System) handleChildFailed(n *node, m Msg) {
	contained := false
	if sh, ok := n.actor.(SignalHandler); ok {
		ctx := &Context{sys: s, self: n.id}
		contained = sh.OnSignal(ctx, SigFailed, m.Sender, m.cause)
	}
	s.mu.Lock()
	delete(n.children, m.Sender)
	s.mu.Unlock()

	if contained {
		return
	}
	s.failActor(n, m.cause)
}

func (s *System) failActor(n *node, cause error) {
	s.setState(n, ErrorState)
	n.err = cause
	s.logger.Error("actor %s failed: %v", n.id, cause)

	s.mu.Lock()
	children := make([]ID, 0, len(n.children))
	for c := range n.children {
		children = append(children, c)
	}
	s.mu.Unlock()
	for _, c := range children {
		s.enqueue(Msg{Target: c, signal: SigStop})
	}

	s.setState(n, Failed)
	s.enqueue(Msg{Target: n.parent, Sender: n.id, signal: SigFailed, cause: cause})

	if n.id == Root {
		s.Shutdown(cause)
	}
}

func (s *System) notifyParent(n *node, sig Signal, cause error) {
	if parent, ok := s.lookup(n.parent); ok {
		if sh, ok := parent.actor.(SignalHandler); ok {
			ctx := &Context{sys: s, self: parent.id}
			sh.OnSignal(ctx, sig, n.id, cause)
		}
	}
}

func (s *System) lookup(id ID) (*node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

func (s *System) setState(n *node, st State) {
	s.mu.Lock()
	n.state = st
	s.mu.Unlock()
}

func (s *System) removeNode(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if p, ok := s.nodes[n.parent]; ok {
		delete(p.children, id)
	}
	delete(s.nodes, id)
}
