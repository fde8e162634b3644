package actor

// Context is the handle a running actor's handler receives: everything it
// may do to the rest of the system is scoped to the actor's own identity.
type Context struct {
	sys  *System
	self ID
}

// Self returns the identity of the actor this context belongs to.
func (c *Context) Self() ID { return c.self }

// Spawn creates a new child actor of the given class under this actor.
func (c *Context) Spawn(name, class string, a Actor) (ID, error) {
	return c.sys.Spawn(c.self, name, class, a)
}

// Send delivers a message to target, recorded as sent from this actor.
func (c *Context) Send(target ID, name string, args ...any) {
	c.sys.Send(c.self, target, name, args...)
}

// Reply sends a message back to the sender of msg.
func (c *Context) Reply(msg Msg, name string, args ...any) {
	c.sys.Send(c.self, msg.Sender, name, args...)
}

// Stop requests a child (or this actor itself) stop.
func (c *Context) Stop(target ID) error {
	return c.sys.Stop(c.self, target)
}

// StopSelf requests this actor's own shutdown.
func (c *Context) StopSelf() error {
	return c.sys.Stop(c.self, c.self)
}

// State returns the lifecycle state of any actor in the system.
func (c *Context) State(id ID) (State, bool) {
	return c.sys.State(id)
}

// Pool returns the auxiliary worker pool registered under class, if any.
func (c *Context) Pool(class string) (*WorkerPool, bool) {
	c.sys.mu.Lock()
	defer c.sys.mu.Unlock()
	p, ok := c.sys.pools[class]
	return p, ok
}
