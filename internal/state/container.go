package state

import (
	"fmt"
	"sync"
)

// Middleware observes every committed action together with the state right
// after it was applied. Middleware runs synchronously, in dispatch order, while
// the container lock is held: it must treat the state as read-only and must
// not dispatch.
type Middleware func(action Action, next State)

// Thunk computes actions from a consistent view of the current state.
type Thunk func(current State) ([]Action, error)

// Container is the single owner of a session's state. All mutations go
// through Dispatch or DispatchFunc and are serialized by its mutex.
type Container struct {
	mu         sync.Mutex
	state      State
	middleware []Middleware
}

// NewContainer creates a container holding the empty state
func NewContainer() *Container {
	return &Container{state: NewState()}
}

// Use registers a middleware called after every committed action
func (c *Container) Use(m Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, m)
}

// Dispatch applies the actions in order as one atomic transition. If any
// action fails, none of them is committed and the error is returned.
func (c *Container) Dispatch(actions ...Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(actions)
}

// DispatchFunc runs fn against the current state and dispatches the actions
// it returns, without letting another dispatch interleave.
func (c *Container) DispatchFunc(fn Thunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions, err := fn(c.state)
	if err != nil {
		return err
	}
	return c.apply(actions)
}

func (c *Container) apply(actions []Action) error {
	if len(actions) == 0 {
		return nil
	}

	steps := make([]State, len(actions))
	next := c.state
	for i, a := range actions {
		if a == nil {
			return fmt.Errorf("%w: nil action", ErrInvalidAction)
		}
		var err error
		next, err = reduce(next, a)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Type(), err)
		}
		steps[i] = next
	}
	c.state = next

	for i, a := range actions {
		for _, m := range c.middleware {
			m(a, steps[i])
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current state
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Online reports the connectivity flag held in the user slice
func (c *Container) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.User.IsOnline
}

// Reset drops all state, keeping registered middleware. Used on logout.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = NewState()
}
