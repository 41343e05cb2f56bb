package input

import (
	"github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/log"
)

// Controller tracks held keys and the committed direction.
// The direction is re-evaluated whenever either changes.
// It is not safe for concurrent use; the game loop owns it.
type Controller struct {
	keys      Snapshot
	committed types.Direction
}

func NewController() *Controller {
	return &Controller{}
}

// KeyDown records a key press.
func (c *Controller) KeyDown(k Key) {
	c.keys = c.keys.With(k, true)
	c.evaluate()
}

// KeyUp records a key release.
func (c *Controller) KeyUp(k Key) {
	c.keys = c.keys.With(k, false)
	c.evaluate()
}

// SetKey records a key press or release.
func (c *Controller) SetKey(k Key, pressed bool) {
	if pressed {
		c.KeyDown(k)
	} else {
		c.KeyUp(k)
	}
}

// Clear unsets the committed direction, e.g. after a collision.
func (c *Controller) Clear() {
	c.committed = types.DirectionNone
	c.evaluate()
}

// Direction returns the committed direction.
func (c *Controller) Direction() types.Direction {
	return c.committed
}

// Keys returns the current key snapshot.
func (c *Controller) Keys() Snapshot {
	return c.keys
}

func (c *Controller) evaluate() {
	next, changed := SelectDirection(c.keys, c.committed)
	if !changed {
		return
	}
	log.Trace("Committed direction %s -> %s", c.committed, next)
	c.committed = next
}
