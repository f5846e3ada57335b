// Package client implements a per-session cursor pinning at most one
// Tile, the only safe concurrent interface to a Stack that has lockers
// installed.
package client

import (
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/stack"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

// Client holds at most one pinned Tile from a Stack.
type Client struct {
	stack *stack.Stack
	tile  *grid.Tile
}

// Create starts an idle Client against s, which must have been built
// with lock/unlock callbacks.
func Create(s *stack.Stack) (*Client, *turtleerr.Error) {
	if !s.HasLockers() {
		return nil, turtleerr.New(turtleerr.BadAddress, "client.Create", "stack has no lock/unlock callbacks")
	}
	return &Client{stack: s}, nil
}

// Elevation takes a lock-free fast path when the pinned tile already
// contains the point, else falls back to a locked scan/load/release/
// reserve sequence.
func (c *Client) Elevation(lat, lon float64) (z float64, inside bool, err *turtleerr.Error) {
	if c.tile != nil {
		if z, ok := c.tile.Elevation(lon, lat); ok {
			return z, true, nil
		}
	}

	if lerr := c.stack.Lock(); lerr != nil {
		return 0, false, lerr
	}
	defer func() {
		if uerr := c.stack.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	if found := c.stack.FindContainingExcept(lat, lon, c.tile); found != nil {
		c.stack.TouchToHead(found)
		c.stack.Release(c.tile)
		c.stack.Reserve(found)
		c.tile = found
		z, _ = c.tile.Elevation(lon, lat)
		return z, true, nil
	}

	loaded, lerr := c.stack.LoadForPoint(lat, lon)
	if lerr != nil {
		return 0, false, lerr
	}
	if loaded == nil {
		c.stack.Release(c.tile)
		c.tile = nil
		return 0, false, nil
	}

	c.stack.Release(c.tile)
	c.stack.Reserve(loaded)
	c.tile = loaded
	z, _ = c.tile.Elevation(lon, lat)
	return z, true, nil
}

// Clear releases the pinned tile, if any.
func (c *Client) Clear() *turtleerr.Error {
	if lerr := c.stack.Lock(); lerr != nil {
		return lerr
	}
	defer c.stack.Unlock()

	c.stack.Release(c.tile)
	c.tile = nil
	return nil
}

// Destroy releases the pinned tile. Present for symmetry with callers
// migrating from an explicit create/destroy lifecycle; a Go caller can
// otherwise just drop the Client.
func (c *Client) Destroy() *turtleerr.Error { return c.Clear() }
