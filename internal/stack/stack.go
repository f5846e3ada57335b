// Package stack implements a bounded, pinned-eviction cache of geographic
// elevation Tiles backed by a scanned archive directory.
package stack

import (
	"container/list"
	"os"
	"path/filepath"
	"strings"

	"github.com/niess/turtle-sub000/internal/codec"
	"github.com/niess/turtle-sub000/internal/config"
	"github.com/niess/turtle-sub000/internal/grid"
	"github.com/niess/turtle-sub000/internal/turtleerr"
)

type cellKey struct{ lat, lon int }

// LockFunc/UnlockFunc are user-supplied binary-semaphore callbacks: a
// non-nil error aborts the operation with LOCK_ERROR or UNLOCK_ERROR
// respectively.
type LockFunc func() error
type UnlockFunc func() error

// Stack is the bounded tile cache. Its LRU chain is a container/list
// rather than a hand-rolled index arena: an arena of intrusive pointers
// exists in manually-managed languages to avoid cyclic references, a
// concern Go's garbage collector already resolves, so container/list
// gives the same head/tail/move-to-front guarantees without extra
// bookkeeping.
type Stack struct {
	root    string
	maxSize int

	lockFn   LockFunc
	unlockFn UnlockFunc

	paths map[cellKey]string

	lru    *list.List
	byCell map[cellKey]*list.Element

	dispatcher *dispatcher
}

// Create scans root once for files whose extension a registered codec
// recognises, parsing each file's base name as a geographic cell.
// Providing exactly one of lock/unlock is an error.
func Create(root string, maxSize int, lockFn LockFunc, unlockFn UnlockFunc) (*Stack, *turtleerr.Error) {
	if (lockFn == nil) != (unlockFn == nil) {
		return nil, turtleerr.New(turtleerr.BadFormat, "stack.Create", "lock and unlock must both be set or both be nil")
	}

	entries, oerr := os.ReadDir(root)
	if oerr != nil {
		return nil, turtleerr.Wrap(turtleerr.PathError, "stack.Create", oerr, "scan %q", root)
	}

	paths := make(map[cellKey]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, cerr := codec.ForPath(name); cerr != nil {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		lat, lon, ok := parseCellName(base)
		if !ok {
			continue
		}
		paths[cellKey{lat, lon}] = filepath.Join(root, name)
	}

	return &Stack{
		root:       root,
		maxSize:    maxSize,
		lockFn:     lockFn,
		unlockFn:   unlockFn,
		paths:      paths,
		lru:        list.New(),
		byCell:     make(map[cellKey]*list.Element),
		dispatcher: newDispatcher(),
	}, nil
}

// CreateFromConfig builds a Stack from the ambient TURTLE_STACK_ROOT /
// TURTLE_STACK_MAX_SIZE configuration (see internal/config) instead of
// explicit root/maxSize arguments, for callers that want the archive
// location and cache bound to come from the environment rather than be
// threaded through by hand.
func CreateFromConfig(lockFn LockFunc, unlockFn UnlockFunc) (*Stack, *turtleerr.Error) {
	cfg := config.Load()
	return Create(cfg.Stack.Root, cfg.Stack.MaxSize, lockFn, unlockFn)
}

// Subscribe registers a handler for tile lifecycle events
// (EventTileLoaded, EventTileEvicted), a diagnostics hook layered on top
// of the core cache operations.
func (s *Stack) Subscribe(eventType string, h Handler) { s.dispatcher.Subscribe(eventType, h) }

func (s *Stack) lock() *turtleerr.Error {
	if s.lockFn == nil {
		return nil
	}
	if err := s.lockFn(); err != nil {
		return turtleerr.Wrap(turtleerr.LockError, "stack.lock", err, "acquire stack lock")
	}
	return nil
}

func (s *Stack) unlock() *turtleerr.Error {
	if s.unlockFn == nil {
		return nil
	}
	if err := s.unlockFn(); err != nil {
		return turtleerr.Wrap(turtleerr.UnlockError, "stack.unlock", err, "release stack lock")
	}
	return nil
}

func (s *Stack) bounded() bool { return s.maxSize > 0 }

// size reports how many tiles are resident, pinned or not.
func (s *Stack) size() int { return s.lru.Len() }

// evictOneUnpinned removes the least-recently-used tile with Clients == 0,
// scanning from the tail. Returns false if no unpinned tile exists.
func (s *Stack) evictOneUnpinned() bool {
	for e := s.lru.Back(); e != nil; e = e.Prev() {
		t := e.Value.(*grid.Tile)
		if t.Clients == 0 {
			s.lru.Remove(e)
			delete(s.byCell, cellKey{t.LatCell, t.LonCell})
			s.dispatcher.publish(Event{Type: EventTileEvicted, Cell: formatCellName(t.LatCell, t.LonCell)})
			return true
		}
	}
	return false
}

// loadCell loads the tile for (latCell, lonCell) from its registered
// path, evicting an unpinned LRU tile first if the stack is at capacity.
// It does not touch the LRU position of the returned tile; callers push
// it to the head themselves once they decide to keep it resident.
func (s *Stack) loadCell(latCell, lonCell int) (*grid.Tile, *turtleerr.Error) {
	path, ok := s.paths[cellKey{latCell, lonCell}]
	if !ok {
		return nil, nil // unregistered cell: caller treats as "outside"
	}

	if s.bounded() && s.size() >= s.maxSize {
		s.evictOneUnpinned() // over-capacity load is still allowed if none evictable
	}

	m, merr := codec.Load(path)
	if merr != nil {
		return nil, merr
	}
	tile := grid.NewTile(m, path)
	s.dispatcher.publish(Event{Type: EventTileLoaded, Cell: formatCellName(latCell, lonCell)})
	return tile, nil
}

// pushHead inserts or moves tile to the head of the LRU chain.
func (s *Stack) pushHead(tile *grid.Tile) {
	key := cellKey{tile.LatCell, tile.LonCell}
	if e, ok := s.byCell[key]; ok {
		s.lru.MoveToFront(e)
		return
	}
	s.byCell[key] = s.lru.PushFront(tile)
}

// findContaining scans the resident tiles for one covering (lat, lon),
// without changing LRU order.
func (s *Stack) findContaining(lat, lon float64) *grid.Tile {
	for e := s.lru.Front(); e != nil; e = e.Next() {
		t := e.Value.(*grid.Tile)
		if t.Contains(lon, lat) {
			return t
		}
	}
	return nil
}

func (s *Stack) touchToHead(tile *grid.Tile) {
	if e, ok := s.byCell[cellKey{tile.LatCell, tile.LonCell}]; ok {
		s.lru.MoveToFront(e)
	}
}

// Elevation checks the head tile, scans resident tiles, then loads on a
// miss, evicting the LRU unpinned tile if the stack is bounded and full.
func (s *Stack) Elevation(lat, lon float64) (z float64, inside bool, err *turtleerr.Error) {
	if lerr := s.lock(); lerr != nil {
		return 0, false, lerr
	}
	defer func() {
		if uerr := s.unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	if head := s.lru.Front(); head != nil {
		t := head.Value.(*grid.Tile)
		if z, inside := t.Elevation(lon, lat); inside {
			return z, true, nil
		}
	}

	if t := s.findContaining(lat, lon); t != nil {
		s.touchToHead(t)
		z, _ := t.Elevation(lon, lat)
		return z, true, nil
	}

	latCell, lonCell := int(floor(lat)), int(floor(lon))
	tile, lerr := s.loadCell(latCell, lonCell)
	if lerr != nil {
		return 0, false, lerr
	}
	if tile == nil {
		return 0, false, nil
	}

	s.pushHead(tile)
	z, _ = tile.Elevation(lon, lat)
	return z, true, nil
}

// Clear evicts every resident tile with Clients == 0.
func (s *Stack) Clear() *turtleerr.Error {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer s.unlock()

	var next *list.Element
	for e := s.lru.Front(); e != nil; e = next {
		next = e.Next()
		t := e.Value.(*grid.Tile)
		if t.Clients == 0 {
			s.lru.Remove(e)
			delete(s.byCell, cellKey{t.LatCell, t.LonCell})
			s.dispatcher.publish(Event{Type: EventTileEvicted, Cell: formatCellName(t.LatCell, t.LonCell)})
		}
	}
	return nil
}

// Load eagerly loads up to max_size registered tiles (or all of them, if
// unbounded).
func (s *Stack) Load() *turtleerr.Error {
	if lerr := s.lock(); lerr != nil {
		return lerr
	}
	defer s.unlock()

	limit := len(s.paths)
	if s.bounded() && s.maxSize < limit {
		limit = s.maxSize
	}

	for cell := range s.paths {
		if s.size() >= limit {
			break
		}
		if _, ok := s.byCell[cell]; ok {
			continue
		}
		tile, lerr := s.loadCell(cell.lat, cell.lon)
		if lerr != nil {
			return lerr
		}
		if tile != nil {
			s.pushHead(tile)
		}
	}
	return nil
}

// The following exported methods back internal/client: a Client is the
// only safe concurrent interface to a Stack with lockers installed, and
// needs direct access to lock/scan/load/release/reserve without going
// through Elevation's self-contained head-check sequence.

// HasLockers reports whether this stack was constructed with a lock/
// unlock pair. A Client must not be created against a Stack without one.
func (s *Stack) HasLockers() bool { return s.lockFn != nil }

// Lock acquires the stack's lock (a no-op if none was configured).
func (s *Stack) Lock() *turtleerr.Error { return s.lock() }

// Unlock releases the stack's lock (a no-op if none was configured).
func (s *Stack) Unlock() *turtleerr.Error { return s.unlock() }

// FindContainingExcept scans resident tiles other than except for one
// covering (lat, lon).
func (s *Stack) FindContainingExcept(lat, lon float64, except *grid.Tile) *grid.Tile {
	for e := s.lru.Front(); e != nil; e = e.Next() {
		t := e.Value.(*grid.Tile)
		if t == except {
			continue
		}
		if t.Contains(lon, lat) {
			return t
		}
	}
	return nil
}

// TouchToHead moves tile to the front of the LRU chain.
func (s *Stack) TouchToHead(tile *grid.Tile) { s.touchToHead(tile) }

// LoadForPoint loads (and pushes to head) the tile covering (lat, lon),
// or returns a nil tile if that cell has no registered path.
func (s *Stack) LoadForPoint(lat, lon float64) (*grid.Tile, *turtleerr.Error) {
	latCell, lonCell := int(floor(lat)), int(floor(lon))
	tile, err := s.loadCell(latCell, lonCell)
	if err != nil || tile == nil {
		return nil, err
	}
	s.pushHead(tile)
	return tile, nil
}

// Reserve pins tile, incrementing its client count.
func (s *Stack) Reserve(tile *grid.Tile) { tile.Clients++ }

// Release unpins tile; if it becomes unreferenced and the stack is over
// capacity, it is evicted immediately rather than waiting for the next
// load.
func (s *Stack) Release(tile *grid.Tile) {
	if tile == nil {
		return
	}
	tile.Clients--
	if tile.Clients > 0 {
		return
	}
	if s.bounded() && s.size() > s.maxSize {
		if e, ok := s.byCell[cellKey{tile.LatCell, tile.LonCell}]; ok {
			s.lru.Remove(e)
			delete(s.byCell, cellKey{tile.LatCell, tile.LonCell})
			s.dispatcher.publish(Event{Type: EventTileEvicted, Cell: formatCellName(tile.LatCell, tile.LonCell)})
		}
	}
}

// ResidentCells reports the currently resident tiles' cell names, head
// (most-recently-used) first.
func (s *Stack) ResidentCells() []string {
	names := make([]string, 0, s.lru.Len())
	for e := s.lru.Front(); e != nil; e = e.Next() {
		t := e.Value.(*grid.Tile)
		names = append(names, formatCellName(t.LatCell, t.LonCell))
	}
	return names
}

func floor(v float64) float64 {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
