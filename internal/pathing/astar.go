package pathing

import (
	"container/heap"

	"github.com/talgya/townfolk/internal/world"
)

// Search costs. A plain step costs stepCost; stepping onto a door costs
// stepCost minus the door bias so that routes through doors win ties against
// routes hugging the walls beside them.
const (
	stepCost        = 10
	DefaultBudget   = 2000
	DefaultDoorBias = 3
)

// Walker is the part of the grid oracle the search needs.
type Walker interface {
	Walkable(c world.Coord) bool
}

// Stats counts search outcomes. Callers read it for diagnostics and tests.
type Stats struct {
	Searches  uint64 // FindPath calls that ran a search
	Found     uint64 // Searches that produced a plan
	Exhausted uint64 // Searches abandoned at the node budget
	Expanded  uint64 // Nodes expanded across all searches
}

// Finder runs bounded A* searches over the grid.
type Finder struct {
	grid     Walker
	doors    map[world.Coord]bool
	budget   int
	doorBias int

	Stats Stats
}

// NewFinder creates a finder. budget caps expanded nodes per search;
// doorBias is subtracted from the cost of entering a door tile.
func NewFinder(grid Walker, doors []world.Coord, budget, doorBias int) *Finder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if doorBias < 0 {
		doorBias = 0
	}
	if doorBias >= stepCost {
		doorBias = stepCost - 1
	}
	d := make(map[world.Coord]bool, len(doors))
	for _, c := range doors {
		d[c] = true
	}
	return &Finder{grid: grid, doors: d, budget: budget, doorBias: doorBias}
}

// Budget returns the expanded-node cap.
func (f *Finder) Budget() int {
	return f.budget
}

// IsDoor reports whether the finder treats c as a door.
func (f *Finder) IsDoor(c world.Coord) bool {
	return f.doors[c]
}

// FindPath searches for a route from one coordinate to another. The goal is
// always enterable even when occ reports it blocked; every other blocked
// coordinate is skipped. ok is false when no route exists or the node budget
// ran out first.
func (f *Finder) FindPath(from, to world.Coord, occ Blocker) (*Plan, bool) {
	if from == to {
		return &Plan{Steps: []world.Coord{from}, Goal: to}, true
	}
	if !f.grid.Walkable(to) {
		return nil, false
	}

	f.Stats.Searches++

	open := &nodeHeap{}
	heap.Init(open)
	came := map[world.Coord]world.Coord{}
	gScore := map[world.Coord]int{from: 0}
	closed := map[world.Coord]bool{}

	var seq uint64
	push := func(c world.Coord, g int) {
		seq++
		h := world.Manhattan(c, to) * stepCost
		heap.Push(open, node{pos: c, g: g, f: g + h, h: h, seq: seq})
	}
	push(from, 0)

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if closed[cur.pos] {
			continue
		}
		if cur.pos == to {
			f.Stats.Found++
			f.Stats.Expanded += uint64(expanded)
			return &Plan{Steps: reconstruct(came, from, to), Goal: to}, true
		}
		closed[cur.pos] = true

		expanded++
		if expanded > f.budget {
			f.Stats.Exhausted++
			f.Stats.Expanded += uint64(expanded)
			return nil, false
		}

		for _, n := range cur.pos.Neighbors() {
			if closed[n] || !f.grid.Walkable(n) {
				continue
			}
			if n != to && occ != nil && occ.Blocked(n) {
				continue
			}
			g := cur.g + f.cost(n)
			if old, seen := gScore[n]; seen && g >= old {
				continue
			}
			gScore[n] = g
			came[n] = cur.pos
			push(n, g)
		}
	}

	f.Stats.Expanded += uint64(expanded)
	return nil, false
}

func (f *Finder) cost(c world.Coord) int {
	if f.doors[c] {
		return stepCost - f.doorBias
	}
	return stepCost
}

func reconstruct(came map[world.Coord]world.Coord, from, to world.Coord) []world.Coord {
	path := []world.Coord{to}
	for cur := to; cur != from; {
		cur = came[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// node is one open-set entry.
type node struct {
	pos world.Coord
	g   int
	f   int
	h   int
	seq uint64 // Insertion order for deterministic tie-breaking
}

// nodeHeap implements [container/heap.Interface] as a min-heap on f, then
// h, then insertion order.
type nodeHeap []node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push appends x to the heap. Called by [container/heap.Push].
func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(node))
}

// Pop removes and returns the last element. Called by [container/heap.Pop].
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
