package pointring

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/pointring/hash"
	"github.com/rfratto/pointring/internal/index"
	"github.com/rfratto/pointring/internal/points"
	"go.uber.org/atomic"
)

// Ring maps lookup keys to nodes using consistent hashing.
//
// Each time a node is added it is given a set of control points: positions on
// the ring in [0, Range). A key is owned by the node of the first control
// point at or after the key's position, wrapping around to the first control
// point when there is none. Adding or removing a node only moves the keys
// owned by that node's control points.
//
// Nodes are compared by equality only and may be registered more than once;
// every registration is tracked independently. If two registrations share a
// control point, the most recently added one owns it.
//
// Ring is goroutine safe. Mutations invalidate an internal sorted index of
// control points which is rebuilt by the next call to Get.
type Ring[N comparable] struct {
	log  log.Logger
	hash hash.Func
	rng  uint32
	m    *metrics

	collisions atomic.Uint64

	mut   sync.RWMutex
	alloc points.Allocator

	// nodes and nodePoints are parallel: nodePoints[i] holds the control
	// points of the registration nodes[i].
	nodes      []N
	nodePoints [][]uint32

	// owners maps a control point to every node registered on it, in
	// registration order. The last element owns the point.
	owners map[uint32][]N

	// index holds every control point in ascending order. It must be rebuilt
	// before use when stale is set.
	index []uint32
	stale bool

	nodeCount, pointCount int
}

// New creates an empty Ring. An error will be returned if the provided config
// is invalid.
func New[N comparable](cfg Config) (*Ring[N], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		rng = uint32(cfg.Range)
		rnd = rand.New(cfg.Source)
	)

	var alloc points.Allocator
	switch cfg.Allocation {
	case AllocationExact:
		alloc = points.Exact(rng, rnd)
	default:
		alloc = points.Sampling(rng, rnd)
	}

	return &Ring[N]{
		log:  cfg.Log,
		hash: cfg.Hash,
		rng:  rng,
		m:    newMetrics(),

		alloc:  alloc,
		owners: make(map[uint32][]N),
		stale:  true,
	}, nil
}

// Metrics returns metrics for the Ring.
func (r *Ring[N]) Metrics() prometheus.Collector { return r.m }

// Add registers node with a single control point.
func (r *Ring[N]) Add(node N) *Ring[N] { return r.AddWeighted(node, 1) }

// AddWeighted registers node with weight randomly allocated control points.
// Weights less than 1 are treated as 1.
//
// If a free position can't be found for a control point after a few attempts,
// a position already in use is taken instead and counted in Collisions.
func (r *Ring[N]) AddWeighted(node N, weight int) *Ring[N] {
	if weight < 1 {
		weight = 1
	}

	r.mut.Lock()
	defer r.mut.Unlock()

	ps, collisions := r.alloc.Allocate(weight, r.inUse)
	if collisions > 0 {
		r.collisions.Add(uint64(collisions))
		r.m.collisionsTotal.Add(float64(collisions))

		level.Warn(r.log).Log(
			"msg", "control points allocated on positions already in use; ring range may be too small",
			"node", node,
			"collisions", collisions,
			"range", r.rng,
			"points", r.pointCount,
		)
	}

	r.register(node, ps)
	return r
}

// AddPoints registers node with an explicit set of control points. Points are
// used as-is: they may collide with points of other registrations and are not
// checked against the ring's range. Calling AddPoints with no points
// registers node without giving it ownership of any keys.
func (r *Ring[N]) AddPoints(node N, points ...uint32) *Ring[N] {
	ps := make([]uint32, len(points))
	copy(ps, points)

	r.mut.Lock()
	defer r.mut.Unlock()
	r.register(node, ps)
	return r
}

// inUse reports whether p is owned by any registration. r.mut must be held.
func (r *Ring[N]) inUse(p uint32) bool {
	_, ok := r.owners[p]
	return ok
}

// register appends a new registration. r.mut must be held.
func (r *Ring[N]) register(node N, ps []uint32) {
	r.nodes = append(r.nodes, node)
	r.nodePoints = append(r.nodePoints, ps)
	for _, p := range ps {
		r.owners[p] = append(r.owners[p], node)
	}

	r.nodeCount++
	r.pointCount += len(ps)
	r.invalidate()

	level.Debug(r.log).Log("msg", "added node", "node", node, "points", len(ps))
}

// Remove removes every registration of node. Remove is a no-op if node isn't
// registered.
//
// The relative order of the remaining registrations is not preserved.
func (r *Ring[N]) Remove(node N) *Ring[N] {
	r.mut.Lock()
	defer r.mut.Unlock()

	var removed, removedPoints int

	for i := 0; i < len(r.nodes); {
		if r.nodes[i] != node {
			i++
			continue
		}

		for _, p := range r.nodePoints[i] {
			r.dropOwner(p, node)
		}
		removed++
		removedPoints += len(r.nodePoints[i])

		// Swap with the last registration and shrink. i is checked again
		// since it now holds what used to be the last registration.
		var (
			last = len(r.nodes) - 1
			zero N
		)
		r.nodes[i], r.nodePoints[i] = r.nodes[last], r.nodePoints[last]
		r.nodes[last], r.nodePoints[last] = zero, nil
		r.nodes, r.nodePoints = r.nodes[:last], r.nodePoints[:last]
	}

	if removed == 0 {
		return r
	}

	r.nodeCount -= removed
	r.pointCount -= removedPoints
	r.invalidate()

	level.Debug(r.log).Log("msg", "removed node", "node", node, "registrations", removed, "points", removedPoints)
	return r
}

// dropOwner removes one instance of node from the owners of p. r.mut must be
// held.
func (r *Ring[N]) dropOwner(p uint32, node N) {
	writers := r.owners[p]
	for i := len(writers) - 1; i >= 0; i-- {
		if writers[i] != node {
			continue
		}
		writers = append(writers[:i], writers[i+1:]...)
		break
	}

	if len(writers) == 0 {
		delete(r.owners, p)
		return
	}
	r.owners[p] = writers
}

// invalidate marks the index as stale and updates gauges. r.mut must be held.
func (r *Ring[N]) invalidate() {
	r.index = nil
	r.stale = true

	r.m.nodes.Set(float64(r.nodeCount))
	r.m.controlPoints.Set(float64(r.pointCount))
}

// Get returns the node which owns key. ok is false if the ring has no control
// points.
func (r *Ring[N]) Get(key string) (node N, ok bool) {
	pos := r.hash(key) % r.rng

	r.mut.RLock()
	node, ok, stale := r.locate(pos)
	r.mut.RUnlock()

	if stale {
		// Another goroutine may have rebuilt the index or mutated the ring
		// between releasing the read lock and acquiring the write lock;
		// rebuildIndex and locate both account for that.
		r.mut.Lock()
		r.rebuildIndex()
		node, ok, _ = r.locate(pos)
		r.mut.Unlock()
	}

	if ok {
		r.m.lookupsTotal.WithLabelValues("found").Inc()
	} else {
		r.m.lookupsTotal.WithLabelValues("empty").Inc()
	}
	return node, ok
}

// locate finds the owner of pos. stale is true if the index must be rebuilt
// before pos can be located. r.mut must be held for reading.
func (r *Ring[N]) locate(pos uint32) (node N, ok, stale bool) {
	if r.pointCount == 0 {
		return node, false, false
	}
	if r.stale {
		return node, false, true
	}

	idx := index.Locate(r.index, pos)
	writers := r.owners[r.index[idx]]
	return writers[len(writers)-1], true, false
}

// rebuildIndex rebuilds the index if it is stale. r.mut must be held.
func (r *Ring[N]) rebuildIndex() {
	if !r.stale {
		return
	}

	r.index = index.Build(r.nodePoints)
	r.stale = false
	r.m.rebuildsTotal.Inc()

	level.Debug(r.log).Log("msg", "rebuilt control point index", "points", len(r.index))
}

// NodeCount returns the number of node registrations in the ring. Nodes
// registered multiple times are counted once per registration.
func (r *Ring[N]) NodeCount() int {
	r.mut.RLock()
	defer r.mut.RUnlock()
	return r.nodeCount
}

// KeyCount returns the total number of control points across all
// registrations. Keys here refer to positions on the ring, not the lookup keys
// passed to Get.
func (r *Ring[N]) KeyCount() int {
	r.mut.RLock()
	defer r.mut.RUnlock()
	return r.pointCount
}

// Collisions returns the number of allocated control points which were placed
// on a position already in use. A growing value means Range is too small for
// the number of control points in the ring.
func (r *Ring[N]) Collisions() uint64 { return r.collisions.Load() }

// Nodes returns every registered node. Nodes registered multiple times are
// returned once per registration, in no particular order.
func (r *Ring[N]) Nodes() []N {
	r.mut.RLock()
	defer r.mut.RUnlock()

	res := make([]N, len(r.nodes))
	copy(res, r.nodes)
	return res
}

// Points returns the control points of every registration of node in
// ascending order.
func (r *Ring[N]) Points(node N) []uint32 {
	r.mut.RLock()
	defer r.mut.RUnlock()

	var res []uint32
	for i, n := range r.nodes {
		if n == node {
			res = append(res, r.nodePoints[i]...)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
