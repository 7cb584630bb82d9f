// Package pointring implements a consistent hashing ring which maps string
// keys to a dynamic set of nodes.
//
// Nodes are placed on the ring at control points: integer positions in [0,
// Range). The number of control points given to a node is its weight, and
// determines the share of keys it owns. Adding or removing a node only
// remaps the keys owned by that node's control points.
//
// Lookups hash a key with a rolling string hash, reduce it modulo the range,
// and binary search a sorted index of every control point. The index is
// rebuilt lazily after the ring changes, so bursts of changes only pay for a
// single rebuild.
package pointring
