package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/rfratto/pointring"
	"github.com/rfratto/pointring/hash"
	"github.com/spf13/pflag"
)

// ringFlags holds the flags shared by every command which builds a ring.
type ringFlags struct {
	Range      int
	Seed       int64
	Allocation string
	Hash       string
	Nodes      []string
}

func (f *ringFlags) Register(fs *pflag.FlagSet) {
	fs.IntVar(&f.Range, "range", pointring.DefaultRange, "Number of positions on the ring")
	fs.Int64Var(&f.Seed, "seed", 0, "Seed for allocating control points. 0 uses the current time.")
	fs.StringVar(&f.Allocation, "allocation", "sampling", "Control point allocation strategy (sampling, exact)")
	fs.StringVar(&f.Hash, "hash", "string", "Hash function for keys (string, xxhash)")
	fs.StringSliceVar(&f.Nodes, "node", nil, "Node to add to the ring, as name or name:weight. May be given multiple times.")
}

// Build creates a ring from the flags.
func (f *ringFlags) Build(l log.Logger) (*pointring.Ring[string], error) {
	cfg := pointring.DefaultConfig
	cfg.Range = f.Range
	cfg.Log = l

	seed := f.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Source = rand.NewSource(seed)

	switch f.Allocation {
	case "sampling":
		cfg.Allocation = pointring.AllocationSampling
	case "exact":
		cfg.Allocation = pointring.AllocationExact
	default:
		return nil, fmt.Errorf("unknown allocation strategy %q", f.Allocation)
	}

	switch f.Hash {
	case "string":
		cfg.Hash = hash.String
	case "xxhash":
		cfg.Hash = hash.XXHash
	default:
		return nil, fmt.Errorf("unknown hash %q", f.Hash)
	}

	members, err := parseMembers(f.Nodes)
	if err != nil {
		return nil, err
	}

	r, err := pointring.New[string](cfg)
	if err != nil {
		return nil, err
	}
	pointring.NewObserver(r).NotifyMembersChanged(members)
	return r, nil
}

// parseMembers parses node flags of the form name or name:weight.
func parseMembers(in []string) ([]pointring.Member[string], error) {
	res := make([]pointring.Member[string], 0, len(in))
	for _, s := range in {
		name, weightText, hasWeight := strings.Cut(s, ":")
		if name == "" {
			return nil, fmt.Errorf("node %q: name must not be empty", s)
		}

		weight := 1
		if hasWeight {
			var err error
			weight, err = strconv.Atoi(weightText)
			if err != nil {
				return nil, fmt.Errorf("node %q: invalid weight: %w", s, err)
			} else if weight < 1 {
				return nil, fmt.Errorf("node %q: weight must be at least 1", s)
			}
		}

		res = append(res, pointring.Member[string]{Node: name, Weight: weight})
	}
	return res, nil
}
