package pointring

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/go-kit/log"
	"github.com/hashicorp/go-multierror"
	"github.com/rfratto/pointring/hash"
)

// DefaultRange is the default number of positions on a ring.
const DefaultRange = 1009

// MaxExactRange is the largest Range permitted with AllocationExact.
const MaxExactRange = 1 << 20

// ErrInvalidConfig is wrapped by every error returned for an invalid Config.
var ErrInvalidConfig = errors.New("invalid ring config")

// AllocationStrategy determines how control points are chosen for nodes added
// without explicit points.
type AllocationStrategy uint8

const (
	// AllocationSampling draws random positions, retrying a bounded number of
	// times when a position is already taken. Once retries are exhausted the
	// taken position is used anyway and counted as a collision.
	AllocationSampling AllocationStrategy = iota

	// AllocationExact only hands out free positions, scanning the whole range
	// on every allocation. Collisions only happen once the range is full.
	// Useful when Range is small relative to the number of control points.
	AllocationExact
)

// String returns a string representation of the AllocationStrategy.
func (s AllocationStrategy) String() string {
	switch s {
	case AllocationSampling:
		return "sampling"
	case AllocationExact:
		return "exact"
	default:
		return fmt.Sprintf("AllocationStrategy(%d)", s)
	}
}

// Config configures a Ring.
type Config struct {
	// Number of positions on the ring. Control points are allocated in [0,
	// Range) and lookup keys are reduced modulo Range. Smaller values give
	// better distribution for small numbers of nodes and keys; larger values
	// allow more control points before collisions become likely. Required.
	Range int

	// Hash function for lookup keys. hash.String is used when nil.
	Hash hash.Func

	// Strategy to use for allocating control points.
	Allocation AllocationStrategy

	// Optional source of randomness for allocating control points. A
	// time-seeded source is used when nil. The source does not need to be
	// goroutine safe.
	Source rand.Source

	// Optional logger to use.
	Log log.Logger
}

// DefaultConfig holds default settings for creating rings.
var DefaultConfig = Config{
	Range:      DefaultRange,
	Hash:       hash.String,
	Allocation: AllocationSampling,
}

func (c *Config) validate() error {
	var errs *multierror.Error

	switch {
	case c.Range <= 0:
		errs = multierror.Append(errs, fmt.Errorf("%w: range must be greater than 0, got %d", ErrInvalidConfig, c.Range))
	case uint64(c.Range) > math.MaxUint32:
		errs = multierror.Append(errs, fmt.Errorf("%w: range must not exceed %d, got %d", ErrInvalidConfig, uint64(math.MaxUint32), c.Range))
	}

	switch c.Allocation {
	case AllocationSampling:
	case AllocationExact:
		if c.Range > MaxExactRange {
			errs = multierror.Append(errs, fmt.Errorf("%w: range must not exceed %d with %s allocation, got %d", ErrInvalidConfig, MaxExactRange, c.Allocation, c.Range))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("%w: unknown allocation strategy %s", ErrInvalidConfig, c.Allocation))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	if c.Hash == nil {
		c.Hash = hash.String
	}
	if c.Source == nil {
		c.Source = rand.NewSource(time.Now().UnixNano())
	}
	if c.Log == nil {
		c.Log = log.NewNopLogger()
	}

	return nil
}
