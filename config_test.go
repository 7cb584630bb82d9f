package pointring

import (
	"errors"
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tt := []struct {
		name        string
		cfg         Config
		expectError string
	}{
		{
			name: "default config",
			cfg:  DefaultConfig,
		},
		{
			name:        "zero range",
			cfg:         Config{},
			expectError: "range must be greater than 0, got 0",
		},
		{
			name:        "negative range",
			cfg:         Config{Range: -1},
			expectError: "range must be greater than 0, got -1",
		},
		{
			name:        "range too large",
			cfg:         Config{Range: math.MaxUint32 + 1},
			expectError: "range must not exceed 4294967295",
		},
		{
			name:        "exact allocation with large range",
			cfg:         Config{Range: MaxExactRange + 1, Allocation: AllocationExact},
			expectError: "with exact allocation",
		},
		{
			name:        "unknown allocation",
			cfg:         Config{Range: 10, Allocation: 7},
			expectError: "unknown allocation strategy AllocationStrategy(7)",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[string](tc.cfg)
			if tc.expectError == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	_, err := New[string](Config{Range: 0, Allocation: 7})

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Range: DefaultRange}
	require.NoError(t, cfg.validate())

	require.NotNil(t, cfg.Hash)
	require.NotNil(t, cfg.Source)
	require.NotNil(t, cfg.Log)
}

func TestAllocationStrategy_String(t *testing.T) {
	require.Equal(t, "sampling", AllocationSampling.String())
	require.Equal(t, "exact", AllocationExact.String())
	require.Equal(t, "AllocationStrategy(9)", AllocationStrategy(9).String())
}
