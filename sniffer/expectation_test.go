package sniffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

//nolint:funlen
func Test_BuildExpectation_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (sniffer.Expectation, error)
		validate func(t *testing.T, expectation sniffer.Expectation)
	}{
		{
			name: "never_executed",
			build: func() (sniffer.Expectation, error) {
				return sniffer.BuildExpectation(0, 0)
			},
			validate: func(t *testing.T, e sniffer.Expectation) {
				assert.Equal(t, int64(0), e.MinCount())
				assert.Equal(t, int64(0), e.MaxCount())
				assert.Equal(t, sniffer.CurrentContext, e.Scope())
			},
		},
		{
			name: "exact_count",
			build: func() (sniffer.Expectation, error) {
				return sniffer.BuildExpectation(5, 5)
			},
			validate: func(t *testing.T, e sniffer.Expectation) {
				assert.Equal(t, int64(5), e.MinCount())
				assert.Equal(t, int64(5), e.MaxCount())
			},
		},
		{
			name: "range_with_explicit_scope",
			build: func() (sniffer.Expectation, error) {
				return sniffer.BuildExpectation(1, 3, sniffer.AnyContext)
			},
			validate: func(t *testing.T, e sniffer.Expectation) {
				assert.Equal(t, int64(1), e.MinCount())
				assert.Equal(t, int64(3), e.MaxCount())
				assert.Equal(t, sniffer.AnyContext, e.Scope())
			},
		},
		{
			name: "unbounded_maximum",
			build: func() (sniffer.Expectation, error) {
				return sniffer.BuildExpectation(2, sniffer.UnlimitedCount, sniffer.OtherContexts)
			},
			validate: func(t *testing.T, e sniffer.Expectation) {
				assert.Equal(t, int64(2), e.MinCount())
				assert.Equal(t, sniffer.UnlimitedCount, e.MaxCount())
				assert.Equal(t, sniffer.OtherContexts, e.Scope())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectation, err := tc.build()

			assert.NoError(t, err)
			tc.validate(t, expectation)
		})
	}
}

func Test_BuildExpectation_InvalidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		minCount int64
		maxCount int64
		scope    []sniffer.Scope
		expected error
	}{
		{
			name:     "negative_minimum",
			minCount: -1,
			maxCount: 5,
			expected: sniffer.ErrInvalidExpectation,
		},
		{
			name:     "maximum_below_minimum",
			minCount: 3,
			maxCount: 2,
			expected: sniffer.ErrInvalidExpectation,
		},
		{
			name:     "negative_maximum",
			minCount: 0,
			maxCount: -1,
			expected: sniffer.ErrInvalidExpectation,
		},
		{
			name:     "unknown_scope",
			minCount: 0,
			maxCount: 1,
			scope:    []sniffer.Scope{sniffer.Scope(-1)},
			expected: sniffer.ErrInvalidScope,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sniffer.BuildExpectation(tc.minCount, tc.maxCount, tc.scope...)

			assert.Error(t, err)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_BuildBaseline_ValidCounts(t *testing.T) {
	// act
	baseline, err := sniffer.BuildBaseline(10, 4)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, int64(10), baseline.GlobalCount)
	assert.Equal(t, int64(4), baseline.ContextCount)
}

func Test_BuildBaseline_NegativeCounts_AreRejected(t *testing.T) {
	tests := []struct {
		name         string
		globalCount  int64
		contextCount int64
	}{
		{
			name:         "negative_global_count",
			globalCount:  -1,
			contextCount: 0,
		},
		{
			name:         "negative_context_count",
			globalCount:  0,
			contextCount: -1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sniffer.BuildBaseline(tc.globalCount, tc.contextCount)

			assert.Error(t, err)
			assert.ErrorIs(t, err, sniffer.ErrNegativeBaseline)
		})
	}
}
