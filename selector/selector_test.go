package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

func TestIndexModePatterns(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    []int
	}{
		{"full range colon", ":", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"full range empty", "", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"range", "2:5", []int{2, 3, 4}},
		{"stepped range", "2:8:2", []int{2, 4, 6}},
		{"negative wraps", "-1", []int{9}},
		{"comma list", "1,3,5", []int{1, 3, 5}},
		{"mixed list dedup sorted", "5,1:3,2", []int{1, 2, 5}},
		{"open start", ":3", []int{0, 1, 2}},
		{"open stop", "7:", []int{7, 8, 9}},
		{"negative stop wraps", "0:-8", []int{0, 1}},
		{"stride only", "::4", []int{0, 4, 8}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Selector{Patterns: []string{tc.pattern}, TargetDims: -1}
			sel, err := s.Resolve([]int{10}, nil)
			require.NoError(t, err)
			require.Len(t, sel, 1)
			assert.Equal(t, tc.want, sel[0])
		})
	}
}

func TestMalformedPatternsRejectedBeforeParsing(t *testing.T) {
	for _, pattern := range []string{"a", "1;2", "1:2:3:4", "1..5", "--2", ","} {
		s := &Selector{Patterns: []string{pattern}, TargetDims: -1}
		_, err := s.Resolve([]int{10}, nil)
		require.Error(t, err, "pattern %q", pattern)
		assert.ErrorIs(t, err, errors.ErrPatternSyntax, "pattern %q", pattern)
	}
}

func TestOutOfRangeIndexFails(t *testing.T) {
	s := &Selector{Patterns: []string{"12"}, TargetDims: -1}
	_, err := s.Resolve([]int{10}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)

	s = &Selector{Patterns: []string{"-11"}, TargetDims: -1}
	_, err = s.Resolve([]int{10}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
}

func TestZeroOrNegativeStepFails(t *testing.T) {
	s := &Selector{Patterns: []string{"0:8:0"}, TargetDims: -1}
	_, err := s.Resolve([]int{10}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPatternSyntax)
}

func TestPatternArityMustMatchDimensions(t *testing.T) {
	s := &Selector{Patterns: []string{":"}, TargetDims: -1}
	_, err := s.Resolve([]int{4, 5}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDimensionCount)
}

func TestValueModeResolvesClosestCoordinate(t *testing.T) {
	axis := []float64{0.0, 0.5, 1.0, 1.5, 2.0}

	s := &Selector{Patterns: []string{"1.1"}, ValueMode: true, TargetDims: -1}
	sel, err := s.Resolve([]int{5}, [][]float64{axis})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sel[0])

	// Range endpoints match to the nearest coordinates first; the resolved
	// stop index is exclusive.
	s = &Selector{Patterns: []string{"0.4:1.6"}, ValueMode: true, TargetDims: -1}
	sel, err = s.Resolve([]int{5}, [][]float64{axis})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sel[0])
}

func TestTargetDimensionalityCheck(t *testing.T) {
	// Three dimensions resolve to more than one index, target is two.
	s := &Selector{Patterns: []string{":", ":", ":"}, TargetDims: 2}
	_, err := s.Resolve([]int{3, 3, 3}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")

	s = &Selector{Patterns: []string{"1", ":", ":"}, TargetDims: 2}
	sel, err := s.Resolve([]int{3, 3, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sel.ActiveDims())
}

func TestTimelineCollapsesLeadingDimensions(t *testing.T) {
	// Two scan loops of 3x4 collapse into one ordinal dimension of 12.
	s := &Selector{
		Patterns:     []string{"10:", ":"},
		ValueMode:    true, // must not apply to the synthetic axis
		TimelineDims: 2,
		TargetDims:   -1,
	}
	sel, err := s.Resolve([]int{3, 4, 5}, [][]float64{nil, nil, {0, 1, 2, 3, 4}})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, []int{10, 11}, sel[0])
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sel[1])
}

func TestTimelineDimsBeyondShapeFails(t *testing.T) {
	s := &Selector{Patterns: []string{":"}, TimelineDims: 3, TargetDims: -1}
	_, err := s.Resolve([]int{2, 2}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDimensionCount)
}

func TestResolutionIsCachedUntilInputsChange(t *testing.T) {
	s := &Selector{Patterns: []string{"2:5"}, TargetDims: -1}

	first, err := s.Resolve([]int{10}, nil)
	require.NoError(t, err)
	cached := &s.cached[0][0]
	second, err := s.Resolve([]int{10}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Same(t, cached, &s.cached[0][0], "unchanged inputs must hit the cache")

	// A changed shape invalidates the cache.
	third, err := s.Resolve([]int{20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, third[0])
	assert.NotSame(t, cached, &s.cached[0][0])

	// A changed pattern invalidates it too.
	s.Patterns = []string{"3:6"}
	fourth, err := s.Resolve([]int{20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, fourth[0])

	// Axis data participates in the hash.
	s.Patterns = []string{"2:5"}
	withAxis, err := s.Resolve([]int{20}, [][]float64{{0, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, withAxis[0])
}

func TestResolveResultsAreMutationSafe(t *testing.T) {
	s := &Selector{Patterns: []string{"2:5"}, TargetDims: -1}

	first, err := s.Resolve([]int{10}, nil)
	require.NoError(t, err)
	first[0][0] = 99

	second, err := s.Resolve([]int{10}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, second[0], "mutating a result must not corrupt later resolutions")
}
