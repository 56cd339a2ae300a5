package selector

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// Selection holds one deduplicated, ascending index array per addressed
// dimension. With timeline collapsing active the first array addresses the
// synthetic ordinal dimension.
type Selection [][]int

// ActiveDims returns the number of dimensions with more than one selected
// index, the dimensionality of the requested view.
func (s Selection) ActiveDims() int {
	active := 0
	for _, indices := range s {
		if len(indices) > 1 {
			active++
		}
	}
	return active
}

// clone returns a deep copy. Resolve hands out clones so callers may mutate
// their result without corrupting the cached selection.
func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for dim, indices := range s {
		out[dim] = slices.Clone(indices)
	}
	return out
}

// Selector resolves per-dimension textual patterns into explicit index
// arrays. The zero value is not useful; set Patterns to one pattern per
// addressed dimension and TargetDims to the expected view dimensionality
// (negative disables the check).
//
// Resolution is a pure function of the exported fields plus the shape and
// axis arguments; the resolved selection is cached and recomputed only when
// a hash over all of those inputs changes. A Selector is not safe for
// concurrent use.
type Selector struct {
	Patterns     []string
	ValueMode    bool
	TimelineDims int
	TargetDims   int
	ActiveNode   int

	cachedHash uint64
	cached     Selection
}

// Pattern grammar: empty or ":" selects the full range; otherwise a comma
// list of bare numbers and start:stop[:step] ranges with optional endpoints.
const numberPattern = `-?[0-9]+(?:\.[0-9]+)?`

var patternRegexp = regexp.MustCompile(
	`^$|^(?:(?:` + numberPattern + `)|(?:` + numberPattern + `)?:(?:` + numberPattern + `)?(?::(?:` + numberPattern + `)?)?)` +
		`(?:,(?:(?:` + numberPattern + `)|(?:` + numberPattern + `)?:(?:` + numberPattern + `)?(?::(?:` + numberPattern + `)?)?))*$`)

// Resolve translates the configured patterns into index arrays for a result
// of the given shape. axes carries the physical coordinates per dimension for
// value-mode resolution; a nil axis falls back to ordinal coordinates.
//
// With TimelineDims > 0 the leading TimelineDims dimensions collapse into one
// synthetic ordinal dimension whose extent is the product of the collapsed
// extents; its pattern is always resolved in index mode.
//
// The returned selection is the caller's to mutate; the cached copy stays
// untouched.
func (s *Selector) Resolve(shape []int, axes [][]float64) (Selection, error) {
	hash := s.inputHash(shape, axes)
	if s.cached != nil && hash == s.cachedHash {
		return s.cached.clone(), nil
	}

	effShape, effAxes, err := s.effectiveLayout(shape, axes)
	if err != nil {
		return nil, err
	}
	if len(s.Patterns) != len(effShape) {
		return nil, errors.WrapConfig(
			fmt.Errorf("%d patterns for %d addressed dimensions: %w",
				len(s.Patterns), len(effShape), errors.ErrDimensionCount),
			"Selector", "Resolve", "pattern arity check")
	}

	selection := make(Selection, len(effShape))
	for dim, pattern := range s.Patterns {
		valueMode := s.ValueMode
		if s.TimelineDims > 0 && dim == 0 {
			// The synthetic timeline axis has no physical coordinate.
			valueMode = false
		}
		indices, err := resolvePattern(pattern, effShape[dim], effAxes[dim], valueMode)
		if err != nil {
			return nil, errors.Wrap(err, "Selector", "Resolve",
				fmt.Sprintf("pattern %q for dimension %d", pattern, dim))
		}
		selection[dim] = indices
	}

	if s.TargetDims >= 0 {
		if active := selection.ActiveDims(); active != s.TargetDims {
			return nil, errors.WrapConfig(
				fmt.Errorf("selection spans %d dimensions, target is %d: %w",
					active, s.TargetDims, errors.ErrDimensionMismatch),
				"Selector", "Resolve", "target dimensionality check")
		}
	}

	s.cached = selection.clone()
	s.cachedHash = hash
	return selection, nil
}

// effectiveLayout applies timeline collapsing to the shape and axes.
func (s *Selector) effectiveLayout(shape []int, axes [][]float64) ([]int, [][]float64, error) {
	if s.TimelineDims <= 0 {
		effAxes := make([][]float64, len(shape))
		copy(effAxes, axes)
		return shape, effAxes, nil
	}
	if s.TimelineDims > len(shape) {
		return nil, nil, errors.WrapConfig(
			fmt.Errorf("cannot collapse %d of %d dimensions: %w",
				s.TimelineDims, len(shape), errors.ErrDimensionCount),
			"Selector", "Resolve", "timeline collapse check")
	}

	collapsed := 1
	for _, extent := range shape[:s.TimelineDims] {
		collapsed *= extent
	}
	effShape := append([]int{collapsed}, shape[s.TimelineDims:]...)
	effAxes := make([][]float64, len(effShape))
	for dim := s.TimelineDims; dim < len(shape); dim++ {
		if dim < len(axes) {
			effAxes[dim-s.TimelineDims+1] = axes[dim]
		}
	}
	return effShape, effAxes, nil
}

// resolvePattern translates one dimension's pattern into a deduplicated
// ascending index array bounded by the extent.
func resolvePattern(pattern string, extent int, axis []float64, valueMode bool) ([]int, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == ":" {
		indices := make([]int, extent)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	if !patternRegexp.MatchString(pattern) {
		return nil, errors.WrapConfig(
			fmt.Errorf("pattern %q: %w", pattern, errors.ErrPatternSyntax),
			"Selector", "resolvePattern", "syntax check")
	}

	picked := make(map[int]bool)
	for _, item := range strings.Split(pattern, ",") {
		if strings.Contains(item, ":") {
			if err := resolveRange(item, extent, axis, valueMode, picked); err != nil {
				return nil, err
			}
			continue
		}
		idx, err := resolveSingle(item, extent, axis, valueMode)
		if err != nil {
			return nil, err
		}
		picked[idx] = true
	}

	indices := make([]int, 0, len(picked))
	for idx := range picked {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

// resolveSingle resolves one bare number. In index mode negative indices wrap
// modulo the extent; in value mode the number is matched to the closest axis
// coordinate.
func resolveSingle(item string, extent int, axis []float64, valueMode bool) (int, error) {
	if valueMode {
		value, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return 0, errors.WrapConfig(
				fmt.Errorf("value %q: %w", item, errors.ErrPatternSyntax),
				"Selector", "resolveSingle", "value parsing")
		}
		return nearestIndex(axis, value, extent), nil
	}

	idx, err := strconv.Atoi(item)
	if err != nil {
		return 0, errors.WrapConfig(
			fmt.Errorf("index %q: %w", item, errors.ErrPatternSyntax),
			"Selector", "resolveSingle", "index parsing")
	}
	if idx < 0 {
		idx += extent
	}
	if idx < 0 || idx >= extent {
		return 0, errors.WrapConfig(
			fmt.Errorf("index %q outside extent %d: %w", item, extent, errors.ErrIndexOutOfRange),
			"Selector", "resolveSingle", "bounds check")
	}
	return idx, nil
}

// resolveRange resolves one start:stop[:step] item into picked. stop is
// exclusive; in value mode both endpoints are matched to the closest axis
// coordinate first, and the resolved stop index is then treated exclusively.
// The step is always an index-space integer.
func resolveRange(item string, extent int, axis []float64, valueMode bool, picked map[int]bool) error {
	parts := strings.Split(item, ":")
	if len(parts) > 3 {
		return errors.WrapConfig(
			fmt.Errorf("range %q: %w", item, errors.ErrPatternSyntax),
			"Selector", "resolveRange", "syntax check")
	}

	start, stop := 0, extent
	var err error
	if parts[0] != "" {
		if start, err = resolveSingle(parts[0], extent, axis, valueMode); err != nil {
			return err
		}
	}
	if parts[1] != "" {
		if valueMode {
			stop, err = resolveSingle(parts[1], extent, axis, true)
		} else {
			stop, err = parseStop(parts[1], extent)
		}
		if err != nil {
			return err
		}
	}

	step := 1
	if len(parts) == 3 && parts[2] != "" {
		step, err = strconv.Atoi(parts[2])
		if err != nil || step <= 0 {
			return errors.WrapConfig(
				fmt.Errorf("step %q in range %q: %w", parts[2], item, errors.ErrPatternSyntax),
				"Selector", "resolveRange", "step validation")
		}
	}

	for idx := start; idx < stop; idx += step {
		picked[idx] = true
	}
	return nil
}

// parseStop parses an exclusive index-mode stop endpoint. Negative stops wrap
// modulo the extent; the stop may equal the extent itself.
func parseStop(item string, extent int) (int, error) {
	stop, err := strconv.Atoi(item)
	if err != nil {
		return 0, errors.WrapConfig(
			fmt.Errorf("index %q: %w", item, errors.ErrPatternSyntax),
			"Selector", "parseStop", "index parsing")
	}
	if stop < 0 {
		stop += extent
	}
	if stop < 0 || stop > extent {
		return 0, errors.WrapConfig(
			fmt.Errorf("index %q outside extent %d: %w", item, extent, errors.ErrIndexOutOfRange),
			"Selector", "parseStop", "bounds check")
	}
	return stop, nil
}

// nearestIndex returns argmin(|axis - value|). Without coordinates the axis
// is ordinal and the value is rounded and clamped.
func nearestIndex(axis []float64, value float64, extent int) int {
	if len(axis) == 0 {
		idx := int(math.Round(value))
		if idx < 0 {
			return 0
		}
		if idx >= extent {
			return extent - 1
		}
		return idx
	}
	best, bestDist := 0, math.Abs(axis[0]-value)
	for i := 1; i < len(axis); i++ {
		if dist := math.Abs(axis[i] - value); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// inputHash folds every input contributing to a resolution into one FNV-1a
// hash, the cache-invalidation key.
func (s *Selector) inputHash(shape []int, axes [][]float64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	writeUint := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf)
	}

	for _, p := range s.Patterns {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	flags := uint64(0)
	if s.ValueMode {
		flags = 1
	}
	writeUint(flags)
	writeUint(uint64(int64(s.TimelineDims)))
	writeUint(uint64(int64(s.TargetDims)))
	writeUint(uint64(int64(s.ActiveNode)))
	for _, extent := range shape {
		writeUint(uint64(int64(extent)))
	}
	for _, axis := range axes {
		writeUint(uint64(len(axis)))
		for _, v := range axis {
			writeUint(math.Float64bits(v))
		}
	}
	return h.Sum64()
}
