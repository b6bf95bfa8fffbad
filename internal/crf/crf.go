// Package crf parses CRF specifications into an ordered candidate space.
//
// Accepted forms:
//
//	35          single value
//	35,27,21    comma-separated list
//	36..21      inclusive range, step 1, either direction
//	36..21:3    stepped range, counted down from the higher bound
//
// Comma-separated terms may themselves be ranges. Every value must lie in
// [MinCRF, MaxCRF]. The resulting space is deduplicated and ordered from the
// cheapest candidate (highest CRF) to the most expensive (lowest CRF).
package crf

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// MinCRF is the lowest accepted CRF value.
	MinCRF = 1
	// MaxCRF is the highest accepted CRF value.
	MaxCRF = 70
)

// ErrInvalidSpec indicates a CRF specification that cannot be parsed or is out of range.
var ErrInvalidSpec = errors.New("invalid CRF specification")

// Space is an immutable, strictly descending sequence of CRF candidates.
type Space struct {
	values []int
}

// Parse parses a CRF specification string.
func Parse(spec string) (Space, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Space{}, fmt.Errorf("%w: empty specification", ErrInvalidSpec)
	}

	seen := make(map[int]bool)
	var values []int

	for _, term := range strings.Split(spec, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return Space{}, fmt.Errorf("%w: empty term in %q", ErrInvalidSpec, spec)
		}

		termValues, err := parseTerm(term)
		if err != nil {
			return Space{}, err
		}

		for _, v := range termValues {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	return Space{values: values}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(spec string) Space {
	s, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// FromValues builds a space from explicit values, applying the same
// validation and normalization as Parse.
func FromValues(values ...int) (Space, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return Parse(strings.Join(parts, ","))
}

// parseTerm parses one comma-separated term: a value, a range or a stepped range.
func parseTerm(term string) ([]int, error) {
	rangePart, stepStr, stepped := strings.Cut(term, ":")
	startStr, endStr, isRange := strings.Cut(rangePart, "..")

	if !isRange {
		if stepped {
			return nil, fmt.Errorf("%w: step without range in %q", ErrInvalidSpec, term)
		}
		v, err := parseValue(term)
		if err != nil {
			return nil, err
		}
		return []int{v}, nil
	}

	start, err := parseValue(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parseValue(endStr)
	if err != nil {
		return nil, err
	}

	step := 1
	if stepped {
		step, err = strconv.Atoi(strings.TrimSpace(stepStr))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid step %q", ErrInvalidSpec, stepStr)
		}
		if step <= 0 {
			return nil, fmt.Errorf("%w: step must be positive (got %d)", ErrInvalidSpec, step)
		}
	}

	// Steps always run down from the higher bound so it is never skipped.
	hi, lo := max(start, end), min(start, end)
	var values []int
	for v := hi; v >= lo; v -= step {
		values = append(values, v)
	}
	return values, nil
}

func parseValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid CRF value %q", ErrInvalidSpec, s)
	}
	if v < MinCRF || v > MaxCRF {
		return 0, fmt.Errorf("%w: CRF must be between %d-%d (got %d)", ErrInvalidSpec, MinCRF, MaxCRF, v)
	}
	return v, nil
}

// Values returns a copy of the candidates, cheapest first.
func (s Space) Values() []int {
	out := make([]int, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of candidates.
func (s Space) Len() int {
	return len(s.values)
}

// Cheapest returns the highest CRF in the space.
func (s Space) Cheapest() int {
	return s.values[0]
}

// MostExpensive returns the lowest CRF in the space.
func (s Space) MostExpensive() int {
	return s.values[len(s.values)-1]
}

// String serializes the space as a comma-separated list that Parse accepts.
func (s Space) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
