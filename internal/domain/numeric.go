package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseFloat parses a source value into a float, treating empty strings and
// the upstream NA sentinels as absent rather than zero.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "null", "None":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt parses a source value as a rounded integer, absent on failure.
func ParseInt(s string) *int {
	f := ParseFloat(s)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

// FloatOf dereferences an optional string cell into an optional float.
func FloatOf(s *string) *float64 {
	if s == nil {
		return nil
	}
	return ParseFloat(*s)
}

// IntOf dereferences an optional string cell into an optional integer.
func IntOf(s *string) *int {
	if s == nil {
		return nil
	}
	return ParseInt(*s)
}

// AnnualGrowthRate returns the compound annual growth rate between p0 and
// p1 over the given span. Defined only for positive populations and a
// positive span; absent otherwise.
func AnnualGrowthRate(p0, p1 *float64, years int) *float64 {
	if p0 == nil || p1 == nil || years <= 0 || *p0 <= 0 || *p1 <= 0 {
		return nil
	}
	r := math.Pow((*p1)/(*p0), 1.0/float64(years)) - 1.0
	return &r
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
