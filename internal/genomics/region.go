// Package genomics contains definitions related to genomic data.
package genomics

import (
	"fmt"
	"strconv"
	"strings"
)

// Region defines a region of genomic interest.
type Region struct {
	// ReferenceName names the reference sequence the region lies on.
	ReferenceName string
	// Start and End specify the 0-based half-open range (in base pairs)
	// relative to the reference, following the GA4GH convention.  If End
	// is zero, the region extends to the last position on the reference.
	Start, End int64
}

func (region Region) String() string {
	return fmt.Sprintf("%s:%d-%d", region.ReferenceName, region.Start, region.End)
}

// ParseRegion parses a region in "name:start-end" form, with start and
// end in 0-based half-open coordinates.  A bare "name" selects the whole
// reference.
func ParseRegion(s string) (Region, error) {
	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		if s == "" {
			return Region{}, fmt.Errorf("empty region")
		}
		return Region{ReferenceName: s}, nil
	}

	name, span := s[:colon], s[colon+1:]
	if name == "" {
		return Region{}, fmt.Errorf("missing reference name in %q", s)
	}

	bounds := strings.SplitN(span, "-", 2)
	if len(bounds) != 2 {
		return Region{}, fmt.Errorf("malformed range %q (want start-end)", span)
	}
	start, err := strconv.ParseInt(bounds[0], 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("parsing start: %v", err)
	}
	end, err := strconv.ParseInt(bounds[1], 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("parsing end: %v", err)
	}
	if start < 0 || (end != 0 && end <= start) {
		return Region{}, fmt.Errorf("invalid range %d-%d", start, end)
	}
	return Region{ReferenceName: name, Start: start, End: end}, nil
}
