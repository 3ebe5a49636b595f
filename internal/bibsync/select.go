package bibsync

import (
	"fmt"

	"github.com/aykhuss/inspire/internal/inspire"
)

// Picker chooses a subset of candidates, returning their indices.
type Picker func(candidates []inspire.Record) ([]int, error)

// Select applies pick to records. With at most one candidate the picker is
// not consulted. Repeated indices are collapsed; out-of-range indices are
// an error.
func Select(records []inspire.Record, pick Picker) ([]inspire.Record, error) {
	if len(records) <= 1 || pick == nil {
		return records, nil
	}

	indices, err := pick(records)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(indices))
	selected := make([]inspire.Record, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(records) {
			return nil, fmt.Errorf("selection index %d out of range [0, %d)", i, len(records))
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		selected = append(selected, records[i])
	}
	return selected, nil
}
