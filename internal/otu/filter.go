package otu

import (
	"fmt"

	"github.com/ampliconworks/ampliflow/internal/fasta"
)

// Thresholds are the per-cell abundance criteria. Both must hold for a
// count to survive; MinFreq = 0 degenerates the frequency criterion to
// always-true.
type Thresholds struct {
	// MinCount is the minimum absolute read count (positive).
	MinCount int
	// MinFreq is the minimum fraction of the sample's total reads, in [0, 1).
	MinFreq float64
}

// Validate reports threshold values outside their documented domains.
func (th Thresholds) Validate() error {
	if th.MinCount <= 0 {
		return fmt.Errorf("min count must be a positive integer, got %d", th.MinCount)
	}
	if th.MinFreq < 0 || th.MinFreq >= 1 {
		return fmt.Errorf("min frequency must be in [0, 1), got %g", th.MinFreq)
	}
	return nil
}

// FilterResult is the outcome of low-abundance filtering.
type FilterResult struct {
	// Table is the filtered table. It keeps every row of the input; cells
	// failing either threshold are zeroed.
	Table *Table
	// Passed are the OTU ids whose filtered row retains at least one
	// non-zero count, in table order.
	Passed []string
	// Failed are the remaining OTU ids, in table order.
	Failed []string
}

// Filter zeroes every cell below the thresholds. Each sample column is
// treated independently, and the frequency denominator is the column total
// of the UNFILTERED table, so processing order cannot affect the result.
// A column whose total is zero contributes frequency 0 for every cell.
func Filter(t *Table, th Thresholds) (*FilterResult, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}

	totals := make([]int, len(t.Samples))
	for _, id := range t.IDs {
		for col, n := range t.Counts[id] {
			totals[col] += n
		}
	}

	filtered := t.Clone()
	for _, id := range filtered.IDs {
		row := filtered.Counts[id]
		for col, n := range row {
			freq := 0.0
			if totals[col] > 0 {
				freq = float64(n) / float64(totals[col])
			}
			if n < th.MinCount || freq < th.MinFreq {
				row[col] = 0
			}
		}
	}

	result := &FilterResult{Table: filtered}
	for _, id := range filtered.IDs {
		if rowHasCounts(filtered.Counts[id]) {
			result.Passed = append(result.Passed, id)
		} else {
			result.Failed = append(result.Failed, id)
		}
	}
	return result, nil
}

func rowHasCounts(row []int) bool {
	for _, n := range row {
		if n > 0 {
			return true
		}
	}
	return false
}

// Partition splits centroid sequence records into those whose base id
// (annotations after ';' stripped) exactly matches a passed OTU id and the
// rest. Exact matching avoids the prefix collisions substring matching
// would allow (OTU_1 vs OTU_10).
func Partition(records []fasta.Record, passed []string) (kept []fasta.Record, failedIDs []string) {
	passedSet := make(map[string]bool, len(passed))
	for _, id := range passed {
		passedSet[id] = true
	}
	for _, rec := range records {
		if passedSet[rec.BaseID()] {
			kept = append(kept, rec)
		} else {
			failedIDs = append(failedIDs, rec.ID())
		}
	}
	return kept, failedIDs
}
