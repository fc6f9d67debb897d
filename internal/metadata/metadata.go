// Package metadata loads the sample sheet that drives a pipeline run.
package metadata

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Sample is one row of the sample sheet. Records are immutable after load
// and owned by the pipeline for the duration of a run.
type Sample struct {
	RunID         string
	SampleID      string
	ForwardPrimer string
	ReversePrimer string
	ForwardFile   string
	ReverseFile   string
}

// columns per row: run_id, sample_id, forward_primer, reverse_primer,
// forward_file, reverse_file
const fieldCount = 6

// Load reads a tab-separated sample sheet with no header row. Sample ids
// must be unique within their run.
func Load(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = fieldCount

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metadata file %s contains no samples", path)
	}

	seen := make(map[string]bool, len(rows))
	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		s := Sample{
			RunID:         row[0],
			SampleID:      row[1],
			ForwardPrimer: row[2],
			ReversePrimer: row[3],
			ForwardFile:   row[4],
			ReverseFile:   row[5],
		}
		key := s.RunID + "\x00" + s.SampleID
		if seen[key] {
			return nil, fmt.Errorf("metadata line %d: duplicate sample id %s in run %s", i+1, s.SampleID, s.RunID)
		}
		seen[key] = true
		samples = append(samples, s)
	}
	return samples, nil
}

// SampleIDs returns the sample ids in sheet order.
func SampleIDs(samples []Sample) []string {
	ids := make([]string, len(samples))
	for i, s := range samples {
		ids[i] = s.SampleID
	}
	return ids
}
