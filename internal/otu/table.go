// Package otu holds the OTU abundance table and its low-abundance filter,
// the one data transformation the pipeline performs itself rather than
// delegating to an external tool.
package otu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an OTU-by-sample matrix of non-negative read counts. Row and
// column order is preserved exactly across read/write round trips.
type Table struct {
	// Label is the header text of the id column, "#OTU ID" by default.
	Label string
	// IDs are the OTU row labels in file order.
	IDs []string
	// Samples are the column labels in file order.
	Samples []string
	// Counts maps an OTU id to its per-sample counts, aligned with Samples.
	Counts map[string][]int
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Label:   t.Label,
		IDs:     append([]string(nil), t.IDs...),
		Samples: append([]string(nil), t.Samples...),
		Counts:  make(map[string][]int, len(t.Counts)),
	}
	for id, row := range t.Counts {
		c.Counts[id] = append([]int(nil), row...)
	}
	return c
}

// ReadTable parses a tab-separated abundance table: a header row with the
// OTU-id column followed by sample ids, then one row per OTU of integer
// counts.
func ReadTable(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read table header: %w", err)
		}
		return nil, fmt.Errorf("abundance table is empty")
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	if len(header) < 2 {
		return nil, fmt.Errorf("abundance table header has no sample columns")
	}

	t := &Table{
		Label:   header[0],
		Samples: header[1:],
		Counts:  make(map[string][]int),
	}

	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(header), len(fields))
		}
		id := fields[0]
		if _, dup := t.Counts[id]; dup {
			return nil, fmt.Errorf("line %d: duplicate OTU id %s", lineNo, id)
		}
		row := make([]int, len(fields)-1)
		for i, cell := range fields[1:] {
			n, err := strconv.Atoi(cell)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("line %d: invalid count %q for OTU %s", lineNo, cell, id)
			}
			row[i] = n
		}
		t.IDs = append(t.IDs, id)
		t.Counts[id] = row
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read abundance table: %w", err)
	}
	return t, nil
}

// WriteTo emits the table in the same tab-separated layout ReadTable
// accepts.
func (t *Table) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	label := t.Label
	if label == "" {
		label = "#OTU ID"
	}
	if _, err := fmt.Fprintf(bw, "%s\t%s\n", label, strings.Join(t.Samples, "\t")); err != nil {
		return err
	}
	for _, id := range t.IDs {
		row := t.Counts[id]
		cells := make([]string, len(row))
		for i, n := range row {
			cells[i] = strconv.Itoa(n)
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", id, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}
