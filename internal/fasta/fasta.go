// Package fasta reads and writes the centroid sequence files the
// abundance filter partitions. Sequences are opaque payloads here; no
// biological interpretation happens in this package.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one FASTA entry. Header is the full text after '>', Seq the
// concatenated sequence lines.
type Record struct {
	Header string
	Seq    string
}

// ID returns the first whitespace-delimited token of the header.
func (r Record) ID() string {
	if i := strings.IndexAny(r.Header, " \t"); i >= 0 {
		return r.Header[:i]
	}
	return r.Header
}

// BaseID returns the id with any ';'-delimited annotations stripped,
// e.g. "OTU_1;size=500" -> "OTU_1". vsearch --sizeout appends such
// annotations to centroid headers while table rows carry the bare id.
func (r Record) BaseID() string {
	id := r.ID()
	if i := strings.IndexByte(id, ';'); i >= 0 {
		return id[:i]
	}
	return id
}

// Read parses all records from r.
func Read(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		records []Record
		header  string
		seq     strings.Builder
		open    bool
	)
	flush := func() {
		if open {
			records = append(records, Record{Header: header, Seq: seq.String()})
			seq.Reset()
		}
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header = strings.TrimSpace(line[1:])
			open = true
			continue
		}
		if !open {
			return nil, fmt.Errorf("line %d: sequence data before first header", lineNo)
		}
		seq.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fasta: %w", err)
	}
	flush()
	return records, nil
}

// Write emits records unwrapped, one sequence line per record.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := fmt.Fprintf(bw, ">%s\n%s\n", rec.Header, rec.Seq); err != nil {
			return err
		}
	}
	return bw.Flush()
}
