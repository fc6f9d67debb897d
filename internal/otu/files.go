package otu

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ampliconworks/ampliflow/internal/fasta"
)

// Output names written next to the filtered table.
const (
	FilteredTableFile = "otutab.filter.txt"
	PassedFastaFile   = "otus.filter.fasta"
	FailedListFile    = "list.filter"
)

// FilterFiles applies Filter to the table at tablePath, partitions the
// centroid sequences at otusPath, and writes the filtered table, the
// passed sequences, and the failed-id list into outDir.
func FilterFiles(tablePath, otusPath, outDir string, th Thresholds, logger *slog.Logger) (*FilterResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tableFile, err := os.Open(tablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open abundance table: %w", err)
	}
	defer func() { _ = tableFile.Close() }()

	table, err := ReadTable(tableFile)
	if err != nil {
		return nil, err
	}

	result, err := Filter(table, th)
	if err != nil {
		return nil, err
	}

	otusFile, err := os.Open(otusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open centroid sequences: %w", err)
	}
	defer func() { _ = otusFile.Close() }()

	records, err := fasta.Read(otusFile)
	if err != nil {
		return nil, err
	}
	kept, failedIDs := Partition(records, result.Passed)

	if err := writeTable(filepath.Join(outDir, FilteredTableFile), result.Table); err != nil {
		return nil, err
	}
	if err := writeFasta(filepath.Join(outDir, PassedFastaFile), kept); err != nil {
		return nil, err
	}
	if err := writeLines(filepath.Join(outDir, FailedListFile), failedIDs); err != nil {
		return nil, err
	}

	logger.Info("abundance filter complete",
		"otus_passed", len(result.Passed),
		"otus_failed", len(result.Failed),
		"sequences_kept", len(kept))
	return result, nil
}

func writeTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFasta(path string, records []fasta.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fasta.Write(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}
