// Package manifest writes and reads the dataset manifests: prompt tables for
// vision-language training and the full per-image metadata table.
//
// The format follows the file extension. ".parquet" writes Parquet, anything
// else writes CSV.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is a manifest serialization.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatOf picks the format from a path's extension.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// WritePrompts writes a prompt manifest to path. The split column is written
// when withSplit is set; Parquet output always carries it.
func WritePrompts(path string, rows []PromptRow, withSplit bool) error {
	var buf bytes.Buffer
	var err error
	switch FormatOf(path) {
	case FormatParquet:
		err = writeParquet(&buf, rows)
	default:
		err = EncodePromptsCSV(&buf, rows, withSplit)
	}
	if err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ReadPrompts loads a prompt manifest.
func ReadPrompts(path string) ([]PromptRow, error) {
	if FormatOf(path) == FormatParquet {
		return readParquet[PromptRow](path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return DecodePromptsCSV(f)
}

// WriteRecords writes a metadata manifest to path.
func WriteRecords(path string, records []Record) error {
	var buf bytes.Buffer
	var err error
	switch FormatOf(path) {
	case FormatParquet:
		err = writeParquet(&buf, records)
	default:
		err = EncodeRecordsCSV(&buf, records)
	}
	if err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ReadRecords loads a metadata manifest.
func ReadRecords(path string) ([]Record, error) {
	if FormatOf(path) == FormatParquet {
		return readParquet[Record](path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return DecodeRecordsCSV(f)
}

// writeFile replaces path atomically through a temp file in the same
// directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move manifest into place: %w", err)
	}
	return nil
}
