package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EncodePromptsCSV writes prompt rows with an "image,prompt" header, plus a
// split column when withSplit is set.
func EncodePromptsCSV(w io.Writer, rows []PromptRow, withSplit bool) error {
	cw := csv.NewWriter(w)

	header := []string{ColImage, ColPrompt}
	if withSplit {
		header = append(header, ColSplit)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		row := []string{r.Image, r.Prompt}
		if withSplit {
			row = append(row, r.Split)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DecodePromptsCSV reads a prompt manifest. The split column is optional.
func DecodePromptsCSV(r io.Reader) ([]PromptRow, error) {
	header, body, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, ColImage, ColPrompt); err != nil {
		return nil, err
	}

	rows := make([]PromptRow, 0, len(body))
	for _, rec := range body {
		rows = append(rows, PromptRow{
			Image:  field(header, rec, ColImage),
			Prompt: field(header, rec, ColPrompt),
			Split:  field(header, rec, ColSplit),
		})
	}
	return rows, nil
}

// EncodeRecordsCSV writes metadata records. Missing attributes become empty
// cells.
func EncodeRecordsCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Image,
			r.Split,
			r.City,
			formatFloat(&r.Latitude),
			formatFloat(&r.Longitude),
			r.MaterialClass,
			r.Country,
			r.Continent,
			r.Filename,
			formatFloat(r.Height),
			formatFloat(r.NumStories),
			formatString(r.RoofShape),
			formatFloat(r.FootprintArea),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DecodeRecordsCSV reads a metadata manifest written by EncodeRecordsCSV.
func DecodeRecordsCSV(r io.Reader) ([]Record, error) {
	header, body, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, ColImage, ColCity, ColMaterialClass, ColLatitude, ColLongitude); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(body))
	for i, rec := range body {
		line := i + 2
		lat, err := strconv.ParseFloat(field(header, rec, ColLatitude), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(header, rec, ColLongitude), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %w", line, err)
		}

		out := Record{
			Image:         field(header, rec, ColImage),
			Split:         field(header, rec, ColSplit),
			City:          field(header, rec, ColCity),
			Latitude:      lat,
			Longitude:     lon,
			MaterialClass: field(header, rec, ColMaterialClass),
			Country:       field(header, rec, ColCountry),
			Continent:     field(header, rec, ColContinent),
			Filename:      field(header, rec, ColFilename),
			RoofShape:     parseString(field(header, rec, ColRoofShape)),
		}
		if out.Height, err = parseFloat(field(header, rec, ColHeight)); err != nil {
			return nil, fmt.Errorf("line %d: invalid height: %w", line, err)
		}
		if out.NumStories, err = parseFloat(field(header, rec, ColNumStories)); err != nil {
			return nil, fmt.Errorf("line %d: invalid numstories: %w", line, err)
		}
		if out.FootprintArea, err = parseFloat(field(header, rec, ColFootprintArea)); err != nil {
			return nil, fmt.Errorf("line %d: invalid fpArea: %w", line, err)
		}
		records = append(records, out)
	}
	return records, nil
}

func readTable(r io.Reader) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("manifest is empty")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}

	body, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return header, body, nil
}

func requireColumns(header map[string]int, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("manifest is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func field(header map[string]int, rec []string, col string) string {
	i, ok := header[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
