package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vk/flowrungo/internal/model"
)

// Format selects the output table encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv or json)", s)
}

// DetectFormat infers the format from an output file name, defaulting to CSV
// when the extension is unrecognized.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// csvHeader is the column order of the output table.
var csvHeader = []string{"program_path", "handle_uri", "state", "timestamp", "param_string", "flow_id"}

// WriteCSV writes the table as CSV with a header row.
func WriteCSV(w io.Writer, rows []model.JobResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ProgramPath,
			r.HandleURI,
			r.State,
			r.Timestamp.Format(time.RFC3339),
			r.ParamString,
			strconv.Itoa(r.FlowID),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as an indented JSON array.
func WriteJSON(w io.Writer, rows []model.JobResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if rows == nil {
		rows = []model.JobResult{}
	}
	return enc.Encode(rows)
}

// WriteFile writes the table to path in the given format.
func WriteFile(path string, format Format, rows []model.JobResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatJSON:
		err = WriteJSON(f, rows)
	default:
		err = WriteCSV(f, rows)
	}
	if err != nil {
		return fmt.Errorf("writing output table: %w", err)
	}
	return f.Close()
}
