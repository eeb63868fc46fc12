// Package reports manages cached reports and renders them for export.
package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/models"
)

// Format selects the export rendering of a cached report.
type Format string

const (
	// FormatJSON renders {title, generatedAt, type, data}.
	FormatJSON Format = "json"
	// FormatCSV renders the report rows as comma-delimited text.
	FormatCSV Format = "csv"
	// FormatTSV renders tab-delimited text for spreadsheet import.
	FormatTSV Format = "tsv"
)

// exportDocument is the JSON export shape.
type exportDocument struct {
	Title       string          `json:"title"`
	GeneratedAt string          `json:"generatedAt"`
	Type        string          `json:"type"`
	Data        json.RawMessage `json:"data"`
}

// Export renders the cached report with the given id into w.
func (s *Service) Export(ctx context.Context, id string, format Format, w io.Writer) error {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return err
	}
	if report == nil {
		return apperr.Newf(apperr.ErrNotFound, "report %q not found", id)
	}

	switch format {
	case FormatJSON:
		return exportJSON(report, w)
	case FormatCSV:
		return exportDelimited(report, w, ',')
	case FormatTSV:
		return exportDelimited(report, w, '\t')
	}
	return apperr.Newf(apperr.ErrValidation, "unknown export format %q", format)
}

func exportJSON(report *models.Report, w io.Writer) error {
	doc := exportDocument{
		Title:       report.Title,
		GeneratedAt: report.GeneratedAt,
		Type:        report.Type,
		Data:        report.Data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return apperr.Wrap(apperr.ErrExportFailed, "encoding report document", err)
	}
	return nil
}

// exportDelimited writes the report's rows as delimited text. The header
// is the sorted union of row keys so rows with sparse fields still line
// up.
func exportDelimited(report *models.Report, w io.Writer, comma rune) error {
	var rows []map[string]any
	if len(report.Data) > 0 {
		if err := json.Unmarshal(report.Data, &rows); err != nil {
			return apperr.Wrap(apperr.ErrExportFailed, "report data is not tabular", err)
		}
	}

	headerSet := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			headerSet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(headerSet))
	for k := range headerSet {
		header = append(header, k)
	}
	sort.Strings(header)

	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(header); err != nil {
		return apperr.Wrap(apperr.ErrExportFailed, "writing header", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, k := range header {
			record[i] = cellValue(row[k])
		}
		if err := cw.Write(record); err != nil {
			return apperr.Wrap(apperr.ErrExportFailed, "writing row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperr.Wrap(apperr.ErrExportFailed, "flushing output", err)
	}
	return nil
}

func cellValue(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
