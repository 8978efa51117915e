package scheduler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// FormatReport renders query rows into the report's output format.
func FormatReport(report *entities.ScheduledReport, rows []map[string]any, generatedAt time.Time) (string, error) {
	switch report.Format {
	case entities.ReportFormatJSON:
		return formatJSON(report, rows, generatedAt)
	case entities.ReportFormatCSV:
		return formatCSV(rows)
	case entities.ReportFormatText, "":
		return formatText(report, rows, generatedAt), nil
	default:
		return "", errors.NewValidation("format", "unknown report format %q", report.Format)
	}
}

// columnOrder returns the union of row keys in a stable order.
func columnOrder(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func formatJSON(report *entities.ScheduledReport, rows []map[string]any, generatedAt time.Time) (string, error) {
	payload := map[string]any{
		"report":       report.Name,
		"query":        report.Query,
		"time_range":   report.TimeRange,
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"result_count": len(rows),
		"results":      rows,
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(encoded), nil
}

func formatCSV(rows []map[string]any) (string, error) {
	columns := columnOrder(rows)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("writing csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			if v, ok := row[col]; ok {
				record[i] = fmt.Sprintf("%v", v)
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	return buf.String(), nil
}

func formatText(report *entities.ScheduledReport, rows []map[string]any, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report: %s\n", report.Name)
	fmt.Fprintf(&b, "Query: %s\n", report.Query)
	fmt.Fprintf(&b, "Time range: %s\n", report.TimeRange)
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Results: %d\n", len(rows))

	if len(rows) == 0 {
		return b.String()
	}

	columns := columnOrder(rows)
	b.WriteString("\n")
	b.WriteString(strings.Join(columns, "\t"))
	b.WriteString("\n")
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok {
				values[i] = fmt.Sprintf("%v", v)
			}
		}
		b.WriteString(strings.Join(values, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
