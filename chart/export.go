package chart

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the chart as indented JSON.
func WriteJSON(w io.Writer, chart CompetitionChart) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chart); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return nil
}

// WriteCSV writes the chart's total-points lines as CSV: one date column
// followed by one column per participant, rows in axis order.
func WriteCSV(w io.Writer, chart CompetitionChart) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(chart.Lines)+1)
	header = append(header, "date")
	for _, line := range chart.Lines {
		header = append(header, line.Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i, d := range chart.Dates {
		row := make([]string, 0, len(chart.Lines)+1)
		row = append(row, string(d))
		for _, line := range chart.Lines {
			row = append(row, strconv.FormatFloat(line.Total[i], 'f', 2, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
