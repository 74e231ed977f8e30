package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteCSV writes the header row followed by rows. Fields holding a comma,
// quote or newline are quoted with doubled quotes.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

var fileNameReplacer = strings.NewReplacer("/", "_", `\`, "_", `"`, "", "\n", " ", "\r", " ")

// FileName names an export file, e.g. export_inspections_2026-03-01.csv.
func FileName(context, ext string, at time.Time) string {
	context = strings.TrimSpace(fileNameReplacer.Replace(context))
	if context == "" {
		context = "card"
	}
	return fmt.Sprintf("export_%s_%s.%s", context, at.Format("2006-01-02"), ext)
}
