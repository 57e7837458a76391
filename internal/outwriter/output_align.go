package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// alignRow is the flat form of a sample's alignment report.
type alignRow struct {
	Sample   string                   `json:"sample"`
	File     string                   `json:"file"`
	Status   string                   `json:"status"`
	Error    string                   `json:"error,omitempty"`
	Ladder   string                   `json:"ladder"`
	Method   string                   `json:"method"`
	Score    float64                  `json:"score"`
	RSS      float64                  `json:"rss"`
	DPScore  float64                  `json:"dpscore"`
	Matched  int                      `json:"matched"`
	Expected int                      `json:"expected"`
	Attempts []schema.StrategyAttempt `json:"attempts"`
}

func collectAlignRows(batch *schema.BatchResult) []alignRow {
	rows := make([]alignRow, 0, len(batch.Samples))
	for _, s := range batch.Samples {
		row := alignRow{
			Sample: s.Sample,
			File:   s.Path,
			Status: string(s.Status),
			Error:  s.Error,
		}
		if a := s.Alignment; a != nil {
			row.Ladder = a.Ladder
			row.Method = a.Method
			row.Score = a.Score
			row.RSS = a.RSS
			row.DPScore = a.DPScore
			row.Matched = a.Matched
			row.Expected = a.Expected
			row.Attempts = a.Attempts
		}
		rows = append(rows, row)
	}
	return rows
}

// formatAttempts renders strategy attempts as "strategy:status:score" joined by semicolons.
func formatAttempts(attempts []schema.StrategyAttempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s:%s:%.*f", a.Strategy, a.Status, scorePrecision, a.Score))
	}
	return strings.Join(parts, ";")
}

// WriteAlignResults outputs the ladder alignment report of every sample.
func WriteAlignResults(batch *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	rows := collectAlignRows(batch)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut, schema.TSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlignDelimited(w, delimiterFor(cfg.Output), rows)
		}, "Wrote "+string(cfg.Output)); err != nil {
			return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlignTable(rows, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

func writeAlignDelimited(w io.Writer, comma rune, rows []alignRow) error {
	fmtFloat, intFmt := createFormatters(scorePrecision)
	header := []string{"sample", "file", "status", "ladder", "method", "score", "rss", "dpscore", "matched", "expected", "attempts", "error"}
	return writeCSVWithHeader(w, comma, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Sample,
				r.File,
				r.Status,
				r.Ladder,
				r.Method,
				fmtFloat(r.Score),
				fmtFloat(r.RSS),
				fmtFloat(r.DPScore),
				fmt.Sprintf(intFmt, r.Matched),
				fmt.Sprintf(intFmt, r.Expected),
				formatAttempts(r.Attempts),
				r.Error,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeAlignTable(rows []alignRow, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	fmtFloat, _ := createFormatters(scorePrecision)
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Sample", "Status", "Method", "Score", "RSS", "DPScore", "Matched", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	sampleWidth := getMaxSampleWidth(cfg)
	ok := 0
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.Status == string(schema.StatusOK) {
			ok++
		}
		data = append(data, []string{
			contract.TruncatePath(r.Sample, sampleWidth),
			r.Status,
			r.Method,
			fmtFloat(r.Score),
			fmtFloat(r.RSS),
			fmtFloat(r.DPScore),
			strconv.Itoa(r.Matched) + "/" + strconv.Itoa(r.Expected),
			qualityLabel(cfg, r.Score),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Aligned %d of %d samples against %s\n", ok, len(rows), cfg.Ladder.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Alignment completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}
