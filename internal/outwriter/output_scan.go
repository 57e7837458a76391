package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// alleleRow is one listed peak with the sample and channel it belongs to.
type alleleRow struct {
	Sample    string  `json:"sample"`
	File      string  `json:"file"`
	Status    string  `json:"status"`
	Dye       string  `json:"dye"`
	Marker    string  `json:"marker,omitempty"`
	RTime     int     `json:"rtime"`
	Size      float64 `json:"size"`
	Bin       int     `json:"bin"`
	RFU       int     `json:"rfu"`
	Area      float64 `json:"area"`
	QScore    float64 `json:"qscore"`
	QCall     float64 `json:"qcall"`
	Deviation float64 `json:"deviation"`
	Method    string  `json:"method"`
	Type      string  `json:"type"`
}

// collectAlleleRows flattens the visible peaks of a batch in sample, channel and scan time order.
func collectAlleleRows(batch *schema.BatchResult, showAll bool) []alleleRow {
	var rows []alleleRow
	for _, s := range batch.Samples {
		for _, ch := range s.Channels {
			for _, p := range visiblePeaks(ch, showAll) {
				rows = append(rows, alleleRow{
					Sample:    s.Sample,
					File:      s.Path,
					Status:    string(s.Status),
					Dye:       ch.Dye,
					Marker:    ch.Marker,
					RTime:     p.RTime,
					Size:      p.Size,
					Bin:       p.Bin,
					RFU:       p.RFU,
					Area:      p.Area,
					QScore:    p.QScore,
					QCall:     p.QCall,
					Deviation: p.Deviation,
					Method:    string(p.Method),
					Type:      string(p.Type),
				})
			}
		}
	}
	return rows
}

// WriteScanResults outputs the sized alleles of a batch, dispatching based on the output format configured.
func WriteScanResults(batch *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(sizePrecision)
	rows := collectAlleleRows(batch, cfg.ShowAll)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, batch)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut, schema.TSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlleleDelimited(w, delimiterFor(cfg.Output), rows, fmtFloat, intFmt)
		}, "Wrote "+string(cfg.Output)); err != nil {
			return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlleleTable(batch, rows, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeAlleleDelimited writes one line per listed peak.
func writeAlleleDelimited(w io.Writer, comma rune, rows []alleleRow, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"sample", "file", "dye", "marker", "rtime", "size", "bin",
		"rfu", "area", "qscore", "qcall", "deviation", "method", "type",
	}
	return writeCSVWithHeader(w, comma, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Sample,
				r.File,
				r.Dye,
				r.Marker,
				fmt.Sprintf(intFmt, r.RTime),
				fmtFloat(r.Size),
				fmt.Sprintf(intFmt, r.Bin),
				fmt.Sprintf(intFmt, r.RFU),
				fmtFloat(r.Area),
				strconv.FormatFloat(r.QScore, 'f', scorePrecision, 64),
				strconv.FormatFloat(r.QCall, 'f', scorePrecision, 64),
				strconv.FormatFloat(r.Deviation, 'f', scorePrecision, 64),
				r.Method,
				r.Type,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeAlleleTable generates and writes the human-readable allele table.
func writeAlleleTable(batch *schema.BatchResult, rows []alleleRow, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Sample", "Dye", "Size", "Bin", "RFU", "Area", "QScore", "Label"}
	if cfg.ShowAll {
		headers = append(headers, "Type", "RTime")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	sampleWidth := getMaxSampleWidth(cfg)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := []string{
			contract.TruncatePath(r.Sample, sampleWidth),
			r.Dye,
			fmtFloat(r.Size),
			fmt.Sprintf(intFmt, r.Bin),
			fmt.Sprintf(intFmt, r.RFU),
			fmtFloat(r.Area),
			strconv.FormatFloat(r.QScore, 'f', scorePrecision, 64),
			qualityLabel(cfg, r.QScore),
		}
		if cfg.ShowAll {
			row = append(row, r.Type, fmt.Sprintf(intFmt, r.RTime))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	failed, mismatched := 0, 0
	for _, s := range batch.Samples {
		switch s.Status {
		case schema.StatusFailed:
			failed++
		case schema.StatusLadderMismatch:
			mismatched++
		}
	}
	if _, err := fmt.Fprintf(writer, "Showing %d peaks from %d samples (mismatched: %d, failed: %d)\n", len(rows), len(batch.Samples), mismatched, failed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Sizing completed in %v with %d workers. Ladder: %s\n", duration, cfg.Workers, cfg.Ladder.Name); err != nil {
		return err
	}
	return nil
}

// qualityLabel returns a colored label unless colors are disabled.
func qualityLabel(cfg *contract.Config, qscore float64) string {
	if !cfg.UseColors {
		return schema.GetPlainLabel(qscore)
	}
	return contract.GetColorLabel(qscore)
}
