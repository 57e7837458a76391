package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// peakScannerHeader mirrors the column layout of the peak scanner export.
var peakScannerHeader = []string{
	"Dye/Sample Peak", "Sample File Name", "Size", "Height", "Area in Point", "Area in BP",
	"Data Point", "Begin Point", "Begin BP", "End Point", "End BP",
	"Width in Point", "Width in BP", "User Comments", "User Edit",
}

// WritePeakListing outputs every listed peak of a batch in the configured peaks format.
// JSON output ignores the peaks format and writes flat rows.
func WritePeakListing(batch *schema.BatchResult, cfg *contract.Config) error {
	rows := collectAlleleRows(batch, cfg.ShowAll)

	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	}

	switch cfg.PeaksFormat {
	case schema.PeakScannerFormat:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeakScanner(w, batch, cfg.ShowAll)
		}, "Wrote peak scanner listing")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStandardPeaks(w, rows)
		}, "Wrote peak listing")
	}
}

// writeStandardPeaks writes a tab separated listing with one line per peak.
func writeStandardPeaks(w io.Writer, rows []alleleRow) error {
	fmtFloat, intFmt := createFormatters(sizePrecision)
	header := []string{"SAMPLE", "FILENAME", "DYE", "RTIME", "SIZE", "HEIGHT", "AREA", "SCORE"}
	return writeCSVWithHeader(w, '\t', header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Sample,
				r.File,
				r.Dye,
				fmt.Sprintf(intFmt, r.RTime),
				fmtFloat(r.Size),
				fmt.Sprintf(intFmt, r.RFU),
				fmtFloat(r.Area),
				strconv.FormatFloat(r.QScore, 'f', scorePrecision, 64),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write peak record: %w", err)
			}
		}
		return nil
	})
}

// writePeakScanner writes the comma separated peak scanner layout.
// Peaks are numbered per channel and base pair columns are not tracked.
func writePeakScanner(w io.Writer, batch *schema.BatchResult, showAll bool) error {
	fmtFloat, intFmt := createFormatters(sizePrecision)
	return writeCSVWithHeader(w, ',', peakScannerHeader, func(cw *csv.Writer) error {
		for _, s := range batch.Samples {
			file := fileStem(s.Path)
			for _, ch := range s.Channels {
				letter := dyeLetter(ch.Dye)
				for i, p := range visiblePeaks(ch, showAll) {
					rec := []string{
						fmt.Sprintf("%s, %d", letter, i+1),
						file,
						fmtFloat(p.Size),
						fmt.Sprintf(intFmt, p.RFU),
						fmtFloat(p.Area),
						"-1",
						fmt.Sprintf(intFmt, p.RTime),
						fmt.Sprintf(intFmt, p.BRTime),
						"-1",
						fmt.Sprintf(intFmt, p.ERTime),
						"-1",
						fmt.Sprintf(intFmt, p.WRTime),
						"-1",
						p.Note,
						"",
					}
					if err := cw.Write(rec); err != nil {
						return fmt.Errorf("failed to write peak record: %w", err)
					}
				}
			}
		}
		return nil
	})
}
