package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// formatSizes joins ladder sizes without trailing zeros.
func formatSizes(sizes []float64) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.FormatFloat(s, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// WriteLadders outputs the registered ladder definitions.
func WriteLadders(ladders []schema.Ladder, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ladders)
		}, "Wrote JSON")
	case schema.CSVOut, schema.TSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"name", "dye", "count", "min", "max", "sizes"}
			return writeCSVWithHeader(w, delimiterFor(cfg.Output), header, func(cw *csv.Writer) error {
				for _, l := range ladders {
					lo, hi := sizeRange(l.Sizes)
					rec := []string{l.Name, l.Dye, strconv.Itoa(len(l.Sizes)), lo, hi, formatSizes(l.Sizes)}
					if err := cw.Write(rec); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote "+string(cfg.Output))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Name", "Dye", "Count", "Min", "Max", "Strict RSS", "Relax RSS"})
			table.Configure(func(cfg *tablewriter.Config) {
				cfg.Row.Alignment.Global = tw.AlignRight
			})
			data := make([][]string, 0, len(ladders))
			for _, l := range ladders {
				lo, hi := sizeRange(l.Sizes)
				data = append(data, []string{
					l.Name, l.Dye, strconv.Itoa(len(l.Sizes)), lo, hi,
					strconv.FormatFloat(l.Strict.MaxRSS, 'f', -1, 64),
					strconv.FormatFloat(l.Relax.MaxRSS, 'f', -1, 64),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

func sizeRange(sizes []float64) (string, string) {
	if len(sizes) == 0 {
		return "-", "-"
	}
	return strconv.FormatFloat(sizes[0], 'f', -1, 64), strconv.FormatFloat(sizes[len(sizes)-1], 'f', -1, 64)
}
