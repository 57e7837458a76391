// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
	"golang.org/x/term"
)

// Decimal places used for fragment sizes and scores.
const (
	sizePrecision  = 2
	scorePrecision = 3
)

// headerWriter is where run headers go. Results own stdout.
var headerWriter io.Writer = os.Stderr

// LogRunHeader prints a concise, 2-line header before a batch is processed.
func LogRunHeader(cfg *contract.Config, samples int) {
	_, _ = fmt.Fprintf(headerWriter, "🧬 Ladder: %s (dye %s, %d sizes)\n", cfg.Ladder.Name, cfg.LadderDye, len(cfg.Ladder.Sizes))
	_, _ = fmt.Fprintf(headerWriter, "📂 Samples: %d (workers: %d, allele method: %s, baseline: %s/%d)\n",
		samples, cfg.Workers, cfg.Params.AlleleMethod, cfg.Params.BaselineMethod, cfg.Params.BaselineWindow)
}

// getMaxSampleWidth calculates the maximum width for sample names in table output
// based on terminal width and the fixed columns of the widest table.
func getMaxSampleWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Dye + Size + Bin + RFU + Area + QScore + Label with borders/padding
	baseWidth := 70
	if cfg.ShowAll {
		baseWidth += 24 // RTime + Type columns
	}

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 48 {
		return 48
	}
	return available
}

// fileStem returns the file name without directory and extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// dyeLetter maps a dye to the single letter color code used by peak scanner listings.
func dyeLetter(dye string) string {
	switch strings.ToUpper(strings.TrimPrefix(dye, "6-")) {
	case "FAM":
		return "B"
	case "VIC", "HEX", "JOE":
		return "G"
	case "NED", "TAMRA":
		return "Y"
	case "ROX", "PET":
		return "R"
	case "LIZ":
		return "O"
	}
	if dye == "" {
		return "?"
	}
	return strings.ToUpper(dye[:1])
}

// visiblePeaks returns the allele peaks of a channel worth listing.
// Ladder channels are only listed when showAll is set.
func visiblePeaks(ch *schema.Channel, showAll bool) []*schema.Peak {
	if showAll {
		return ch.Peaks
	}
	if ch.IsLadder {
		return nil
	}
	var out []*schema.Peak
	for _, p := range ch.Peaks {
		if p.Type == schema.CalledPeak {
			out = append(out, p)
		}
	}
	return out
}
