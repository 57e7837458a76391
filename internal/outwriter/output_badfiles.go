package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/fragscan/schema"
)

// WriteBadFiles lists the samples whose ladder could not be aligned, one per line.
func WriteBadFiles(path string, batch *schema.BatchResult) error {
	return writeWithFile(path, func(w io.Writer) error {
		for _, s := range batch.Mismatched() {
			if _, err := fmt.Fprintf(w, "LadderMismatch: %s\n", s.Path); err != nil {
				return err
			}
		}
		return nil
	}, "Wrote bad files")
}
