package contract

import (
	"testing"
)

// FuzzParseAnchorPairs fuzzes the anchor parser with arbitrary flag values.
func FuzzParseAnchorPairs(f *testing.F) {
	seeds := []string{
		"1520:100",
		"1520:100,2410:200",
		" 10 : 5 , 20 : 6 ",
		"abc:def",
		"1:2:3",
		"",
		",,,",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		pairs, err := ParseAnchorPairs(s)
		if err != nil {
			return
		}
		for i := 1; i < len(pairs); i++ {
			if pairs[i].RTime <= pairs[i-1].RTime || pairs[i].Size <= pairs[i-1].Size {
				t.Fatalf("anchors not strictly increasing: %v", pairs)
			}
		}
	})
}

// FuzzTruncatePath checks that truncation never exceeds the requested width.
func FuzzTruncatePath(f *testing.F) {
	f.Add("/data/runs/plate01/A01.fsa", 10)
	f.Add("short", 20)
	f.Add("", 4)

	f.Fuzz(func(t *testing.T, path string, width int) {
		got := TruncatePath(path, width)
		if width > 3 && len([]rune(got)) > width {
			t.Fatalf("TruncatePath(%q, %d) = %q is too wide", path, width, got)
		}
	})
}
