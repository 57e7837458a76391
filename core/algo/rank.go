package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/fragscan/schema"
)

// RankPeaks returns a copy of peaks sorted by key in descending order.
// Ties keep their scan time order.
func RankPeaks(peaks []*schema.Peak, key func(*schema.Peak) float64) []*schema.Peak {
	ranked := slices.Clone(peaks)
	slices.SortStableFunc(ranked, func(a, b *schema.Peak) int {
		return cmp.Compare(key(b), key(a))
	})
	return ranked
}

// TopPeaks returns the limit highest peaks by key, sorted by scan time.
// If limit is greater than the number of peaks, all peaks are returned.
func TopPeaks(peaks []*schema.Peak, limit int, key func(*schema.Peak) float64) []*schema.Peak {
	ranked := RankPeaks(peaks, key)
	if limit < len(ranked) {
		ranked = ranked[:max(limit, 0)]
	}
	schema.SortByRTime(ranked)
	return ranked
}

// ByRFU ranks peaks by apex intensity.
func ByRFU(p *schema.Peak) float64 { return float64(p.RFU) }

// ByTheta ranks peaks by height over width.
func ByTheta(p *schema.Peak) float64 { return p.Theta }

// ByOmega ranks peaks by area over width.
func ByOmega(p *schema.Peak) float64 { return p.Omega }

// ByQScore ranks peaks by classification quality.
func ByQScore(p *schema.Peak) float64 { return p.QScore }
