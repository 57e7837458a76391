// Package schema has models, parameters and ladder definitions for all parts of fragscan.
package schema

import "sort"

// Peak is a detected local maximum in a channel's normalized signal.
// Size and Bin are meaningful only when Type is CalledPeak.
type Peak struct {
	RTime     int          `json:"rtime"`     // Scan-time index of the apex
	RFU       int          `json:"rfu"`       // Intensity at the apex
	Area      float64      `json:"area"`      // Integrated area between BRTime and ERTime
	BRTime    int          `json:"brtime"`    // Begin scan time of the peak span
	ERTime    int          `json:"ertime"`    // End scan time of the peak span
	WRTime    int          `json:"wrtime"`    // ERTime - BRTime
	SRTime    float64      `json:"srtime"`    // log2(right area / left area)
	Beta      float64      `json:"beta"`      // Area / RFU
	Theta     float64      `json:"theta"`     // RFU / WRTime
	Omega     float64      `json:"omega"`     // Area / WRTime
	Size      float64      `json:"size"`      // Calibrated fragment size, -1 until called
	Bin       int          `json:"bin"`       // Rounded size, -1 until called
	Deviation float64      `json:"deviation"` // Calibration uncertainty at RTime
	QScore    float64      `json:"qscore"`    // Classification quality in [0, 1]
	QCall     float64      `json:"qcall"`     // Calibration confidence
	Type      PeakType     `json:"type"`
	Method    AlleleMethod `json:"method"`
	Note      string       `json:"note,omitempty"`
}

// NewPeak returns a freshly scanned peak with no size assigned.
func NewPeak(rtime, rfu int) *Peak {
	return &Peak{
		RTime:  rtime,
		RFU:    rfu,
		Size:   -1,
		Bin:    -1,
		Type:   ScannedPeak,
		Method: NotAvailableMethod,
	}
}

// Height is the apex intensity as a float.
func (p *Peak) Height() float64 {
	return float64(p.RFU)
}

// BetaTheta is the shape descriptor used to separate noise from real peaks.
func (p *Peak) BetaTheta() float64 {
	return p.Beta * p.Theta
}

// ResetCall clears any size assignment and returns the peak to the scanned state.
func (p *Peak) ResetCall() {
	p.Type = ScannedPeak
	p.Size = -1
	p.Bin = -1
	p.Deviation = 0
	p.QCall = 0
	p.Method = NotAvailableMethod
}

// SortByRTime sorts peaks in place by ascending scan time.
func SortByRTime(peaks []*Peak) {
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].RTime < peaks[j].RTime
	})
}

// Channel is one detector trace with its role and the peaks it owns.
type Channel struct {
	Dye        string    `json:"dye"`
	Wavelength int       `json:"wavelength"`
	IsLadder   bool      `json:"is_ladder"`
	Marker     string    `json:"marker,omitempty"`
	Raw        []float64 `json:"-"`
	Signal     []float64 `json:"-"`
	Baseline   []float64 `json:"-"`
	Peaks      []*Peak   `json:"peaks"`
}

// NormalizedTrace is the smoothed signal and the baseline estimated from a raw trace.
type NormalizedTrace struct {
	Signal   []float64
	Baseline []float64
}

// Sample is a single instrument run holding one channel per dye.
type Sample struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Channels []*Channel `json:"channels"`
}

// LadderChannel returns the channel flagged as ladder, or nil.
func (s *Sample) LadderChannel() *Channel {
	for _, ch := range s.Channels {
		if ch.IsLadder {
			return ch
		}
	}
	return nil
}

// LadderPoint is an aligned ladder peak used as a calibration control point.
type LadderPoint struct {
	RTime     int     `json:"rtime"`
	Size      float64 `json:"size"`
	QScore    float64 `json:"qscore"`
	Deviation float64 `json:"deviation"`
}

// SortLadderPoints sorts points in place by ascending scan time.
func SortLadderPoints(points []LadderPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].RTime < points[j].RTime
	})
}

// AnchorPair pins a ladder peak scan time to a known size.
type AnchorPair struct {
	RTime int     `json:"rtime"`
	Size  float64 `json:"size"`
}

// TraceFile is the JSON form of a sample's raw channels.
type TraceFile struct {
	Name     string         `json:"name"`
	Channels []TraceChannel `json:"channels"`
}

// TraceChannel is one raw channel of a TraceFile.
type TraceChannel struct {
	Dye        string    `json:"dye"`
	Wavelength int       `json:"wavelength,omitempty"`
	Marker     string    `json:"marker,omitempty"`
	Ladder     bool      `json:"ladder,omitempty"`
	Data       []float64 `json:"data"`
}
