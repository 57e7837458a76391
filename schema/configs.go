package schema

// Default normalizer settings.
const (
	DefaultBaselineWindow = 399
	DefaultSmoothOrder    = 5
	DefaultTophatFactor   = 0.01
)

// ScanParams holds the peak scanning and filtering thresholds for one channel role.
type ScanParams struct {
	MinDist                int     `json:"min_dist" yaml:"min_dist"`
	MinRFU                 float64 `json:"min_rfu" yaml:"min_rfu"`
	MinRTime               int     `json:"min_rtime" yaml:"min_rtime"`
	MaxRTime               int     `json:"max_rtime" yaml:"max_rtime"`
	MaxPeakNumber          int     `json:"max_peak_number" yaml:"max_peak_number"`
	ExpectedPeakNumber     int     `json:"expected_peak_number" yaml:"expected_peak_number"`
	KeepArtifacts          bool    `json:"keep_artifacts" yaml:"keep_artifacts"`
	ArtifactRatio          float64 `json:"artifact_ratio" yaml:"artifact_ratio"`
	ArtifactDist           int     `json:"artifact_dist" yaml:"artifact_dist"`
	MaxBeta                float64 `json:"max_beta" yaml:"max_beta"`
	MinTheta               float64 `json:"min_theta" yaml:"min_theta"`
	MinOmega               float64 `json:"min_omega" yaml:"min_omega"`
	StutterRTimeThreshold  int     `json:"stutter_rtime_threshold" yaml:"stutter_rtime_threshold"`
	StutterHeightThreshold float64 `json:"stutter_height_threshold" yaml:"stutter_height_threshold"`
}

// Params is the full parameter set of a pipeline run.
type Params struct {
	Ladder         ScanParams     `json:"ladder" yaml:"ladder"`
	NonLadder      ScanParams     `json:"nonladder" yaml:"nonladder"`
	BaselineMethod BaselineMethod `json:"baseline_method" yaml:"baseline_method"`
	BaselineWindow int            `json:"baseline_window" yaml:"baseline_window"`
	AlleleMethod   AlleleMethod   `json:"allele_method" yaml:"allele_method"`
}

// DefaultLadderScanParams returns the thresholds used on ladder channels.
// Ladder filtering is aggressive because a wrong rung breaks every size call.
func DefaultLadderScanParams() ScanParams {
	return ScanParams{
		MinDist:                10,
		MinRFU:                 10,
		MinRTime:               1,
		MaxRTime:               30000,
		ArtifactRatio:          0.9,
		ArtifactDist:           5,
		MaxBeta:                25,
		StutterRTimeThreshold:  5,
		StutterHeightThreshold: 0.15,
	}
}

// DefaultNonLadderScanParams returns the thresholds used on allele channels.
func DefaultNonLadderScanParams() ScanParams {
	return ScanParams{
		MinDist:                10,
		MinRFU:                 25,
		MinRTime:               1,
		MaxRTime:               30000,
		MaxPeakNumber:          30,
		ArtifactRatio:          0.5,
		ArtifactDist:           5,
		MaxBeta:                25,
		StutterRTimeThreshold:  5,
		StutterHeightThreshold: 0.15,
	}
}

// DefaultParams returns the parameter set used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Ladder:         DefaultLadderScanParams(),
		NonLadder:      DefaultNonLadderScanParams(),
		BaselineMethod: MedianBaseline,
		BaselineWindow: DefaultBaselineWindow,
		AlleleMethod:   LeastSquareMethod,
	}
}
