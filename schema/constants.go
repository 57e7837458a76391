package schema

// Custom string types for type safety.
type (
	// PeakType is the classification tag of a peak.
	PeakType string

	// BaselineMethod selects how the baseline of a raw trace is estimated.
	BaselineMethod string

	// AlleleMethod selects the calibration used to turn scan times into sizes.
	AlleleMethod string

	// OutputMode represents the format of the output.
	OutputMode string

	// PeaksFormat represents the layout of a peak listing.
	PeaksFormat string

	// SampleStatus represents how far a sample got through the pipeline.
	SampleStatus string

	// DiagnosticLevel represents the severity of a pipeline diagnostic.
	DiagnosticLevel string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string
)

// All peak types.
const (
	ScannedPeak    PeakType = "scanned" // default
	NoisePeak      PeakType = "noise"
	BroadPeak      PeakType = "broad"
	StutterPeak    PeakType = "stutter"
	CalledPeak     PeakType = "called"
	UnassignedPeak PeakType = "unassigned"
)

// All baseline methods supported.
const (
	NoneBaseline    BaselineMethod = "none"
	MedianBaseline  BaselineMethod = "median" // default
	MinimumBaseline BaselineMethod = "minimum"
)

// All allele methods supported.
const (
	LeastSquareMethod   AlleleMethod = "leastsquare" // default
	CubicSplineMethod   AlleleMethod = "cubicspline"
	LocalSouthernMethod AlleleMethod = "localsouthern"
	NotAvailableMethod  AlleleMethod = "notavailable"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	CSVOut  OutputMode = "csv"
	TSVOut  OutputMode = "tsv"
	JSONOut OutputMode = "json"
)

// All peak listing formats supported.
const (
	StandardFormat    PeaksFormat = "standard" // default
	PeakScannerFormat PeaksFormat = "peakscanner"
)

// All sample statuses.
const (
	StatusOK             SampleStatus = "ok"
	StatusLadderMismatch SampleStatus = "ladder-mismatch"
	StatusFailed         SampleStatus = "failed"
)

// All diagnostic levels.
const (
	DebugLevel DiagnosticLevel = "debug"
	InfoLevel  DiagnosticLevel = "info"
	WarnLevel  DiagnosticLevel = "warn"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidBaselineMethods lists all valid baseline methods.
var ValidBaselineMethods = map[BaselineMethod]struct{}{
	NoneBaseline:    {},
	MedianBaseline:  {},
	MinimumBaseline: {},
}

// ValidAlleleMethods lists all allele methods that can be configured.
var ValidAlleleMethods = map[AlleleMethod]struct{}{
	LeastSquareMethod:   {},
	CubicSplineMethod:   {},
	LocalSouthernMethod: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	TSVOut:  {},
	JSONOut: {},
}

// ValidPeaksFormats lists all valid peak listing formats.
var ValidPeaksFormats = map[PeaksFormat]struct{}{
	StandardFormat:    {},
	PeakScannerFormat: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// diagnosticRank orders levels for verbosity filtering.
var diagnosticRank = map[DiagnosticLevel]int{
	WarnLevel:  0,
	InfoLevel:  1,
	DebugLevel: 2,
}

// Rank returns the verbosity needed to see a diagnostic of this level.
func (l DiagnosticLevel) Rank() int {
	return diagnosticRank[l]
}
