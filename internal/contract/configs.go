package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/fragscan/schema"
)

// Default values for configuration.
const (
	DefaultLadder      = "LIZ600"
	DefaultLadderDye   = "LIZ"
	MaxBaselineWindow  = 4001
	MinBaselineWindow  = 3
	DefaultVerbosity   = 0
	MaxVerbosity       = 2
	DefaultTraceMaxAge = 30 // days a cached normalized trace stays valid
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ScanParamsRaw holds optional per-role overrides from the YAML config file.
// Pointer fields distinguish "not provided" from zero.
type ScanParamsRaw struct {
	MinDist                *int     `mapstructure:"min_dist"`
	MinRFU                 *float64 `mapstructure:"min_rfu"`
	MinRTime               *int     `mapstructure:"min_rtime"`
	MaxRTime               *int     `mapstructure:"max_rtime"`
	MaxPeakNumber          *int     `mapstructure:"max_peak_number"`
	KeepArtifacts          *bool    `mapstructure:"keep_artifacts"`
	ArtifactRatio          *float64 `mapstructure:"artifact_ratio"`
	ArtifactDist           *int     `mapstructure:"artifact_dist"`
	MaxBeta                *float64 `mapstructure:"max_beta"`
	MinTheta               *float64 `mapstructure:"min_theta"`
	MinOmega               *float64 `mapstructure:"min_omega"`
	StutterRTimeThreshold  *int     `mapstructure:"stutter_rtime_threshold"`
	StutterHeightThreshold *float64 `mapstructure:"stutter_height_threshold"`
}

// ParamsRawInput holds the scanning sections of the YAML config file.
type ParamsRawInput struct {
	Ladder    ScanParamsRaw `mapstructure:"ladder"`
	NonLadder ScanParamsRaw `mapstructure:"nonladder"`
}

// Config holds the runtime configuration for a pipeline run.
// This struct is the "final, validated" config.
type Config struct {
	InputPaths []string
	Ladder     schema.Ladder
	LadderDye  string
	Anchors    []schema.AnchorPair
	Params     schema.Params
	Workers    int

	Output      schema.OutputMode
	OutputFile  string
	PeaksFormat schema.PeaksFormat
	BadFiles    string // Where to list samples that failed ladder alignment
	Width       int    // Terminal width override (0 = auto-detect)
	Verbosity   int
	UseColors   bool
	ShowAll     bool // Include noise and stutter peaks in listings

	UseCache       bool
	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPaths []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Ladder          string  `mapstructure:"ladder"`
	LadderDye       string  `mapstructure:"ladder-dye"`
	LadderFile      string  `mapstructure:"ladder-file"`
	BaselineMethod  string  `mapstructure:"baseline-method"`
	BaselineWindow  int     `mapstructure:"baseline-window"`
	AlleleMethod    string  `mapstructure:"allele-method"`
	LadderMinRFU    float64 `mapstructure:"ladder-min-rfu"`
	NonLadderMinRFU float64 `mapstructure:"nonladder-min-rfu"`
	MinRTime        int     `mapstructure:"min-rtime"`
	MaxRTime        int     `mapstructure:"max-rtime"`
	StutterRTime    int     `mapstructure:"stutter-rtime"`
	StutterHeight   float64 `mapstructure:"stutter-height"`
	KeepArtifacts   bool    `mapstructure:"keep-artifacts"`
	Workers         int     `mapstructure:"workers"`
	Output          string  `mapstructure:"output"`
	OutputFile      string  `mapstructure:"output-file"`
	PeaksFormat     string  `mapstructure:"peaks-format"`
	BadFiles        string  `mapstructure:"bad-files"`
	Width           int     `mapstructure:"width"`
	Verbose         int     `mapstructure:"verbose"`
	Color           string  `mapstructure:"color"`
	UseCache        bool    `mapstructure:"use-cache"`
	CacheBackend    string  `mapstructure:"cache-backend"`
	CacheDBConnect  string  `mapstructure:"cache-db-connect"`
	RunBackend      string  `mapstructure:"run-backend"`
	RunDBConnect    string  `mapstructure:"run-db-connect"`

	// --- Fields from scanCmd.Flags() ---
	Anchors string `mapstructure:"anchors"`
	ShowAll bool   `mapstructure:"all"`

	// --- Scanning overrides from config file ---
	Params ParamsRawInput `mapstructure:"params"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.InputPaths = slices.Clone(c.InputPaths)
	clone.Anchors = slices.Clone(c.Anchors)
	clone.Ladder.Sizes = slices.Clone(c.Ladder.Sizes)
	return &clone
}

// ParamsSummary returns the settings worth recording alongside a run.
func (c *Config) ParamsSummary() map[string]any {
	return map[string]any{
		"ladder":          c.Ladder.Name,
		"ladder_dye":      c.LadderDye,
		"baseline_method": string(c.Params.BaselineMethod),
		"baseline_window": c.Params.BaselineWindow,
		"allele_method":   string(c.Params.AlleleMethod),
		"workers":         c.Workers,
		"inputs":          len(c.InputPaths),
		"ladder_params":   c.Params.Ladder,
		"nonladder":       c.Params.NonLadder,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processLadder(cfg, input); err != nil {
		return err
	}
	if err := processParams(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.UseCache && cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output and execution fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputPaths = slices.Clone(input.InputPaths)
	cfg.OutputFile = input.OutputFile
	cfg.BadFiles = input.BadFiles
	cfg.Width = input.Width
	cfg.UseCache = input.UseCache
	cfg.ShowAll = input.ShowAll

	colorFlag := input.Color
	if colorFlag == "" {
		colorFlag = "yes"
	}
	colors, err := ParseBoolString(colorFlag)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Verbosity Validation ---
	if input.Verbose < 0 || input.Verbose > MaxVerbosity {
		return fmt.Errorf("verbose must be between 0 and %d (received %d)", MaxVerbosity, input.Verbose)
	}
	cfg.Verbosity = input.Verbose

	// --- 3. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, tsv, json", input.Output)
	}
	cfg.PeaksFormat = schema.PeaksFormat(strings.ToLower(input.PeaksFormat))
	if _, ok := schema.ValidPeaksFormats[cfg.PeaksFormat]; !ok {
		return fmt.Errorf("invalid peaks format '%s'. must be standard, peakscanner", input.PeaksFormat)
	}

	// --- 4. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processLadder resolves the size standard, its dye and any anchor pairs.
func processLadder(cfg *Config, input *ConfigRawInput) error {
	ladder, ok := schema.LookupLadder(input.Ladder)
	if !ok {
		return fmt.Errorf("%w: unknown ladder '%s'. must be one of %s",
			ErrInvalidConfiguration, input.Ladder, strings.Join(schema.LadderNames(), ", "))
	}
	if len(ladder.Sizes) < 4 {
		return fmt.Errorf("%w: ladder %s needs at least 4 sizes", ErrInvalidConfiguration, ladder.Name)
	}
	cfg.Ladder = ladder

	cfg.LadderDye = strings.TrimSpace(input.LadderDye)
	if cfg.LadderDye == "" {
		cfg.LadderDye = ladder.Dye
	}

	anchors, err := ParseAnchorPairs(input.Anchors)
	if err != nil {
		return fmt.Errorf("invalid --anchors format: %w", err)
	}
	cfg.Anchors = anchors
	return nil
}

// processParams builds the scanning parameters from defaults, config file and flags.
// Flags take precedence over the config file.
func processParams(cfg *Config, input *ConfigRawInput) error {
	params := schema.DefaultParams()

	params.BaselineMethod = schema.BaselineMethod(strings.ToLower(input.BaselineMethod))
	if _, ok := schema.ValidBaselineMethods[params.BaselineMethod]; !ok {
		return fmt.Errorf("%w: invalid baseline method '%s'. must be none, median, minimum", ErrInvalidConfiguration, input.BaselineMethod)
	}
	if input.BaselineWindow < MinBaselineWindow || input.BaselineWindow > MaxBaselineWindow {
		return fmt.Errorf("%w: baseline window must be between %d and %d (received %d)",
			ErrInvalidConfiguration, MinBaselineWindow, MaxBaselineWindow, input.BaselineWindow)
	}
	params.BaselineWindow = input.BaselineWindow

	params.AlleleMethod = schema.AlleleMethod(strings.ToLower(input.AlleleMethod))
	if _, ok := schema.ValidAlleleMethods[params.AlleleMethod]; !ok {
		return fmt.Errorf("%w: invalid allele method '%s'. must be leastsquare, cubicspline, localsouthern", ErrInvalidConfiguration, input.AlleleMethod)
	}

	applyScanParamsRaw(&params.Ladder, input.Params.Ladder)
	applyScanParamsRaw(&params.NonLadder, input.Params.NonLadder)

	for _, sp := range []*schema.ScanParams{&params.Ladder, &params.NonLadder} {
		if input.MinRTime > 0 {
			sp.MinRTime = input.MinRTime
		}
		if input.MaxRTime > 0 {
			sp.MaxRTime = input.MaxRTime
		}
		if input.StutterRTime > 0 {
			sp.StutterRTimeThreshold = input.StutterRTime
		}
		if input.StutterHeight > 0 {
			sp.StutterHeightThreshold = input.StutterHeight
		}
		if input.KeepArtifacts {
			sp.KeepArtifacts = true
		}
	}
	if input.LadderMinRFU > 0 {
		params.Ladder.MinRFU = input.LadderMinRFU
	}
	if input.NonLadderMinRFU > 0 {
		params.NonLadder.MinRFU = input.NonLadderMinRFU
	}
	params.Ladder.ExpectedPeakNumber = len(cfg.Ladder.Sizes)
	params.NonLadder.ExpectedPeakNumber = 0

	if err := ValidateScanParams("ladder", params.Ladder); err != nil {
		return err
	}
	if err := ValidateScanParams("nonladder", params.NonLadder); err != nil {
		return err
	}

	cfg.Params = params
	return nil
}

// RevalidateRequest applies per-request overrides to a cloned config.
// Empty values keep what the config already holds.
func RevalidateRequest(cfg *Config, ladderName, alleleMethod, anchors string) error {
	if ladderName != "" {
		ladder, ok := schema.LookupLadder(ladderName)
		if !ok {
			return fmt.Errorf("%w: unknown ladder '%s'. must be one of %s",
				ErrInvalidConfiguration, ladderName, strings.Join(schema.LadderNames(), ", "))
		}
		if cfg.LadderDye == "" || strings.EqualFold(cfg.LadderDye, cfg.Ladder.Dye) {
			cfg.LadderDye = ladder.Dye
		}
		cfg.Ladder = ladder
		cfg.Params.Ladder.ExpectedPeakNumber = len(ladder.Sizes)
	}
	if alleleMethod != "" {
		method := schema.AlleleMethod(strings.ToLower(alleleMethod))
		if _, ok := schema.ValidAlleleMethods[method]; !ok {
			return fmt.Errorf("%w: invalid allele method '%s'. must be leastsquare, cubicspline, localsouthern", ErrInvalidConfiguration, alleleMethod)
		}
		cfg.Params.AlleleMethod = method
	}
	if anchors != "" {
		pairs, err := ParseAnchorPairs(anchors)
		if err != nil {
			return fmt.Errorf("invalid anchors: %w", err)
		}
		cfg.Anchors = pairs
	}
	return nil
}

// applyScanParamsRaw copies every provided override onto sp.
func applyScanParamsRaw(sp *schema.ScanParams, raw ScanParamsRaw) {
	if raw.MinDist != nil {
		sp.MinDist = *raw.MinDist
	}
	if raw.MinRFU != nil {
		sp.MinRFU = *raw.MinRFU
	}
	if raw.MinRTime != nil {
		sp.MinRTime = *raw.MinRTime
	}
	if raw.MaxRTime != nil {
		sp.MaxRTime = *raw.MaxRTime
	}
	if raw.MaxPeakNumber != nil {
		sp.MaxPeakNumber = *raw.MaxPeakNumber
	}
	if raw.KeepArtifacts != nil {
		sp.KeepArtifacts = *raw.KeepArtifacts
	}
	if raw.ArtifactRatio != nil {
		sp.ArtifactRatio = *raw.ArtifactRatio
	}
	if raw.ArtifactDist != nil {
		sp.ArtifactDist = *raw.ArtifactDist
	}
	if raw.MaxBeta != nil {
		sp.MaxBeta = *raw.MaxBeta
	}
	if raw.MinTheta != nil {
		sp.MinTheta = *raw.MinTheta
	}
	if raw.MinOmega != nil {
		sp.MinOmega = *raw.MinOmega
	}
	if raw.StutterRTimeThreshold != nil {
		sp.StutterRTimeThreshold = *raw.StutterRTimeThreshold
	}
	if raw.StutterHeightThreshold != nil {
		sp.StutterHeightThreshold = *raw.StutterHeightThreshold
	}
}

// ValidateScanParams checks the numeric ranges of one parameter set.
func ValidateScanParams(role string, sp schema.ScanParams) error {
	switch {
	case sp.MinDist < 1:
		return fmt.Errorf("%w: %s min_dist must be at least 1 (received %d)", ErrInvalidConfiguration, role, sp.MinDist)
	case sp.MinRFU < 0:
		return fmt.Errorf("%w: %s min_rfu cannot be negative", ErrInvalidConfiguration, role)
	case sp.MinRTime < 0 || sp.MaxRTime <= sp.MinRTime:
		return fmt.Errorf("%w: %s rtime range [%d, %d] is empty", ErrInvalidConfiguration, role, sp.MinRTime, sp.MaxRTime)
	case sp.ArtifactRatio < 0 || sp.ArtifactRatio > 1:
		return fmt.Errorf("%w: %s artifact_ratio must be between 0 and 1 (received %.2f)", ErrInvalidConfiguration, role, sp.ArtifactRatio)
	case sp.ArtifactDist < 0:
		return fmt.Errorf("%w: %s artifact_dist cannot be negative", ErrInvalidConfiguration, role)
	case sp.StutterHeightThreshold < 0 || sp.StutterHeightThreshold > 1:
		return fmt.Errorf("%w: %s stutter_height_threshold must be between 0 and 1", ErrInvalidConfiguration, role)
	case sp.StutterRTimeThreshold < 0:
		return fmt.Errorf("%w: %s stutter_rtime_threshold cannot be negative", ErrInvalidConfiguration, role)
	}
	return nil
}

// ParseAnchorPairs parses a string like "1520:100,2410:200" into anchor pairs
// sorted by scan time.
func ParseAnchorPairs(s string) ([]schema.AnchorPair, error) {
	var pairs []schema.AnchorPair
	if strings.TrimSpace(s) == "" {
		return pairs, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid anchor '%s', expected 'rtime:size'", part)
		}

		rtime, err := strconv.Atoi(strings.TrimSpace(keyValue[0]))
		if err != nil || rtime < 0 {
			return nil, fmt.Errorf("invalid anchor rtime '%s'", keyValue[0])
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(keyValue[1]), 64)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid anchor size '%s'", keyValue[1])
		}
		pairs = append(pairs, schema.AnchorPair{RTime: rtime, Size: size})
	}

	slices.SortFunc(pairs, func(a, b schema.AnchorPair) int { return a.RTime - b.RTime })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].RTime == pairs[i-1].RTime || pairs[i].Size <= pairs[i-1].Size {
			return nil, fmt.Errorf("anchors must increase in both rtime and size")
		}
	}
	return pairs, nil
}
