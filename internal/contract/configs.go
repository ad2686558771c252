package contract

import (
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sundog-labs/pvdrift/schema"
)

// Default values for configuration.
const (
	DefaultRollingWindow = 1
	DefaultShare         = 0.5
	DefaultResultLimit   = 25
	MaxResultLimit       = 1000
	DefaultPrecision     = 4
	MaxPrecision         = 6
	DefaultTrendWindows  = 4
)

// DefaultLagSteps is the default set of lag offsets for feature building.
var DefaultLagSteps = []int{1}

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is how timestamps are parsed and rendered on the CLI.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// PerturbationSpec describes one column perturbation for simulation runs.
// Amount carries the noise sigma, scale factor or shift offset depending
// on Kind; Fraction is the share of rows touched by a resample.
type PerturbationSpec struct {
	Kind     schema.PerturbationKind
	Amount   float64
	Fraction float64
}

// PerturbationRawInput holds one column's perturbation settings from the YAML config file.
// Use float64 pointers for optional fields.
type PerturbationRawInput struct {
	Kind     string   `mapstructure:"kind"`
	Amount   *float64 `mapstructure:"amount"`
	Fraction *float64 `mapstructure:"fraction"`
}

// ThresholdsRawInput holds drift threshold overrides from the YAML config file.
type ThresholdsRawInput struct {
	KS    *float64 `mapstructure:"ks"`
	PSI   *float64 `mapstructure:"psi"`
	Share *float64 `mapstructure:"share"`
}

// Config holds the runtime configuration for a monitoring run.
// Everything in it has already been parsed and validated.
type Config struct {
	ReferencePath   string
	CurrentPath     string
	PredictionsPath string // Optional externally produced predictions for the current dataset
	StartTime       time.Time
	EndTime         time.Time
	TargetColumn    string
	DropColumns     []string

	LagSteps      []int
	RollingWindow int

	Method         schema.DriftMethod
	DriftThreshold float64
	ShareThreshold float64

	Workers     int
	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Detail      bool
	Explain     bool
	Width       int // Terminal width override (0 = auto-detect)

	// Perturbations is a mapping of [ColumnName] = PerturbationSpec
	Perturbations   map[string]PerturbationSpec
	Seed            int64
	Seeded          bool
	SimulateCurrent bool // Derive the current dataset from the reference when none is given

	TrendWindows  int
	TrendInterval time.Duration

	BaseID   string
	TargetID string

	ArchiveBackend   schema.StoreBackend
	ArchiveDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput collects the unparsed inputs from flags, env vars and the
// config file. Viper unmarshals straight into it.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	ReferencePathStr string
	CurrentPathStr   string

	// --- Fields from rootCmd.PersistentFlags() ---
	Target           string  `mapstructure:"target"`
	Drop             string  `mapstructure:"drop"`
	Lags             string  `mapstructure:"lags"`
	Window           int     `mapstructure:"window"`
	Method           string  `mapstructure:"method"`
	Threshold        float64 `mapstructure:"threshold"`
	Share            float64 `mapstructure:"share"`
	Start            string  `mapstructure:"start"`
	End              string  `mapstructure:"end"`
	Workers          int     `mapstructure:"workers"`
	Limit            int     `mapstructure:"limit"`
	Precision        int     `mapstructure:"precision"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Detail           bool    `mapstructure:"detail"`
	Width            int     `mapstructure:"width"`
	ArchiveBackend   string  `mapstructure:"archive-backend"`
	ArchiveDBConnect string  `mapstructure:"archive-db-connect"`
	Emoji            string  `mapstructure:"emoji"`
	Color            string  `mapstructure:"color"`

	// --- Simulation fields, also on rootCmd.PersistentFlags() ---
	Simulate bool   `mapstructure:"simulate"`
	Perturb  string `mapstructure:"perturb"`
	Seed     string `mapstructure:"seed"`

	// --- Fields from monitorCmd.Flags() ---
	Explain        bool   `mapstructure:"explain"`
	PredictionsCSV string `mapstructure:"predictions-csv"`

	// --- Fields from trendCmd.Flags() ---
	Windows  int    `mapstructure:"windows"`
	Interval string `mapstructure:"interval"`

	// --- Fields from compareCmd.Flags() ---
	BaseID   string `mapstructure:"base-id"`
	TargetID string `mapstructure:"target-id"`

	// --- Threshold overrides from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`

	// --- Perturbation specs from config file ---
	Perturbations map[string]PerturbationRawInput `mapstructure:"perturbations"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.DropColumns != nil {
		clone.DropColumns = make([]string, len(c.DropColumns))
		copy(clone.DropColumns, c.DropColumns)
	}
	if c.LagSteps != nil {
		clone.LagSteps = make([]int, len(c.LagSteps))
		copy(clone.LagSteps, c.LagSteps)
	}
	if c.Perturbations != nil {
		clone.Perturbations = make(map[string]PerturbationSpec)
		maps.Copy(clone.Perturbations, c.Perturbations)
	}
	return &clone
}

// CloneWithTimeWindow copies the Config with the window bounds swapped in.
func (c *Config) CloneWithTimeWindow(start time.Time, end time.Time) *Config {
	clone := c.Clone()
	clone.StartTime = start
	clone.EndTime = end
	return clone
}

// WarmupRows returns the number of leading rows consumed by lag and
// rolling history before the first feature row can be produced.
func (c *Config) WarmupRows() int {
	maxLag := 0
	for _, k := range c.LagSteps {
		maxLag = max(maxLag, k)
	}
	return maxLag + c.RollingWindow - 1
}

// ProcessAndValidate turns the raw inputs into the final Config, stopping
// at the first invalid option.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFeatureOptions(cfg, input); err != nil {
		return err
	}
	if err := processDriftOptions(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processSimulateOptions(cfg, input); err != nil {
		return err
	}
	if err := processTrendOptions(cfg, input); err != nil {
		return err
	}
	if err := processCompareOptions(cfg, input); err != nil {
		return err
	}
	if err := resolveDataPaths(cfg, input); err != nil {
		return err
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a prefix was given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ValidateDatabaseConnectionString shape-checks the MySQL and PostgreSQL
// connection strings before anything dials out.
func ValidateDatabaseConnectionString(backend schema.StoreBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(', as in user:password@tcp(host:port)/dbname")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive-db-connect is required when using %s backend", backend)
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

// validateBackendConfig validates the archive backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ArchiveBackend = schema.StoreBackend(strings.ToLower(input.ArchiveBackend))
	if _, ok := schema.ValidStoreBackends[cfg.ArchiveBackend]; !ok {
		return fmt.Errorf("invalid archive backend '%s'. must be sqlite, mysql, postgresql, none", input.ArchiveBackend)
	}
	cfg.ArchiveDBConnect = input.ArchiveDBConnect
	return ValidateDatabaseConnectionString(cfg.ArchiveBackend, cfg.ArchiveDBConnect)
}

// validateSimpleInputs handles the scalar fields, everything except paths.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Fields that pass through unvalidated ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Target Column ---
	cfg.TargetColumn = schema.NormalizeColumnName(input.Target)
	if cfg.TargetColumn == "" {
		cfg.TargetColumn = schema.DefaultTargetColumn
	}

	// --- 2. Drop Columns ---
	cfg.DropColumns = nil
	if input.Drop != "" {
		for p := range strings.SplitSeq(input.Drop, ",") {
			trimmed := schema.NormalizeColumnName(p)
			if trimmed == "" {
				continue
			}
			if trimmed == cfg.TargetColumn {
				return fmt.Errorf("cannot drop the target column %q", cfg.TargetColumn)
			}
			cfg.DropColumns = append(cfg.DropColumns, trimmed)
		}
	}

	// --- 3. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 4. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 5. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	// --- 6. Backend Validation ---
	return validateBackendConfig(cfg, input)
}

// processFeatureOptions parses and validates the lag and rolling window settings.
func processFeatureOptions(cfg *Config, input *ConfigRawInput) error {
	lags, err := ParseLagSteps(input.Lags)
	if err != nil {
		return err
	}
	cfg.LagSteps = lags

	if input.Window <= 0 {
		return fmt.Errorf("rolling window must be greater than 0 (received %d)", input.Window)
	}
	cfg.RollingWindow = input.Window

	return nil
}

// processDriftOptions validates the drift method, its threshold and the dataset share.
// A zero threshold selects the method default; config file thresholds fill in next,
// and the --threshold flag takes precedence over both.
func processDriftOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.Method = schema.DriftMethod(strings.ToLower(input.Method))
	if _, ok := schema.ValidDriftMethods[cfg.Method]; !ok {
		return fmt.Errorf("invalid drift method '%s'. must be ks, psi", input.Method)
	}

	// Start from the per-method default.
	threshold := schema.GetDefaultThresholds()[cfg.Method]

	// Config file thresholds come next
	if input.Thresholds.KS != nil && cfg.Method == schema.KSMethod {
		threshold = *input.Thresholds.KS
	}
	if input.Thresholds.PSI != nil && cfg.Method == schema.PSIMethod {
		threshold = *input.Thresholds.PSI
	}

	// An explicit --threshold beats both
	if input.Threshold != 0 {
		threshold = input.Threshold
	}

	switch cfg.Method {
	case schema.KSMethod:
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("ks threshold must be within (0, 1] (received %.4f)", threshold)
		}
	case schema.PSIMethod:
		if threshold <= 0 {
			return fmt.Errorf("psi threshold must be greater than 0 (received %.4f)", threshold)
		}
	}
	cfg.DriftThreshold = threshold

	share := input.Share
	if input.Thresholds.Share != nil && share == DefaultShare {
		share = *input.Thresholds.Share
	}
	if share < 0 || share > 1 {
		return fmt.Errorf("drift share must be within [0, 1] (received %.4f)", share)
	}
	cfg.ShareThreshold = share

	return nil
}

// processTimeRange handles the date parsing and time range validation.
// Empty start and end leave the frames unclipped.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now()

	parseAbsolute := func(s string) (time.Time, error) {
		return time.Parse(DateTimeFormat, s)
	}

	// --- Start bound ---
	if input.Start != "" {
		t, err := parseAbsolute(input.Start)
		if err == nil {
			cfg.StartTime = t
		} else {
			t, relErr := ParseRelativeTime(input.Start, now)
			if relErr != nil {
				return fmt.Errorf("invalid start date format for '%s'. Expected absolute ISO8601 or 'N [units] ago': %v", input.Start, err)
			}
			cfg.StartTime = t
		}
	}

	// --- End bound ---
	if input.End != "" {
		t, err := parseAbsolute(input.End)
		if err == nil {
			cfg.EndTime = t
		} else {
			t, relErr := ParseRelativeTime(input.End, now)
			if relErr != nil {
				return fmt.Errorf("invalid end date format for '%s'. Expected absolute ISO8601 or 'N [units] ago': %v", input.End, err)
			}
			cfg.EndTime = t
		}
	}

	// --- Ordering check ---
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return nil
}

// processSimulateOptions converts the raw perturbation inputs into the final
// cfg.Perturbations map. Config file entries are applied first; the --perturb
// flag takes precedence per column.
func processSimulateOptions(cfg *Config, input *ConfigRawInput) error {
	specs := make(map[string]PerturbationSpec)

	for column, raw := range input.Perturbations {
		spec, err := processPerturbationRawInput(column, raw)
		if err != nil {
			return err
		}
		specs[schema.NormalizeColumnName(column)] = spec
	}

	if input.Perturb != "" {
		parsed, err := ParsePerturbationString(input.Perturb)
		if err != nil {
			return fmt.Errorf("invalid --perturb format: %w", err)
		}
		maps.Copy(specs, parsed)
	}

	if len(specs) > 0 {
		cfg.Perturbations = specs
	}

	// --- Seed Processing ---
	if input.Seed != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(input.Seed), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid --seed value '%s': %w", input.Seed, err)
		}
		cfg.Seed = seed
		cfg.Seeded = true
	}

	cfg.SimulateCurrent = input.Simulate
	if cfg.SimulateCurrent && len(specs) == 0 {
		return fmt.Errorf("--simulate requires at least one perturbation (--perturb or config file)")
	}

	return nil
}

// processPerturbationRawInput validates one config file perturbation entry.
func processPerturbationRawInput(column string, raw PerturbationRawInput) (PerturbationSpec, error) {
	spec := PerturbationSpec{Kind: schema.PerturbationKind(strings.ToLower(raw.Kind))}
	if _, ok := schema.ValidPerturbationKinds[spec.Kind]; !ok {
		return spec, fmt.Errorf("invalid perturbation kind '%s' for column %s. must be noise, scale, shift, resample", raw.Kind, column)
	}
	if raw.Amount != nil {
		spec.Amount = *raw.Amount
	}
	if raw.Fraction != nil {
		spec.Fraction = *raw.Fraction
	}
	if spec.Kind == schema.ResamplePerturbation && spec.Fraction == 0 {
		spec.Fraction = 1.0
	}
	return spec, validatePerturbationSpec(column, spec)
}

// processTrendOptions handles the trend window parameters.
func processTrendOptions(cfg *Config, input *ConfigRawInput) error {
	if input.Windows < 2 {
		return fmt.Errorf("--windows must be at least 2 (received %d)", input.Windows)
	}
	cfg.TrendWindows = input.Windows

	if input.Interval != "" {
		interval, err := ParseLookbackDuration(input.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		cfg.TrendInterval = interval
	}

	return nil
}

// processCompareOptions handles the archived report references.
func processCompareOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.BaseID = strings.TrimSpace(input.BaseID)
	cfg.TargetID = strings.TrimSpace(input.TargetID)

	if cfg.BaseID == "" && cfg.TargetID == "" {
		return nil
	}
	if cfg.BaseID == "" {
		return fmt.Errorf("must specify --base-id when running the compare command")
	}
	// An empty target compares the base against the latest archived run.
	return nil
}

// resolveDataPaths resolves the reference and current dataset paths.
func resolveDataPaths(cfg *Config, input *ConfigRawInput) error {
	resolve := func(label, raw string) (string, error) {
		if raw == "" {
			return "", nil
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return "", err
		}
		abs = filepath.Clean(abs)
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("%s dataset not found at %s", label, abs)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s dataset %s is a directory, expected a file", label, abs)
		}
		return abs, nil
	}

	refPath, err := resolve("reference", input.ReferencePathStr)
	if err != nil {
		return err
	}
	cfg.ReferencePath = refPath

	curPath, err := resolve("current", input.CurrentPathStr)
	if err != nil {
		return err
	}
	cfg.CurrentPath = curPath

	predPath, err := resolve("predictions", input.PredictionsCSV)
	if err != nil {
		return err
	}
	cfg.PredictionsPath = predPath

	return nil
}

// ParseLagSteps parses a string like "1,2,24" into a sorted set of
// positive row offsets. Duplicates are collapsed.
func ParseLagSteps(s string) ([]int, error) {
	seen := make(map[int]bool)
	var lags []int

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid lag step '%s': %w", part, err)
		}
		if k <= 0 {
			return nil, fmt.Errorf("lag steps must be positive (received %d)", k)
		}
		if !seen[k] {
			seen[k] = true
			lags = append(lags, k)
		}
	}

	if len(lags) == 0 {
		return nil, fmt.Errorf("lag steps must not be empty (received '%s')", s)
	}
	slices.Sort(lags)
	return lags, nil
}

// ParsePerturbationString parses a string like
// "irradiation:scale:1.6,dc_power:noise:120" into a map of column name to
// PerturbationSpec. For resample the value is the row fraction; for the
// other kinds it is the amount.
func ParsePerturbationString(s string) (map[string]PerturbationSpec, error) {
	specs := make(map[string]PerturbationSpec)

	if s == "" {
		return specs, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid perturbation '%s', expected 'column:kind:value'", part)
		}

		column := schema.NormalizeColumnName(fields[0])
		if column == "" {
			return nil, fmt.Errorf("invalid perturbation '%s', column name is empty", part)
		}

		kind := schema.PerturbationKind(strings.ToLower(strings.TrimSpace(fields[1])))
		if _, ok := schema.ValidPerturbationKinds[kind]; !ok {
			return nil, fmt.Errorf("invalid perturbation kind '%s', must be noise, scale, shift, or resample", fields[1])
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid perturbation value '%s' for column %s: %w", fields[2], column, err)
		}

		spec := PerturbationSpec{Kind: kind}
		if kind == schema.ResamplePerturbation {
			spec.Fraction = value
		} else {
			spec.Amount = value
		}
		if err := validatePerturbationSpec(column, spec); err != nil {
			return nil, err
		}
		specs[column] = spec
	}

	return specs, nil
}

// validatePerturbationSpec enforces the per-kind value ranges.
func validatePerturbationSpec(column string, spec PerturbationSpec) error {
	if math.IsNaN(spec.Amount) || math.IsInf(spec.Amount, 0) {
		return fmt.Errorf("perturbation amount for column %s must be finite", column)
	}
	switch spec.Kind {
	case schema.NoisePerturbation:
		if spec.Amount <= 0 {
			return fmt.Errorf("noise sigma for column %s must be greater than 0 (received %.4f)", column, spec.Amount)
		}
	case schema.ScalePerturbation:
		if spec.Amount == 0 {
			return fmt.Errorf("scale factor for column %s must be non-zero", column)
		}
	case schema.ResamplePerturbation:
		if spec.Fraction <= 0 || spec.Fraction > 1 {
			return fmt.Errorf("resample fraction for column %s must be within (0, 1] (received %.4f)", column, spec.Fraction)
		}
	}
	return nil
}
