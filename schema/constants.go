package schema

// Custom string types for pvdrift enums.
type (
	// OutputMode is the rendering format for results.
	OutputMode string

	// DriftMethod is the two-sample statistic used for per-column drift.
	DriftMethod string

	// PerturbationKind is the simulator transform applied to a column.
	PerturbationKind string

	// StoreBackend is the database engine backing the report archive.
	StoreBackend string

	// ColumnStatus classifies a column when two reports are compared.
	ColumnStatus string
)

// Output modes.
const (
	TextOut    OutputMode = "text"
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// Drift methods.
const (
	// KSMethod is the two-sample Kolmogorov-Smirnov statistic. The verdict
	// compares the D statistic against the threshold.
	KSMethod DriftMethod = "ks"

	// PSIMethod is the population stability index over decile bins derived
	// from the reference column.
	PSIMethod DriftMethod = "psi"
)

// Perturbation kinds for the drift simulator.
const (
	NoisePerturbation    PerturbationKind = "noise"    // Additive Gaussian noise, param = sigma
	ScalePerturbation    PerturbationKind = "scale"    // Multiplicative factor, param = factor
	ShiftPerturbation    PerturbationKind = "shift"    // Additive constant, param = offset
	ResamplePerturbation PerturbationKind = "resample" // Re-draw a fraction of values from the column, param = fraction
)

// Store backends for the report archive.
const (
	SQLiteBackend     StoreBackend = "sqlite"
	MySQLBackend      StoreBackend = "mysql"
	PostgreSQLBackend StoreBackend = "postgresql"
	NoneBackend       StoreBackend = "none"
)

// Column statuses for report-to-report comparison.
const (
	NewColumnStatus     ColumnStatus = "new"      // Present only in the target report
	ActiveColumnStatus  ColumnStatus = "active"   // Present in both reports
	RemovedColumnStatus ColumnStatus = "removed"  // Present only in the base report
)

// Well-known feature column names.
const (
	HourSinColumn = "hour_sin"
	HourCosColumn = "hour_cos"
)

// DefaultTargetColumn is the production channel predicted and scored by default.
const DefaultTargetColumn = "dc_power"

// ValidOutputModes is the set of accepted output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDriftMethods is the set of accepted drift methods.
var ValidDriftMethods = map[DriftMethod]struct{}{
	KSMethod:  {},
	PSIMethod: {},
}

// ValidPerturbationKinds is the set of accepted simulator perturbations.
var ValidPerturbationKinds = map[PerturbationKind]struct{}{
	NoisePerturbation:    {},
	ScalePerturbation:    {},
	ShiftPerturbation:    {},
	ResamplePerturbation: {},
}

// ValidStoreBackends is the set of accepted archive backends.
var ValidStoreBackends = map[StoreBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// GetDefaultThresholds returns the per-method drift thresholds applied when
// the configuration does not override them. KS thresholds bound the D
// statistic in [0,1]; PSI thresholds bound the index, where 0.2 is the
// conventional "significant shift" mark.
func GetDefaultThresholds() map[DriftMethod]float64 {
	return map[DriftMethod]float64{
		KSMethod:  0.10,
		PSIMethod: 0.20,
	}
}
