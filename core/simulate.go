package core

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

// Simulate derives a synthetic current frame by applying the configured
// perturbations to a deep copy of the reference frame. Timestamps, column
// set and row count are untouched, so the output feeds straight back into
// feature building. The reference frame is never modified.
//
// A seeded run replays identically. An unseeded run takes its seed from the
// wall clock; the returned seed lets callers surface that choice instead of
// hiding it.
func Simulate(cfg *contract.Config, reference *schema.Frame) (*schema.Frame, int64, error) {
	if reference == nil || reference.Len() == 0 {
		return nil, 0, fmt.Errorf("%w: reference frame has no records", schema.ErrEmptyDataset)
	}
	if len(cfg.Perturbations) == 0 {
		return nil, 0, fmt.Errorf("%w: no perturbations configured", schema.ErrInvalidConfiguration)
	}
	for column := range cfg.Perturbations {
		if !reference.HasColumn(column) {
			return nil, 0, fmt.Errorf("%w: perturbation configured for unknown column %q",
				schema.ErrInvalidConfiguration, column)
		}
	}

	seed := cfg.Seed
	if !cfg.Seeded {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	frame := reference.Clone()

	// Columns perturb in frame column order so a fixed seed replays exactly.
	for _, column := range frame.Columns {
		spec, ok := cfg.Perturbations[column]
		if !ok {
			continue
		}
		perturbColumn(rng, frame, column, spec)
	}

	return frame, seed, nil
}

// perturbColumn applies one perturbation to a single column in place.
func perturbColumn(rng *rand.Rand, frame *schema.Frame, column string, spec contract.PerturbationSpec) {
	switch spec.Kind {
	case schema.NoisePerturbation:
		for i := range frame.Records {
			frame.Records[i].Channels[column] += rng.NormFloat64() * spec.Amount
		}
	case schema.ScalePerturbation:
		for i := range frame.Records {
			frame.Records[i].Channels[column] *= spec.Amount
		}
	case schema.ShiftPerturbation:
		for i := range frame.Records {
			frame.Records[i].Channels[column] += spec.Amount
		}
	case schema.ResamplePerturbation:
		resampleColumn(rng, frame, column, spec.Fraction)
	}
}

// resampleColumn redraws a fraction of the rows from the column's own
// empirical distribution. Draws come from a snapshot of the original
// values, so earlier replacements never feed later ones.
func resampleColumn(rng *rand.Rand, frame *schema.Frame, column string, fraction float64) {
	n := len(frame.Records)
	snapshot := frame.Column(column)

	count := min(int(math.Ceil(fraction*float64(n))), n)
	for _, row := range rng.Perm(n)[:count] {
		frame.Records[row].Channels[column] = snapshot[rng.Intn(n)]
	}
}
