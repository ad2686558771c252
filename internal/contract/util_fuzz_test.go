package contract

import (
	"testing"
)

// FuzzParsePerturbationString fuzzes the perturbation flag parser with random inputs.
func FuzzParsePerturbationString(f *testing.F) {
	seeds := []string{
		"irradiation:scale:1.6",
		"dc_power:noise:120,module_temperature:shift:-5",
		"irradiation:resample:0.25",
		"bad::",
		":::",
		"",
		"col:scale:NaN",
		"col:scale:1e308,col:scale:1e308",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParsePerturbationString(s)
	})
}

// FuzzParseLagSteps fuzzes the lag list parser with random inputs.
func FuzzParseLagSteps(f *testing.F) {
	seeds := []string{"1", "1,2,24", "24, 1,2,24", "", ",", "-1", "0", "1,abc", "9999999999999999999"}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseLagSteps(s)
	})
}
