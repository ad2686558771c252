package outwriter

import (
	"os"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"golang.org/x/term"
)

// getMaxTableColumnWidth fits the feature-name column to the terminal.
// A width set by flag or env wins over detection. The fixed table columns
// get a per-mode budget and the name column takes whatever is left,
// clamped to a sane band.
func getMaxTableColumnWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // Narrow-terminal and CI fallback
		} else {
			termWidth = detected
		}
	}

	// Rank, Statistic, Threshold and Label, plus borders and padding
	budget := 50
	if cfg.Detail {
		budget += 40 // Mean and std dev pairs for both sides
	}
	if cfg.Explain {
		budget += 25 // Top-bin breakdown column
	}

	available := termWidth - budget
	if available < 15 {
		return 15
	}
	if available > 40 {
		// Feature names run shorter than file paths, cap the column early
		return 40
	}
	return available
}
