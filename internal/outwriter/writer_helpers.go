package outwriter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sundog-labs/pvdrift/internal/contract"
)

// writeWithFile routes output to --output-file or stdout, closes what it
// opened and confirms file writes on stderr.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Stdout is shared, never close it
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeParquetFile handles the parquet variant of writeWithFile. Parquet
// writers need a seekable file path, so stdout is not an option here.
func writeParquetFile(outputFile string, write func(string) error, successMsg string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for parquet output")
	}

	if err := write(outputFile); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	return nil
}

// writeJSON encodes any payload with the indentation all formats share.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// createFormatters builds the float and integer formatters the render
// paths share, honoring the configured precision.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}
