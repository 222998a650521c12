package report

import (
	"fmt"
	"os"

	"github.com/mabhi256/inthunter/internal/finding"
)

// ReadFile loads a CSV or JSON report. SARIF output is write-only.
func ReadFile(path string) ([]finding.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	switch format := FormatFor(path); format {
	case FormatJSON:
		return ReadJSON(file)
	case FormatCSV:
		records, err := ReadCSV(file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: cannot read %s reports", ErrUnknownFormat, format)
	}
}
