package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mabhi256/inthunter/internal/finding"
)

type jsonReport struct {
	Tool     string           `json:"tool"`
	Count    int              `json:"count"`
	Findings []finding.Record `json:"findings"`
}

// ToolName appears in JSON and SARIF output.
const ToolName = "inthunter"

func WriteJSON(w io.Writer, records []finding.Record) error {
	if records == nil {
		records = []finding.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Tool: ToolName, Count: len(records), Findings: records})
}

func ReadJSON(r io.Reader) ([]finding.Record, error) {
	var rep jsonReport
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode JSON report: %w", err)
	}
	return rep.Findings, nil
}
