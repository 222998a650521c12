package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mabhi256/inthunter/internal/finding"
)

// Header is the first row of every CSV report.
var Header = []string{"type", "className", "methodName", "bytecodeLine", "sqlSnippet", "table", "column", "javaType"}

func WriteCSV(w io.Writer, records []finding.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			string(r.Type),
			r.ClassName,
			r.MethodName,
			strconv.Itoa(r.BytecodeLine),
			r.SQLSnippet,
			r.Table,
			r.Column,
			r.JavaType,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a report written by WriteCSV. Columns are located by
// header name so reordered files still load.
func ReadCSV(r io.Reader) ([]finding.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range Header {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var records []finding.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+2, err)
		}
		get := func(name string) string {
			if i := col[name]; i < len(row) {
				return row[i]
			}
			return ""
		}

		line, err := strconv.Atoi(get("bytecodeLine"))
		if err != nil {
			line = -1
		}
		records = append(records, finding.Record{
			Type:         finding.Kind(get("type")),
			ClassName:    get("className"),
			MethodName:   get("methodName"),
			BytecodeLine: line,
			SQLSnippet:   get("sqlSnippet"),
			Table:        get("table"),
			Column:       get("column"),
			JavaType:     get("javaType"),
		})
	}
}
