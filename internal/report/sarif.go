package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/mabhi256/inthunter/internal/finding"
)

const informationURI = "https://github.com/mabhi256/inthunter"

var ruleDescriptions = map[finding.Kind]string{
	finding.KindHibernateIntField: "Entity field declared as int or Integer may overflow a 64-bit key column",
	finding.KindJdbcTemplateInt:   "JdbcTemplate update receives a boxed int argument",
	finding.KindPreparedStatement: "PreparedStatement setter used with INSERT/UPDATE/DELETE SQL",
}

// classURI maps a dotted class name to the path of its class file.
func classURI(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".class"
}

func sarifMessage(r finding.Record) string {
	switch r.Type {
	case finding.KindHibernateIntField:
		msg := fmt.Sprintf("Field %s.%s is %s", r.ClassName, r.MethodName, r.JavaType)
		if r.Table != "" || r.Column != "" {
			msg += fmt.Sprintf(" (table %q, column %q)", r.Table, r.Column)
		}
		return msg
	default:
		msg := fmt.Sprintf("%s in %s.%s", ruleDescriptions[r.Type], r.ClassName, r.MethodName)
		if r.SQLSnippet != "" {
			msg += ": " + r.SQLSnippet
		}
		return msg
	}
}

// WriteSARIF emits a SARIF 2.1.0 log with one rule per finding kind.
func WriteSARIF(w io.Writer, records []finding.Record) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(ToolName, informationURI)
	for _, r := range records {
		rule := run.AddRule(string(r.Type)).
			WithDescription(ruleDescriptions[r.Type]).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "warning"})

		region := sarif.NewRegion()
		if r.BytecodeLine > 0 {
			region = region.WithStartLine(r.BytecodeLine)
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(classURI(r.ClassName))).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(sarifMessage(r))).
			WithLevel("warning").
			WithLocations([]*sarif.Location{location})

		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("method", r.MethodName)
		for key, value := range map[string]string{
			"sqlSnippet": r.SQLSnippet,
			"table":      r.Table,
			"column":     r.Column,
			"javaType":   r.JavaType,
		} {
			if value != "" {
				result.Add(key, value)
			}
		}
		run.AddResult(result)
	}
	rep.AddRun(run)

	return rep.PrettyWrite(w)
}
