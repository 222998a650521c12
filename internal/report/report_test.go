package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/inthunter/internal/finding"
)

func sampleFindings() []finding.Finding {
	return []finding.Finding{
		finding.StatementSetter{Class: "client.Repo", Method: "save", Line: 41, SQL: "INSERT INTO t VALUES (?, ?)", Setter: "setInt", Slot: 3},
		finding.EntityIntField{Class: "com.example.User", Field: "id", Table: "users", Column: "user_id", JavaType: "int"},
		finding.TemplateIntUpdate{Class: "client.UserDao", Method: "insertUserxx", Line: 31, SQL: "INSERT INTO users(name,email,age) VALUES(?,?,?)", Template: "org.springframework.jdbc.core.JdbcTemplate"},
	}
}

func TestAggregator_ConcurrentAcceptAndSortedRecords(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for _, f := range sampleFindings() {
		wg.Add(1)
		go func(f finding.Finding) {
			defer wg.Done()
			agg.Accept(f)
		}(f)
	}
	wg.Wait()

	require.Equal(t, 3, agg.Len())
	var classes []string
	for _, r := range agg.Records() {
		classes = append(classes, r.ClassName)
	}
	assert.Equal(t, []string{"client.Repo", "client.UserDao", "com.example.User"}, classes)

	agg.Reset()
	assert.Zero(t, agg.Len())
}

func TestWriteCSV(t *testing.T) {
	agg := NewAggregator()
	for _, f := range sampleFindings() {
		agg.Accept(f)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, agg.Records()))

	want := strings.Join([]string{
		"type,className,methodName,bytecodeLine,sqlSnippet,table,column,javaType",
		`PreparedStatement,client.Repo,save,41,"INSERT INTO t VALUES (?, ?)",,,`,
		`JdbcTemplateInt,client.UserDao,insertUserxx,31,"INSERT INTO users(name,email,age) VALUES(?,?,?)",,,`,
		"HibernateIntField,com.example.User,id,-1,,users,user_id,int",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Header, ",")+"\n", buf.String())
}

func TestFileRoundTrip(t *testing.T) {
	records := finding.Records(sampleFindings())
	finding.SortRecords(records)

	for _, name := range []string{"out/report.csv", "report.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, FormatFor(path), records))

			got, err := ReadFile(path)
			require.NoError(t, err)
			if diff := cmp.Diff(records, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteFile_FailureKeepsPreviousReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan-report.csv")
	records := finding.Records(sampleFindings())
	require.NoError(t, WriteFile(path, FormatCSV, records))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = WriteFile(path, Format("xml"), records)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
	assert.Equal(t, "scan-report.csv", entries[0].Name())
}

func TestWriteFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "r.json")
	require.NoError(t, WriteFile(path, FormatJSON, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("type,className\nx,y\n"))
	assert.ErrorContains(t, err, `missing column "methodName"`)
}

func TestWriteSARIF(t *testing.T) {
	records := finding.Records(sampleFindings())
	finding.SortRecords(records)

	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, records))

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))

	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 3)
	require.Len(t, run.Results, 3)
	assert.Equal(t, "PreparedStatement", run.Results[0].RuleID)
	assert.Equal(t, "client/Repo.class", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"scan-report.csv": FormatCSV,
		"x/findings.JSON": FormatJSON,
		"out.sarif":       FormatSARIF,
		"report.txt":      FormatCSV,
		"report":          FormatCSV,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFor(path), path)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(nil, 80), "No int-typed identifiers found")

	out := Summary(finding.Records(sampleFindings()), 100)
	assert.Contains(t, out, "3 findings in 3 classes")
	for _, kind := range kindOrder {
		assert.Contains(t, out, string(kind))
	}
}
