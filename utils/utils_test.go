package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHorizontalBar(t *testing.T) {
	cfg := HorizontalBarConfig{BarAreaWidth: 10, LabelWidth: 6, FilledChar: "#", EmptyChar: "-"}

	assert.Equal(t, "half   │#####-----│ 5", CreateHorizontalBar(BarData{Label: "half", Value: 5, Percentage: 50}, cfg))
	assert.Equal(t, "none   │----------│ 0", CreateHorizontalBar(BarData{Label: "none"}, cfg))
	// non-zero values always show
	assert.Equal(t, "tiny   │#---------│ 1", CreateHorizontalBar(BarData{Label: "tiny", Value: 1, Percentage: 0.1}, cfg))
	assert.Equal(t, "lon... │##########│ 9", CreateHorizontalBar(BarData{Label: "longlabel", Value: 9, Percentage: 100}, cfg))
}

func TestEnumCycling(t *testing.T) {
	assert.Equal(t, 1, CycleEnum(0, 1, 3))
	assert.Equal(t, 0, CycleEnum(3, 1, 3))
	assert.Equal(t, 3, CycleEnum(0, -1, 3))
	assert.Equal(t, 2, CycleEnum(0, -6, 3))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "420µs", FormatDuration(420*time.Microsecond))
	assert.Equal(t, "250.0ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(2*time.Minute+5400*time.Millisecond))
}

func TestCompleteFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app.war", "LIB.JAR", "notes.txt", ".hidden.jar"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	complete := CompleteFilesByExtension([]string{".jar", ".war"})
	got, directive := complete(&cobra.Command{}, nil, dir+"/")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{
		filepath.Join(dir, "LIB.JAR"),
		filepath.Join(dir, "app.war"),
		filepath.Join(dir, "sub") + "/",
	}, got)
}
