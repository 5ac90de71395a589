package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/models"
)

func TestFileStore_SaveReport(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(nil, dir)
	require.NoError(t, err)

	date := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)
	report := &models.ValidationReport{
		RunID:           "run-1",
		Timestamp:       time.Date(2025, 8, 7, 9, 15, 0, 0, time.UTC),
		Passed:          false,
		DurationSeconds: 1.5,
		Findings: []models.Finding{
			{Level: models.LevelSuccess, Check: models.CheckMath, Message: "portfolio math check passed"},
			{Level: models.LevelError, Check: models.CheckConstraints, Message: "ABEO position 77.6% exceeds limit 35.0%"},
		},
	}

	// Named for the snapshot date, not when validation ran
	path, err := fs.Save(date, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "validation_report_20250805.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `"validation_results": [`)
	assert.Contains(t, body, `"level": "ERROR"`)
	assert.Contains(t, body, `"duration_seconds": 1.5`)
	assert.True(t, strings.HasSuffix(body, "}\n"))

	loaded, err := fs.LoadReport(date)
	require.NoError(t, err)
	assert.Equal(t, report.Findings, loaded.Findings)
	assert.False(t, loaded.Passed)

	// Same day replaces the report
	report.Passed = true
	_, err = fs.Save(date, report)
	require.NoError(t, err)
	loaded, err = fs.LoadReport(date)
	require.NoError(t, err)
	assert.True(t, loaded.Passed)
}

func TestFileStore_SaveChart(t *testing.T) {
	fs, err := NewFileStore(nil, t.TempDir())
	require.NoError(t, err)

	path, err := fs.SaveChart("equity", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join("charts", "equity.png")))
}

func TestFileStore_SavePrompt(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(nil, dir)
	require.NoError(t, err)

	path, err := fs.SavePrompt("daily_prompt_data.txt", "# digest\n")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# digest\n", string(data))
	assert.Equal(t, filepath.Join(dir, "prompts", "daily_prompt_data.txt"), path)
}
