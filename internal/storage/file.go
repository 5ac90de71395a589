// Package storage provides file persistence for the ledger, the daily
// performance log, validation reports and charts.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// FileStore writes validation reports, charts and prompt data under a base directory
type FileStore struct {
	basePath string
	logger   *common.Logger
}

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"reports", "charts", "prompts"}

// NewFileStore creates a new FileStore and ensures all subdirectories exist.
func NewFileStore(logger *common.Logger, basePath string) (*FileStore, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	fs := &FileStore{basePath: basePath, logger: logger}

	for _, sub := range subdirectories {
		dir := filepath.Join(fs.basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", basePath).Msg("FileStore opened")
	return fs, nil
}

// ReportFileName returns the report file name for a snapshot date, one per day
func ReportFileName(date time.Time) string {
	return fmt.Sprintf("validation_report_%s.json", date.Format("20060102"))
}

// Save writes the report for the snapshot dated date as indented JSON. A later
// run for the same snapshot date replaces the file.
func (fs *FileStore) Save(date time.Time, report *models.ValidationReport) (string, error) {
	dir := filepath.Join(fs.basePath, "reports")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	target := filepath.Join(dir, ReportFileName(date))
	if err := writeAtomic(dir, target, data); err != nil {
		return "", err
	}

	fs.logger.Info().Str("path", target).Bool("passed", report.Passed).Msg("Validation report saved")
	return target, nil
}

// LoadReport reads the report saved for the snapshot dated date
func (fs *FileStore) LoadReport(date time.Time) (*models.ValidationReport, error) {
	path := filepath.Join(fs.basePath, "reports", ReportFileName(date))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var report models.ValidationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &report, nil
}

// SaveChart writes PNG bytes to charts/<name>.png
func (fs *FileStore) SaveChart(name string, png []byte) (string, error) {
	dir := filepath.Join(fs.basePath, "charts")
	target := filepath.Join(dir, name+".png")
	if err := writeAtomic(dir, target, png); err != nil {
		return "", err
	}
	fs.logger.Info().Str("path", target).Int("bytes", len(png)).Msg("Chart saved")
	return target, nil
}

// SavePrompt writes prompt text to prompts/<name>
func (fs *FileStore) SavePrompt(name, text string) (string, error) {
	dir := filepath.Join(fs.basePath, "prompts")
	target := filepath.Join(dir, name)
	if err := writeAtomic(dir, target, []byte(text)); err != nil {
		return "", err
	}
	fs.logger.Info().Str("path", target).Msg("Prompt data saved")
	return target, nil
}

// writeAtomic writes to a temp file in dir, then renames it over target
func writeAtomic(dir, target string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Ensure FileStore implements ReportStore
var _ interfaces.ReportStore = (*FileStore)(nil)
