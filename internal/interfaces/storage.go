package interfaces

import (
	"time"

	"github.com/bobmcallan/microcap/internal/models"
)

// LedgerSource loads the transaction ledger
type LedgerSource interface {
	Load() ([]models.Transaction, error)
}

// PerformanceLogStore persists daily snapshots as an append-only log keyed by date
type PerformanceLogStore interface {
	Append(snapshot *models.Snapshot) error

	// Load returns all logged snapshots in file order
	Load() ([]*models.Snapshot, error)
}

// ReportStore persists validation reports, one file per date
type ReportStore interface {
	// Save writes the report for the snapshot dated date and returns the path written
	Save(date time.Time, report *models.ValidationReport) (string, error)

	LoadReport(date time.Time) (*models.ValidationReport, error)
}
