package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// ErrNoSnapshots is returned when the performance log holds no matching snapshot
var ErrNoSnapshots = errors.New("no snapshots in performance log")

const dateLayout = "2006-01-02"

// baseColumns precede the index name columns in the performance log
var baseColumns = []string{
	"Date", "Ticker", "Shares", "Cost Basis", "Stop Loss", "Current Price",
	"Total Value", "PnL", "Action", "Cash Balance", "Total Equity",
}

// PerformanceLog is the append-only daily performance CSV
type PerformanceLog struct {
	path       string
	indexNames []string
	logger     *common.Logger
}

// NewPerformanceLog creates a log at path. indexNames are the index columns written after the base columns.
func NewPerformanceLog(path string, indexNames []string, logger *common.Logger) *PerformanceLog {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &PerformanceLog{path: path, indexNames: indexNames, logger: logger}
}

// Path returns the log location
func (p *PerformanceLog) Path() string { return p.path }

// Columns returns the header this log writes
func (p *PerformanceLog) Columns() []string {
	return append(append([]string(nil), baseColumns...), p.indexNames...)
}

// Header returns the header of the existing file, or nil when the file does not exist
func (p *PerformanceLog) Header() ([]string, error) {
	f, err := os.Open(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", p.path, err)
	}
	return header, nil
}

// Append writes the snapshot's rows then its TOTAL row. The header is written
// only when the file is new or empty.
func (p *PerformanceLog) Append(snap *models.Snapshot) error {
	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(p.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, record := range p.records(snap) {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", p.path, err)
	}

	p.logger.Info().Str("path", p.path).Str("date", snap.Date.Format(dateLayout)).Int("rows", len(snap.Rows)+1).Msg("Performance log appended")
	return nil
}

func (p *PerformanceLog) records(snap *models.Snapshot) [][]string {
	width := len(baseColumns) + len(p.indexNames)
	date := snap.Date.Format(dateLayout)

	var out [][]string
	for _, r := range snap.Rows {
		rec := make([]string, width)
		rec[0] = date
		rec[1] = r.Ticker
		rec[2] = quantity(r.Shares)
		rec[3] = money(r.CostBasis)
		rec[4] = optMoney(r.StopLoss)
		rec[5] = money(r.CurrentPrice)
		rec[6] = money(r.TotalValue)
		rec[7] = money(r.PnL)
		rec[8] = r.Action
		out = append(out, rec)
	}

	if t := snap.Total; t != nil {
		rec := make([]string, width)
		rec[0] = date
		rec[1] = models.TotalTicker
		rec[6] = money(t.TotalValue)
		rec[7] = money(t.PnL)
		rec[9] = money(t.CashBalance)
		rec[10] = money(t.TotalEquity)
		for i, name := range p.indexNames {
			for _, idx := range t.Indices {
				if idx.Name == name {
					rec[len(baseColumns)+i] = optMoney(idx.Price)
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// Load reads every snapshot in file order. Consecutive rows with the same
// date, closed by a TOTAL row, form one snapshot.
func (p *PerformanceLog) Load() ([]*models.Snapshot, error) {
	f, err := os.Open(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", p.path, err)
	}
	cols := columnIndex(header)
	indexCols := indexColumns(header)

	var (
		out     []*models.Snapshot
		current *models.Snapshot
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.path, err)
		}
		line, _ := cr.FieldPos(0)

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		// Repeated header from an older run
		if get("ticker") == "Ticker" {
			continue
		}

		date, err := time.Parse(dateLayout, get("date"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid date %q", p.path, line, get("date"))
		}

		if current == nil || current.Total != nil || !current.Date.Equal(date) {
			current = &models.Snapshot{Date: date}
			out = append(out, current)
		}

		if strings.EqualFold(get("ticker"), models.TotalTicker) {
			total := &models.TotalRow{
				Date:        date,
				TotalValue:  parseMoney(get("totalvalue")),
				PnL:         parseMoney(get("pnl")),
				CashBalance: parseMoney(get("cashbalance")),
				TotalEquity: parseMoney(get("totalequity")),
			}
			for _, ic := range indexCols {
				ip := models.IndexPrice{Name: ic.name}
				if ic.pos < len(record) {
					ip.Price = parseOptMoney(record[ic.pos])
				}
				total.Indices = append(total.Indices, ip)
			}
			current.Total = total
			continue
		}

		current.Rows = append(current.Rows, models.PortfolioRow{
			Date:         date,
			Ticker:       get("ticker"),
			Shares:       parseMoney(get("shares")),
			CostBasis:    parseMoney(get("costbasis")),
			StopLoss:     parseOptMoney(get("stoploss")),
			CurrentPrice: parseMoney(get("currentprice")),
			TotalValue:   parseMoney(get("totalvalue")),
			PnL:          parseMoney(get("pnl")),
			Action:       get("action"),
		})
	}
	return out, nil
}

// Latest returns the last snapshot in the log
func (p *PerformanceLog) Latest() (*models.Snapshot, error) {
	snaps, err := p.Load()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}
	return snaps[len(snaps)-1], nil
}

// Previous returns the last snapshot dated strictly before date
func (p *PerformanceLog) Previous(date time.Time) (*models.Snapshot, error) {
	snaps, err := p.Load()
	if err != nil {
		return nil, err
	}
	return previousOf(snaps, date)
}

// LatestPair returns the last snapshot and the one before its date, if any
func (p *PerformanceLog) LatestPair() (latest, previous *models.Snapshot, err error) {
	snaps, err := p.Load()
	if err != nil {
		return nil, nil, err
	}
	if len(snaps) == 0 {
		return nil, nil, ErrNoSnapshots
	}
	latest = snaps[len(snaps)-1]
	previous, err = previousOf(snaps, latest.Date)
	if errors.Is(err, ErrNoSnapshots) {
		return latest, nil, nil
	}
	return latest, previous, err
}

func previousOf(snaps []*models.Snapshot, date time.Time) (*models.Snapshot, error) {
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].Date.Before(date) {
			return snaps[i], nil
		}
	}
	return nil, ErrNoSnapshots
}

type indexColumn struct {
	name string
	pos  int
}

// indexColumns returns the columns after the base columns, which hold index prices
func indexColumns(header []string) []indexColumn {
	known := make(map[string]bool, len(baseColumns))
	for _, c := range baseColumns {
		known[strings.ToLower(c)] = true
	}
	var out []indexColumn
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		out = append(out, indexColumn{name: name, pos: i})
	}
	return out
}

// quantity keeps every significant digit so fractional shares round-trip
func quantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func money(v float64) string {
	return strconv.FormatFloat(common.Round2(v), 'f', 2, 64)
}

func optMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return money(*v)
}

func parseMoney(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseOptMoney(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Ensure PerformanceLog implements PerformanceLogStore
var _ interfaces.PerformanceLogStore = (*PerformanceLog)(nil)
