package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// LedgerFile reads the transaction ledger CSV
type LedgerFile struct {
	path string
}

// NewLedgerFile creates a reader for the ledger at path
func NewLedgerFile(path string) *LedgerFile {
	return &LedgerFile{path: path}
}

// Path returns the ledger location
func (l *LedgerFile) Path() string { return l.path }

// Load parses every ledger row. Columns are matched by header name, case
// insensitively; Date, Fee and StopLoss are optional.
func (l *LedgerFile) Load() ([]models.Transaction, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	txns, err := ParseLedger(f)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.path, err)
	}
	return txns, nil
}

// ParseLedger reads ledger CSV from r
func ParseLedger(r io.Reader) ([]models.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := columnIndex(header)
	for _, required := range []string{"ticker", "action", "shares", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: header is missing %q column", models.ErrMalformedRow, required)
		}
	}

	var txns []models.Transaction
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		if get("ticker") == "" && get("action") == "" {
			continue
		}

		t, err := parseTransaction(line, get)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func parseTransaction(line int, get func(string) string) (models.Transaction, error) {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", models.ErrMalformedRow, line, fmt.Sprintf(format, args...))
	}

	t := models.Transaction{Line: line, Ticker: strings.ToUpper(get("ticker"))}

	action, ok := models.ParseTradeAction(get("action"))
	if !ok {
		return t, bad("unknown action %q", get("action"))
	}
	t.Action = action

	var err error
	if t.Shares, err = decimal.NewFromString(get("shares")); err != nil {
		return t, bad("invalid shares %q", get("shares"))
	}
	if t.Price, err = decimal.NewFromString(get("price")); err != nil {
		return t, bad("invalid price %q", get("price"))
	}
	if fee := get("fee"); fee != "" {
		if t.Fee, err = decimal.NewFromString(fee); err != nil {
			return t, bad("invalid fee %q", fee)
		}
	}
	if sl := get("stoploss"); sl != "" {
		v, err := strconv.ParseFloat(sl, 64)
		if err != nil {
			return t, bad("invalid stop loss %q", sl)
		}
		t.StopLoss = &v
	}
	if d := get("date"); d != "" {
		if t.Date, err = time.Parse(dateLayout, d); err != nil {
			return t, bad("invalid date %q", d)
		}
	}
	return t, nil
}

// columnIndex maps lowercased header names, without spaces, to positions
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), " ", ""))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

// Ensure LedgerFile implements LedgerSource
var _ interfaces.LedgerSource = (*LedgerFile)(nil)
