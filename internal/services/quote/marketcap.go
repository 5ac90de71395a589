package quote

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMarketCap is returned when market cap text cannot be parsed
var ErrInvalidMarketCap = errors.New("invalid market cap")

var capMultipliers = map[byte]float64{
	'T': 1e12,
	'B': 1e9,
	'M': 1e6,
	'K': 1e3,
}

// ParseMarketCap converts quote page text such as "1.2B" or "750M" into
// currency units, rounded to the nearest unit.
func ParseMarketCap(text string) (int64, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if s == "" || s == "N/A" || s == "--" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMarketCap, text)
	}

	mult := 1.0
	if m, ok := capMultipliers[s[len(s)-1]]; ok {
		mult = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMarketCap, text)
	}

	return int64(math.Round(v * mult)), nil
}
