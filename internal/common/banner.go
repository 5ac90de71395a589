package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner for a command run to w.
func PrintBanner(w io.Writer, command string, config *Config, logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  MICROCAP - portfolio tracker%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Command", command},
		{"Version", GetFullVersion()},
		{"Environment", config.Environment},
		{"Data", config.DataPath},
		{"Ledger", config.ResolvePath(config.Portfolio.LedgerFile)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "%s\n\n", hr)

	logger.Info().
		Str("command", command).
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("data_path", config.DataPath).
		Msg("Run started")
}
